package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/vakhileshni/whatsApp-sub000/internal/cli"
)

func main() {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cli.Execute()
}
