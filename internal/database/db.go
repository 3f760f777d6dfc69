package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/vakhileshni/whatsApp-sub000/internal/config"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Database represents the journal database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The journal is written by one operator at a time
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return Wrap(db, logger), nil
}

// Wrap adopts an existing connection
func Wrap(db *sqlx.DB, logger logger.Logger) *Database {
	return &Database{
		DB:     db,
		logger: logger,
	}
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// Schema is the journal schema applied by RunMigrations
const Schema = `
	CREATE TABLE IF NOT EXISTS operator_actions (
		id VARCHAR(50) PRIMARY KEY,
		session_id VARCHAR(64) NOT NULL,
		action_type VARCHAR(50) NOT NULL,
		subject_id VARCHAR(100) NOT NULL,
		payload JSONB NOT NULL,
		outcome VARCHAR(20) NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		publish_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		publish_attempts INT NOT NULL DEFAULT 0,
		published_at TIMESTAMP,
		last_error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_operator_actions_publish ON operator_actions(publish_status, created_at);
	CREATE INDEX IF NOT EXISTS idx_operator_actions_subject ON operator_actions(subject_id);
`

// RunMigrations creates the journal tables
func (d *Database) RunMigrations(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
