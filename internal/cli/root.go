package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vakhileshni/whatsApp-sub000/internal/api"
	"github.com/vakhileshni/whatsApp-sub000/internal/app"
	"github.com/vakhileshni/whatsApp-sub000/internal/config"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// NewRootCmd builds the dashboard command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Restaurant order dashboard: live orders, status changes and UPI verification",
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(transitionCmd())
	rootCmd.AddCommand(verifyPaymentCmd())
	rootCmd.AddCommand(upiCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// Execute runs the command tree and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session loads configuration and wires a one-shot operator session.
// One-shot commands log to stderr only.
func session(ctx context.Context, opts app.Options) (*app.App, *config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "restaurant-dashboard",
		Out:     os.Stderr,
		ErrOut:  os.Stderr,
	})

	a, err := app.Build(ctx, cfg, l, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	return a, cfg, l, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dashboard %s\n", api.Version)
		},
	}
}
