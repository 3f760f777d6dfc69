package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vakhileshni/whatsApp-sub000/internal/api"
	"github.com/vakhileshni/whatsApp-sub000/internal/app"
	"github.com/vakhileshni/whatsApp-sub000/internal/live"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the operator API with live reconciliation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noLive, _ := cmd.Flags().GetBool("no-live")
			quiet, _ := cmd.Flags().GetBool("quiet")

			var tone io.Writer = os.Stdout
			if quiet {
				tone = nil
			}

			ctx := cmd.Context()
			a, cfg, l, err := session(ctx, app.Options{Tone: tone, Background: true})
			if err != nil {
				return err
			}
			defer a.Close()

			a.StartBackground()

			if _, err := a.Loop.Load(ctx); err != nil {
				// The operator can retry from POST /orders/refresh
				l.Error("Initial order load failed", "error", err)
			} else if !noLive {
				if err := a.Loop.Start(); err != nil {
					l.Error("Failed to start live reconciliation", "error", err)
				}
			}

			var journal api.JournalReader
			if a.History != nil {
				journal = a.History
			}

			server := api.NewServer(cfg, l, a.Loop, a.Orders, a.UPI, journal)

			go func() {
				l.Info(fmt.Sprintf("Server is starting on port %d", cfg.Port))

				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					l.Error("Failed to start server", "error", err)
					os.Exit(1)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			l.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				l.Error("Server forced to shutdown", "error", err)
				return err
			}

			l.Info("Server exiting")
			return nil
		},
	}

	cmd.Flags().Bool("no-live", false, "Load once but do not start interval reconciliation")
	cmd.Flags().BoolP("quiet", "q", false, "Do not ring the terminal bell on new orders")

	return cmd
}

func ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Load and print the current orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := session(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Loop.Load(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), snap)
			}

			return printBoard(cmd.OutOrStdout(), snap)
		},
	}
}

func transitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transition <order-id> <status>",
		Short: "Move an order to its next status (preparing, ready, delivered, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := session(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			// Load first so the transition is checked against the known status
			if _, err := a.Loop.Load(cmd.Context()); err != nil {
				return err
			}

			order, err := a.Orders.TransitionOrder(cmd.Context(), args[0], models.OrderStatus(strings.ToLower(args[1])))
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), order)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", order.ID, order.Status)
			return nil
		},
	}
}

func verifyPaymentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-payment <order-id> <payer-upi-name>",
		Short: "Confirm an online payment was received from the named payer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := session(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			payer := strings.Join(args[1:], " ")

			order, err := a.Orders.VerifyPayment(cmd.Context(), args[0], payer)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), order)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Order %s payment is %s (payer %s)\n",
				order.ID, order.PaymentStatus, order.CustomerUPIName)
			return nil
		},
	}
}

func upiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upi <upi-id>",
		Short: "Verify ownership of a UPI id with a small test payment",
		Long: `Requests a verification challenge for the UPI id, prints the amount,
code and payment link, then waits for the code received in the payment note.
A wrong code can be re-entered; the backend is asked only once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			newPassword, _ := cmd.Flags().GetString("new-password")

			a, _, _, err := session(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			return runUPIVerification(cmd.Context(), a.UPI, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], password, newPassword)
		},
	}

	cmd.Flags().StringP("password", "p", "", "Current UPI password (prompted when empty)")
	cmd.Flags().String("new-password", "", "Optional new UPI password, at least 6 characters")

	return cmd
}

func printBoard(out io.Writer, snap live.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSTATUS\tCUSTOMER\tTYPE\tTOTAL\tPAYMENT\tNEW")
	newIDs := make(map[string]bool, len(snap.NewOrderIDs))
	for _, id := range snap.NewOrderIDs {
		newIDs[id] = true
	}

	for _, order := range snap.Orders {
		marker := ""
		if newIDs[order.ID.String()] {
			marker = "*"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s/%s\t%s\n",
			order.ID,
			order.Status,
			order.CustomerName,
			order.OrderType,
			order.Total.StringFixed(2),
			order.PaymentMethod,
			order.PaymentStatus,
			marker)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	for _, bucket := range models.AttentionBuckets {
		fmt.Fprintf(out, "%s: %d  ", bucket, snap.Counts[bucket])
	}
	fmt.Fprintln(out)

	for _, v := range snap.Violations {
		fmt.Fprintf(out, "warning: %s\n", v)
	}

	return nil
}
