package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
)

// upiFlow is the verifier as driven from a terminal
type upiFlow interface {
	RequestChallenge(ctx context.Context, upiID, password string) (*models.UPIChallenge, error)
	CheckCode(code string) error
	Confirm(ctx context.Context, code, newPassword string) (*models.RestaurantInfo, error)
	Cancel() bool
}

// runUPIVerification drives the challenge flow on a line-oriented terminal.
// Entering an empty line cancels.
func runUPIVerification(ctx context.Context, verifier upiFlow, in io.Reader, out io.Writer, upiID, password, newPassword string) error {
	reader := bufio.NewReader(in)

	if password == "" {
		var err error
		if password, err = prompt(reader, out, "Current UPI password: "); err != nil {
			return err
		}
	}

	challenge, err := verifier.RequestChallenge(ctx, upiID, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Pay %s INR to %s using this link:\n  %s\n",
		challenge.VerificationAmount.StringFixed(2), challenge.UPIID, challenge.QRData)
	fmt.Fprintf(out, "Use %s as the payment note.\n", challenge.VerificationCode)

	for {
		code, err := prompt(reader, out, "Code received in the payment note (empty to cancel): ")
		if err != nil {
			verifier.Cancel()
			return err
		}

		if code == "" {
			verifier.Cancel()
			fmt.Fprintln(out, "Verification cancelled")
			return nil
		}

		if err := verifier.CheckCode(code); err != nil {
			if stderrors.Is(err, errors.ErrCodeMismatch) {
				fmt.Fprintln(out, "Code does not match, try again")
				continue
			}
			return err
		}

		info, err := verifier.Confirm(ctx, code, newPassword)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "UPI id %s verified for %s\n", info.UPIID, info.Name)
		return nil
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)

	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
