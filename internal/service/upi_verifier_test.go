package service

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vakhileshni/whatsApp-sub000/internal/clients"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

var testAmount = decimal.RequireFromString("1.37")

func newTestVerifier(backend *MockUPIBackend, journal Journal) *UPIVerifier {
	v := NewUPIVerifier(backend, journal, "session-1", "Blue Cafe", logger.NewNop())
	v.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return v
}

func TestRequestChallengeValidatesLocally(t *testing.T) {
	tests := []struct {
		name     string
		upiID    string
		password string
	}{
		{"empty id", "  ", "secret"},
		{"missing handle", "cafe@", "secret"},
		{"no at sign", "cafeybl", "secret"},
		{"empty password", "cafe@ybl", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &MockUPIBackend{}
			v := newTestVerifier(backend, NopJournal())

			_, err := v.RequestChallenge(context.Background(), tt.upiID, tt.password)
			if !stderrors.Is(err, errors.ErrInvalidInput) || !errors.IsLocal(err) {
				t.Errorf("Expected local validation error, got %v", err)
			}

			if backend.RequestCalls != 0 {
				t.Errorf("Expected no backend call, got %d", backend.RequestCalls)
			}

			if _, ok := v.Current(); ok {
				t.Error("Expected no active challenge")
			}
		})
	}
}

func TestRequestChallengeStoresChallenge(t *testing.T) {
	journal := &MockJournal{}
	v := newTestVerifier(&MockUPIBackend{}, journal)

	challenge, err := v.RequestChallenge(context.Background(), " cafe@ybl ", "secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if challenge.UPIID != "cafe@ybl" || challenge.VerificationCode != "482913" {
		t.Errorf("Unexpected challenge: %+v", challenge)
	}

	if !challenge.IssuedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected issue time to be stamped, got %v", challenge.IssuedAt)
	}

	current, ok := v.Current()
	if !ok || current.VerificationCode != "482913" {
		t.Errorf("Expected the challenge to be active, got %+v", current)
	}

	if len(journal.Actions) != 1 || journal.Actions[0].ActionType != models.ActionUPIChallengeRequested {
		t.Errorf("Expected a challenge journal entry, got %+v", journal.Actions)
	}
}

func TestRequestChallengeBuildsMissingQR(t *testing.T) {
	backend := &MockUPIBackend{
		RequestFunc: func(ctx context.Context, request clients.UPIChallengeRequest) (*models.UPIChallenge, error) {
			return &models.UPIChallenge{VerificationCode: "777111", VerificationAmount: testAmount}, nil
		},
	}
	v := newTestVerifier(backend, NopJournal())

	challenge, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if challenge.UPIID != "cafe@ybl" {
		t.Errorf("Expected the requested id to be filled in, got %q", challenge.UPIID)
	}

	for _, part := range []string{"pa=cafe%40ybl", "am=1.37", "tn=777111", "pn=Blue%20Cafe"} {
		if !strings.Contains(challenge.QRData, part) {
			t.Errorf("Expected QR data to contain %q, got %q", part, challenge.QRData)
		}
	}
}

func TestFailedRequestKeepsPreviousChallenge(t *testing.T) {
	backend := &MockUPIBackend{}
	v := newTestVerifier(backend, NopJournal())

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	backend.RequestFunc = func(ctx context.Context, request clients.UPIChallengeRequest) (*models.UPIChallenge, error) {
		return nil, errors.NewBackendError(401, "Incorrect password")
	}

	_, err := v.RequestChallenge(context.Background(), "other@okaxis", "wrong")
	if err == nil || err.Error() != "Incorrect password" {
		t.Fatalf("Expected backend message verbatim, got %v", err)
	}

	current, ok := v.Current()
	if !ok || current.UPIID != "cafe@ybl" {
		t.Errorf("Expected the earlier challenge to stay active, got %+v", current)
	}
}

func TestCheckCode(t *testing.T) {
	v := newTestVerifier(&MockUPIBackend{}, NopJournal())

	if err := v.CheckCode("482913"); !stderrors.Is(err, errors.ErrNoChallenge) {
		t.Errorf("Expected ErrNoChallenge before any request, got %v", err)
	}

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := v.CheckCode("000000"); !stderrors.Is(err, errors.ErrCodeMismatch) {
		t.Errorf("Expected ErrCodeMismatch, got %v", err)
	}

	if _, ok := v.Current(); !ok {
		t.Error("Expected the challenge to survive a mismatch")
	}

	if err := v.CheckCode(" 482913 "); err != nil {
		t.Errorf("Expected the trimmed code to match, got %v", err)
	}
}

func TestConfirmMismatchDoesNotCallBackend(t *testing.T) {
	backend := &MockUPIBackend{}
	v := newTestVerifier(backend, NopJournal())

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := v.Confirm(context.Background(), "123456", ""); !stderrors.Is(err, errors.ErrCodeMismatch) {
		t.Errorf("Expected ErrCodeMismatch, got %v", err)
	}

	if backend.ConfirmCalls != 0 {
		t.Errorf("Expected no backend call, got %d", backend.ConfirmCalls)
	}

	if _, ok := v.Current(); !ok {
		t.Error("Expected the challenge to stay active after a mismatch")
	}
}

func TestConfirmSuccess(t *testing.T) {
	backend := &MockUPIBackend{}
	journal := &MockJournal{}
	v := newTestVerifier(backend, journal)

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	info, err := v.Confirm(context.Background(), "482913", "newsecret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !info.UPIVerified || info.UPIID != "cafe@ybl" {
		t.Errorf("Unexpected restaurant info: %+v", info)
	}

	want := clients.UPIConfirmRequest{Code: "482913", UPIID: "cafe@ybl", Password: "secret", NewPassword: "newsecret"}
	if backend.LastConfirm != want {
		t.Errorf("Expected confirm request %+v, got %+v", want, backend.LastConfirm)
	}

	if _, ok := v.Current(); ok {
		t.Error("Expected the challenge to be consumed")
	}

	if restaurant, ok := v.Restaurant(); !ok || !restaurant.UPIVerified {
		t.Errorf("Expected the verified restaurant to be stored, got %+v", restaurant)
	}

	last := journal.Actions[len(journal.Actions)-1]
	if last.ActionType != models.ActionUPIVerified || last.Outcome != models.ActionOutcomeSucceeded {
		t.Errorf("Unexpected journal entry: %+v", last)
	}
}

func TestConfirmIsSingleUseEvenOnFailure(t *testing.T) {
	backend := &MockUPIBackend{
		ConfirmFunc: func(ctx context.Context, request clients.UPIConfirmRequest) (*models.RestaurantInfo, error) {
			return nil, errors.NewBackendError(400, "Verification expired")
		},
	}
	journal := &MockJournal{}
	v := newTestVerifier(backend, journal)

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err := v.Confirm(context.Background(), "482913", "")
	if err == nil || err.Error() != "Verification expired" {
		t.Fatalf("Expected backend message verbatim, got %v", err)
	}

	if _, err := v.Confirm(context.Background(), "482913", ""); !stderrors.Is(err, errors.ErrNoChallenge) {
		t.Errorf("Expected the challenge to be gone after one attempt, got %v", err)
	}

	if backend.ConfirmCalls != 1 {
		t.Errorf("Expected exactly one backend confirm, got %d", backend.ConfirmCalls)
	}

	if _, ok := v.Restaurant(); ok {
		t.Error("Expected no verified identity after a failed confirm")
	}

	last := journal.Actions[len(journal.Actions)-1]
	if last.ActionType != models.ActionUPIVerificationFailed || last.ErrorMessage == nil || *last.ErrorMessage != "Verification expired" {
		t.Errorf("Unexpected journal entry: %+v", last)
	}
}

func TestConfirmRejectsShortNewPassword(t *testing.T) {
	backend := &MockUPIBackend{}
	v := newTestVerifier(backend, NopJournal())

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := v.Confirm(context.Background(), "482913", "abc"); !errors.IsLocal(err) {
		t.Errorf("Expected local validation error, got %v", err)
	}

	if backend.ConfirmCalls != 0 {
		t.Errorf("Expected no backend call, got %d", backend.ConfirmCalls)
	}

	if _, ok := v.Current(); !ok {
		t.Error("Expected the challenge to stay active after a local rejection")
	}
}

func TestCancel(t *testing.T) {
	v := newTestVerifier(&MockUPIBackend{}, NopJournal())

	if v.Cancel() {
		t.Error("Expected nothing to cancel")
	}

	if _, err := v.RequestChallenge(context.Background(), "cafe@ybl", "secret"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !v.Cancel() {
		t.Error("Expected the active challenge to be cancelled")
	}

	if err := v.CheckCode("482913"); !stderrors.Is(err, errors.ErrNoChallenge) {
		t.Errorf("Expected ErrNoChallenge after cancel, got %v", err)
	}
}
