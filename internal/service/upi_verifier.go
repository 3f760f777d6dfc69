package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/clients"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// MinUPIPasswordLength is the shortest accepted new UPI password
const MinUPIPasswordLength = 6

// UPIBackend is the part of the backend that runs the ownership protocol
type UPIBackend interface {
	RequestUPIChallenge(ctx context.Context, request clients.UPIChallengeRequest) (*models.UPIChallenge, error)
	ConfirmUPIVerification(ctx context.Context, request clients.UPIConfirmRequest) (*models.RestaurantInfo, error)
}

type pendingChallenge struct {
	challenge models.UPIChallenge
	password  string
}

// UPIVerifier binds a UPI id to the restaurant account with proof of
// control. The code check here only saves the operator a round trip; the
// backend validates again on confirm.
type UPIVerifier struct {
	backend        UPIBackend
	rec            recorder
	logger         logger.Logger
	restaurantName string
	now            func() time.Time

	mu         sync.Mutex
	pending    *pendingChallenge
	restaurant *models.RestaurantInfo
}

// NewUPIVerifier creates a new UPIVerifier. restaurantName is used as the
// payee name when a QR payload has to be built locally.
func NewUPIVerifier(backend UPIBackend, journal Journal, sessionID, restaurantName string, logger logger.Logger) *UPIVerifier {
	return &UPIVerifier{
		backend:        backend,
		rec:            recorder{journal: journal, sessionID: sessionID, logger: logger},
		logger:         logger,
		restaurantName: restaurantName,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RequestChallenge validates the candidate id locally, then asks the backend
// for a challenge. A new challenge replaces any active one.
func (v *UPIVerifier) RequestChallenge(ctx context.Context, upiID, password string) (*models.UPIChallenge, error) {
	upiID = strings.TrimSpace(upiID)

	if upiID == "" {
		return nil, errors.NewValidationError("UPI id is required")
	}

	if !models.ValidUPIID(upiID) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid UPI id %q, expected name@bank", upiID))
	}

	if strings.TrimSpace(password) == "" {
		return nil, errors.NewValidationError("password is required")
	}

	challenge, err := v.backend.RequestUPIChallenge(ctx, clients.UPIChallengeRequest{
		UPIID:    upiID,
		Password: password,
	})

	if err != nil {
		v.logger.Warn("UPI challenge request failed",
			"upiID", upiID,
			"network", errors.IsNetwork(err),
			"error", err)
		return nil, err
	}

	if challenge.UPIID == "" {
		challenge.UPIID = upiID
	}

	if challenge.QRData == "" {
		challenge.QRData = models.BuildUPIPayURI(
			challenge.UPIID, v.restaurantName, challenge.VerificationAmount, challenge.VerificationCode)
	}

	challenge.IssuedAt = v.now()

	v.mu.Lock()
	v.pending = &pendingChallenge{challenge: *challenge, password: password}
	v.mu.Unlock()

	v.logger.Info("UPI challenge issued",
		"upiID", challenge.UPIID,
		"amount", challenge.VerificationAmount.StringFixed(2))
	v.rec.record(ctx, models.ActionUPIChallengeRequested, challenge.UPIID, map[string]interface{}{
		"upi_id": challenge.UPIID,
		"amount": challenge.VerificationAmount,
	}, nil)

	out := *challenge
	return &out, nil
}

// CheckCode compares the operator-entered code with the issued one. A
// mismatch changes nothing; the challenge stays active for another try.
func (v *UPIVerifier) CheckCode(code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, err := v.checkLocked(code)
	return err
}

func (v *UPIVerifier) checkLocked(code string) (*pendingChallenge, error) {
	if v.pending == nil {
		return nil, errors.NewNoChallengeError("no UPI verification in progress, request a new code")
	}

	code = strings.TrimSpace(code)

	if code == "" {
		return nil, errors.NewValidationError("verification code is required")
	}

	if code != v.pending.challenge.VerificationCode {
		return nil, errors.NewCodeMismatchError("verification code does not match")
	}

	return v.pending, nil
}

// Confirm submits a matching code to the backend. The challenge is consumed
// by the attempt whatever its outcome; a retry needs a new challenge. On
// failure the previously verified identity is kept.
func (v *UPIVerifier) Confirm(ctx context.Context, code, newPassword string) (*models.RestaurantInfo, error) {
	if newPassword != "" && len(newPassword) < MinUPIPasswordLength {
		return nil, errors.NewValidationError(
			fmt.Sprintf("new UPI password must be at least %d characters", MinUPIPasswordLength))
	}

	v.mu.Lock()
	pending, err := v.checkLocked(code)
	if err != nil {
		v.mu.Unlock()
		return nil, err
	}
	v.pending = nil
	v.mu.Unlock()

	upiID := pending.challenge.UPIID

	info, err := v.backend.ConfirmUPIVerification(ctx, clients.UPIConfirmRequest{
		Code:        strings.TrimSpace(code),
		UPIID:       upiID,
		Password:    pending.password,
		NewPassword: newPassword,
	})

	if err != nil {
		v.logger.Warn("UPI verification rejected",
			"upiID", upiID,
			"network", errors.IsNetwork(err),
			"error", err)
		v.rec.record(ctx, models.ActionUPIVerificationFailed, upiID, map[string]interface{}{
			"upi_id": upiID,
		}, err)
		return nil, err
	}

	v.mu.Lock()
	v.restaurant = info
	v.mu.Unlock()

	v.logger.Info("UPI id verified", "upiID", info.UPIID, "restaurantID", info.ID)
	v.rec.record(ctx, models.ActionUPIVerified, upiID, map[string]interface{}{
		"upi_id":            upiID,
		"password_rotated":  newPassword != "",
		"restaurant_upi_id": info.UPIID,
	}, nil)

	out := *info
	return &out, nil
}

// Cancel discards the active challenge. It reports whether one existed.
func (v *UPIVerifier) Cancel() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	active := v.pending != nil
	v.pending = nil

	if active {
		v.logger.Info("UPI verification cancelled")
	}

	return active
}

// Current returns a copy of the active challenge
func (v *UPIVerifier) Current() (*models.UPIChallenge, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.pending == nil {
		return nil, false
	}

	out := v.pending.challenge
	return &out, true
}

// Restaurant returns the restaurant info from the last successful confirm
func (v *UPIVerifier) Restaurant() (*models.RestaurantInfo, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.restaurant == nil {
		return nil, false
	}

	out := *v.restaurant
	return &out, true
}
