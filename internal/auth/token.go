package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the dashboard can read from its backend bearer token.
// The signature is the backend's business; nothing here is trusted for
// authorization.
type TokenInfo struct {
	Subject      string
	RestaurantID string
	Name         string
	ExpiresAt    *time.Time
}

// Expired reports whether the token carries an expiry that has passed
func (t TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Inspect parses a bearer token without verifying it. Opaque (non-JWT)
// tokens return an error; callers treat that as "nothing to report".
func Inspect(token string) (TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))

	if token == "" {
		return TokenInfo{}, fmt.Errorf("empty token")
	}

	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to parse token: %w", err)
	}

	var info TokenInfo

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}

	info.RestaurantID = claimString(claims, "restaurant_id")
	info.Name = claimString(claims, "name")

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time.UTC()
		info.ExpiresAt = &t
	}

	return info, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
