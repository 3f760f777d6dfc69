package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestInspect(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signed(t, jwt.MapClaims{
		"sub":           "+919800000000",
		"restaurant_id": 12,
		"name":          "Blue Cafe",
		"exp":           exp.Unix(),
	})

	info, err := Inspect("Bearer " + token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if info.Subject != "+919800000000" || info.RestaurantID != "12" || info.Name != "Blue Cafe" {
		t.Errorf("Unexpected info: %+v", info)
	}

	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Errorf("Expected expiry %v, got %v", exp, info.ExpiresAt)
	}

	if info.Expired(exp.Add(-time.Minute)) || !info.Expired(exp) {
		t.Error("Unexpected expiry evaluation")
	}
}

func TestInspectWithoutExpiry(t *testing.T) {
	info, err := Inspect(signed(t, jwt.MapClaims{"restaurant_id": "r-7"}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if info.RestaurantID != "r-7" || info.ExpiresAt != nil || info.Expired(time.Now()) {
		t.Errorf("Unexpected info: %+v", info)
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	for _, token := range []string{"", "Bearer ", "not-a-jwt"} {
		if _, err := Inspect(token); err == nil {
			t.Errorf("Expected error for %q", token)
		}
	}
}
