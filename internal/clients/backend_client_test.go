package clients

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

func newTestClient(t *testing.T, r *mux.Router) *BackendClient {
	t.Helper()

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return NewBackendClient(server.URL+"/api", "test-token", 2*time.Second, logger.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestListOrdersSendsAuthAndRequestID(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if req.Header.Get("X-Request-ID") == "" {
			t.Error("Expected X-Request-ID header")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "status": "pending", "order_type": "pickup", "subtotal": 100, "total": 100}]`))
	}).Methods(http.MethodGet)

	client := newTestClient(t, r)

	orders, err := client.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(orders) != 1 || orders[0].ID != "1" || orders[0].Status != models.OrderStatusPending {
		t.Errorf("Unexpected orders: %+v", orders)
	}
}

func TestUpdateOrderStatusBody(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/orders/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)

		if len(body) != 1 || body["status"] != "cancelled" {
			t.Errorf("Expected only the status in the body, got %v", body)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":     mux.Vars(req)["id"],
			"status": body["status"],
		})
	}).Methods(http.MethodPatch)

	client := newTestClient(t, r)

	order, err := client.UpdateOrderStatus(context.Background(), "17", models.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if order.ID != "17" || order.Status != models.OrderStatusCancelled {
		t.Errorf("Unexpected order: %+v", order)
	}
}

func TestBackendErrorMessagesAreVerbatim(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"detail", http.StatusBadRequest, `{"detail": "Cannot change status of a delivered order"}`, "Cannot change status of a delivered order", errors.ErrInvalidInput},
		{"error", http.StatusNotFound, `{"error": "Order not found"}`, "Order not found", errors.ErrNotFound},
		{"message", http.StatusConflict, `{"message": "Payment already verified"}`, "Payment already verified", errors.ErrConflict},
		{"plain text", http.StatusInternalServerError, "database is down", "database is down", errors.ErrRejected},
		{"empty", http.StatusServiceUnavailable, "", "Service Unavailable", errors.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.NewRouter()
			r.HandleFunc("/api/orders/{id}/verify-payment", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}).Methods(http.MethodPatch)

			client := newTestClient(t, r)

			_, err := client.VerifyOrderPayment(context.Background(), "9", "ASHA K")
			if err == nil {
				t.Fatal("Expected error")
			}

			if err.Error() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, err.Error())
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if errors.StatusCode(err) != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, errors.StatusCode(err))
			}
			if !errors.IsRejected(err) {
				t.Error("Expected a rejection")
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewBackendClient(url, "", time.Second, logger.NewNop())

	_, err := client.GetStats(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}

	if !errors.IsNetwork(err) || errors.IsRejected(err) {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/dashboard/stats", func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]int{"total_orders": 1})
	})

	server := httptest.NewServer(r)
	defer server.Close()

	client := NewBackendClient(server.URL+"/api", "", 50*time.Millisecond, logger.NewNop())

	_, err := client.GetStats(context.Background())
	if !stderrors.Is(err, errors.ErrTimeout) {
		t.Errorf("Expected timeout, got %v", err)
	}
}

func TestUPIChallengeAndConfirm(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/restaurant/upi/verify", func(w http.ResponseWriter, req *http.Request) {
		var body UPIChallengeRequest
		json.NewDecoder(req.Body).Decode(&body)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"upi_id":              body.UPIID,
			"qr_data":             "upi://pay?pa=" + body.UPIID,
			"verification_code":   "482913",
			"verification_amount": 1.37,
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/restaurant/upi/confirm", func(w http.ResponseWriter, req *http.Request) {
		var raw map[string]interface{}
		json.NewDecoder(req.Body).Decode(&raw)

		if _, ok := raw["new_password"]; ok {
			t.Error("Expected new_password to be omitted when empty")
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":           3,
			"name":         "Blue Cafe",
			"upi_id":       raw["upi_id"],
			"upi_verified": true,
		})
	}).Methods(http.MethodPost)

	client := newTestClient(t, r)
	ctx := context.Background()

	challenge, err := client.RequestUPIChallenge(ctx, UPIChallengeRequest{UPIID: "cafe@ybl", Password: "secret"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if challenge.VerificationCode != "482913" || challenge.VerificationAmount.StringFixed(2) != "1.37" {
		t.Errorf("Unexpected challenge: %+v", challenge)
	}

	info, err := client.ConfirmUPIVerification(ctx, UPIConfirmRequest{Code: "482913", UPIID: "cafe@ybl", Password: "secret"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !info.UPIVerified || info.UPIID != "cafe@ybl" || info.ID != "3" {
		t.Errorf("Unexpected restaurant info: %+v", info)
	}
}
