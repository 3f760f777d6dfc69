package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrderDecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": 42,
		"customer_name": "Asha",
		"customer_phone": "+919800000000",
		"items": [{"product_name": "Dosa", "quantity": 2, "price": 60.5}],
		"order_type": "delivery",
		"delivery_address": "12 MG Road",
		"subtotal": 121,
		"delivery_fee": "30.00",
		"total": 151,
		"status": "pending",
		"payment_method": "online",
		"payment_status": "pending",
		"created_at": "2024-05-01T10:00:00Z"
	}`

	var order Order
	if err := json.Unmarshal([]byte(payload), &order); err != nil {
		t.Fatalf("Failed to decode order: %v", err)
	}

	if order.ID != "42" {
		t.Errorf("Expected id 42, got %q", order.ID)
	}

	if len(order.Items) != 1 || !order.Items[0].LineTotal().Equal(dec("121")) {
		t.Errorf("Expected one item with line total 121, got %+v", order.Items)
	}

	if errs := order.Validate(); len(errs) != 0 {
		t.Errorf("Expected no violations, got %v", errs)
	}

	if !order.CanVerifyPayment() {
		t.Error("Expected pending online payment to be verifiable")
	}
}

func TestOrderTotalInvariant(t *testing.T) {
	tests := []struct {
		name      string
		orderType OrderType
		subtotal  string
		fee       string
		total     string
		valid     bool
	}{
		{"delivery includes fee", OrderTypeDelivery, "200", "40", "240", true},
		{"pickup excludes fee", OrderTypePickup, "200", "40", "200", true},
		{"pickup charged fee", OrderTypePickup, "200", "40", "240", false},
		{"delivery missing fee", OrderTypeDelivery, "200", "40", "200", false},
		{"decimal exact", OrderTypeDelivery, "0.10", "0.20", "0.30", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := Order{
				ID:          "1",
				Status:      OrderStatusPending,
				OrderType:   tt.orderType,
				Subtotal:    dec(tt.subtotal),
				DeliveryFee: dec(tt.fee),
				Total:       dec(tt.total),
			}

			errs := order.Validate()
			if tt.valid && len(errs) != 0 {
				t.Errorf("Expected valid order, got %v", errs)
			}
			if !tt.valid && len(errs) != 1 {
				t.Errorf("Expected one violation, got %v", errs)
			}
		})
	}
}

func TestOrderSubtotalMatchesItems(t *testing.T) {
	order := Order{
		ID:        "3",
		Status:    OrderStatusPending,
		OrderType: OrderTypePickup,
		Items: []OrderItem{
			{ProductName: "Dosa", Quantity: 2, Price: dec("60.50")},
			{ProductName: "Chai", Quantity: 1, Price: dec("15")},
		},
		Subtotal: dec("136"),
		Total:    dec("136"),
	}

	if !order.ItemsTotal().Equal(dec("136")) {
		t.Fatalf("Expected items total 136, got %s", order.ItemsTotal())
	}

	if errs := order.Validate(); len(errs) != 0 {
		t.Errorf("Expected no violations, got %v", errs)
	}

	order.Subtotal = dec("120")
	order.Total = dec("120")

	errs := order.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "item lines 136.00") {
		t.Errorf("Expected one item-lines violation, got %v", errs)
	}
}

func TestOrderVerifiedPaymentInvariant(t *testing.T) {
	order := Order{
		ID:            "7",
		Status:        OrderStatusDelivered,
		OrderType:     OrderTypePickup,
		Subtotal:      dec("100"),
		Total:         dec("100"),
		PaymentMethod: PaymentMethodCOD,
		PaymentStatus: PaymentStatusVerified,
	}

	errs := order.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "payment verified") {
		t.Fatalf("Expected payment violation, got %v", errs)
	}

	order.CustomerUPIName = "ASHA K"
	if errs := order.Validate(); len(errs) != 0 {
		t.Errorf("Expected manual verification to satisfy invariant, got %v", errs)
	}

	order.PaymentMethod = PaymentMethodOnline
	order.CustomerUPIName = ""
	if errs := order.Validate(); len(errs) != 0 {
		t.Errorf("Expected online verified payment to be valid, got %v", errs)
	}
}

func TestCanVerifyPayment(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		status PaymentStatus
		want   bool
	}{
		{PaymentMethodOnline, PaymentStatusPending, true},
		{PaymentMethodOnline, PaymentStatusFailed, true},
		{PaymentMethodOnline, PaymentStatusVerified, false},
		{PaymentMethodCOD, PaymentStatusPending, false},
	}

	for _, tt := range tests {
		order := Order{PaymentMethod: tt.method, PaymentStatus: tt.status}
		if got := order.CanVerifyPayment(); got != tt.want {
			t.Errorf("Expected CanVerifyPayment(%s, %s) = %v, got %v", tt.method, tt.status, tt.want, got)
		}
	}
}

func TestIDUnmarshal(t *testing.T) {
	tests := map[string]ID{
		`"ord-1"`: "ord-1",
		`17`:      "17",
		`null`:    "",
	}

	for input, want := range tests {
		var id ID
		if err := json.Unmarshal([]byte(input), &id); err != nil {
			t.Fatalf("Failed to decode %s: %v", input, err)
		}
		if id != want {
			t.Errorf("Expected %q for %s, got %q", want, input, id)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("Expected error for object id")
	}
}

func TestDashboardStatsPreservesUnknownFields(t *testing.T) {
	payload := `{"total_orders": 10, "pending_orders": 2, "today_orders": 4, "total_revenue": "1234.50", "avg_prep_minutes": 12}`

	var stats DashboardStats
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}

	if stats.TotalOrders != 10 || stats.PendingOrders != 2 || stats.TodayOrders != 4 {
		t.Errorf("Unexpected counters: %+v", stats)
	}

	if !stats.TotalRevenue.Equal(dec("1234.5")) {
		t.Errorf("Expected revenue 1234.50, got %s", stats.TotalRevenue)
	}

	if string(stats.Extra["avg_prep_minutes"]) != "12" {
		t.Errorf("Expected extra field to be kept, got %v", stats.Extra)
	}

	out, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Failed to encode stats: %v", err)
	}

	if !strings.Contains(string(out), `"avg_prep_minutes":12`) {
		t.Errorf("Expected extra field in output, got %s", out)
	}
}
