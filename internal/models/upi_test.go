package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidUPIID(t *testing.T) {
	tests := map[string]bool{
		"restaurant@okicici":  true,
		"cafe.blue_01-x@ybl":  true,
		"9800000000@paytm":    true,
		"":                    false,
		"noatsign":            false,
		"@okicici":            false,
		".dot@okicici":        false,
		"name@":               false,
		"name@ok.icici":       false,
		"name with space@upi": false,
		"name@upi@upi":        false,
		"name@upi-bank":       false,
	}

	for id, want := range tests {
		if got := ValidUPIID(id); got != want {
			t.Errorf("Expected ValidUPIID(%q) = %v, got %v", id, want, got)
		}
	}
}

func TestBuildUPIPayURI(t *testing.T) {
	uri := BuildUPIPayURI("cafe@ybl", "Blue Cafe", dec("1.5"), "483920")

	if !strings.HasPrefix(uri, "upi://pay?") {
		t.Fatalf("Expected upi://pay scheme, got %s", uri)
	}

	for _, part := range []string{"pa=cafe%40ybl", "pn=Blue%20Cafe", "am=1.50", "cu=INR", "tn=483920"} {
		if !strings.Contains(uri, part) {
			t.Errorf("Expected %q in %s", part, uri)
		}
	}

	if strings.Contains(uri, "+") {
		t.Errorf("Expected spaces encoded as %%20, got %s", uri)
	}
}

func TestBuildUPIPayURIOmitsEmptyFields(t *testing.T) {
	uri := BuildUPIPayURI("cafe@ybl", "", dec("2"), "")

	if strings.Contains(uri, "pn=") || strings.Contains(uri, "tn=") {
		t.Errorf("Expected no pn or tn, got %s", uri)
	}
}

func TestNewOperatorAction(t *testing.T) {
	action, err := NewOperatorAction(ActionOrderCancelled, "42", map[string]string{"to": "cancelled"}, nil)
	if err != nil {
		t.Fatalf("Failed to create action: %v", err)
	}

	if !strings.HasPrefix(action.ID, "act-") {
		t.Errorf("Expected act- prefix, got %s", action.ID)
	}

	if action.Outcome != ActionOutcomeSucceeded || action.PublishStatus != PublishStatusPending {
		t.Errorf("Unexpected initial state: %+v", action)
	}

	failed, err := NewOperatorAction(ActionOrderCancelled, "42", nil, errors.New("order already delivered"))
	if err != nil {
		t.Fatalf("Failed to create action: %v", err)
	}

	if failed.Outcome != ActionOutcomeFailed || failed.ErrorMessage == nil || *failed.ErrorMessage != "order already delivered" {
		t.Errorf("Expected failed outcome with message, got %+v", failed)
	}

	event := failed.Event()
	if event.Error != "order already delivered" || string(event.Data) != "{}" {
		t.Errorf("Unexpected event: %+v", event)
	}
}
