package models

import (
	"encoding/json"
	"time"
)

// ActionType names an operator action recorded in the journal
type ActionType string

const (
	ActionOrderStatusChanged    ActionType = "order_status_changed"
	ActionOrderCancelled        ActionType = "order_cancelled"
	ActionOrderPaymentVerified  ActionType = "order_payment_verified"
	ActionUPIChallengeRequested ActionType = "upi_challenge_requested"
	ActionUPIVerified           ActionType = "upi_verified"
	ActionUPIVerificationFailed ActionType = "upi_verification_failed"
)

// ActionOutcome is the result of the recorded action
type ActionOutcome string

const (
	ActionOutcomeSucceeded ActionOutcome = "succeeded"
	ActionOutcomeFailed    ActionOutcome = "failed"
)

// PublishStatus tracks relaying of a journal entry to Kafka
type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// OperatorAction is one journal entry
type OperatorAction struct {
	ID              string        `db:"id" json:"id"`
	SessionID       string        `db:"session_id" json:"session_id"`
	ActionType      ActionType    `db:"action_type" json:"action_type"`
	SubjectID       string        `db:"subject_id" json:"subject_id"`
	Payload         []byte        `db:"payload" json:"payload"`
	Outcome         ActionOutcome `db:"outcome" json:"outcome"`
	ErrorMessage    *string       `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	PublishStatus   PublishStatus `db:"publish_status" json:"publish_status"`
	PublishAttempts int           `db:"publish_attempts" json:"publish_attempts"`
	PublishedAt     *time.Time    `db:"published_at" json:"published_at,omitempty"`
	LastError       *string       `db:"last_error" json:"last_error,omitempty"`
}

// ActionEvent is the message relayed for an operator action
type ActionEvent struct {
	EventType  ActionType      `json:"event_type"`
	EventID    string          `json:"event_id"`
	SessionID  string          `json:"session_id"`
	SubjectID  string          `json:"subject_id"`
	Outcome    ActionOutcome   `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewOperatorAction creates a journal entry. A non-nil cause marks it failed.
func NewOperatorAction(actionType ActionType, subjectID string, data interface{}, cause error) (*OperatorAction, error) {
	payload := []byte("{}")

	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		payload = encoded
	}

	action := &OperatorAction{
		ID:            GenerateID("act"),
		ActionType:    actionType,
		SubjectID:     subjectID,
		Payload:       payload,
		Outcome:       ActionOutcomeSucceeded,
		CreatedAt:     GetCurrentTime(),
		PublishStatus: PublishStatusPending,
	}

	if cause != nil {
		msg := cause.Error()
		action.Outcome = ActionOutcomeFailed
		action.ErrorMessage = &msg
	}

	return action, nil
}

// Event builds the relayed message for the entry
func (a *OperatorAction) Event() ActionEvent {
	event := ActionEvent{
		EventType:  a.ActionType,
		EventID:    a.ID,
		SessionID:  a.SessionID,
		SubjectID:  a.SubjectID,
		Outcome:    a.Outcome,
		OccurredAt: a.CreatedAt,
		Data:       json.RawMessage(a.Payload),
	}

	if a.ErrorMessage != nil {
		event.Error = *a.ErrorMessage
	}

	return event
}

// AlertEvent is published when a reconciliation tick finds new orders
type AlertEvent struct {
	EventID    string              `json:"event_id"`
	SessionID  string              `json:"session_id"`
	OrderIDs   []string            `json:"order_ids"`
	Buckets    map[string][]string `json:"buckets"`
	OccurredAt time.Time           `json:"occurred_at"`
}
