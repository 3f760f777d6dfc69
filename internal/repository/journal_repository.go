package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/database"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// JournalRepository handles database operations for operator actions
type JournalRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *database.Database, logger logger.Logger) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts a new operator action
func (r *JournalRepository) Record(ctx context.Context, action *models.OperatorAction) error {
	query := `
		INSERT INTO operator_actions (
			id, session_id, action_type, subject_id, payload,
			outcome, error_message, created_at, publish_status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		action.ID,
		action.SessionID,
		action.ActionType,
		action.SubjectID,
		action.Payload,
		action.Outcome,
		action.ErrorMessage,
		action.CreatedAt,
		action.PublishStatus,
	)

	if err != nil {
		r.logger.Error("Failed to record operator action", "error", err, "actionID", action.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetPending retrieves actions not yet relayed, oldest first
func (r *JournalRepository) GetPending(ctx context.Context, limit int) ([]*models.OperatorAction, error) {
	query := `
		SELECT id, session_id, action_type, subject_id, payload, outcome,
			   error_message, created_at, publish_status, publish_attempts,
			   published_at, last_error
		FROM operator_actions
		WHERE publish_status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var actions []*models.OperatorAction

	err := r.db.DB.SelectContext(ctx, &actions, query, models.PublishStatusPending, limit)

	if err != nil {
		r.logger.Error("Failed to get pending operator actions", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return actions, nil
}

// MarkPublished records a successful relay
func (r *JournalRepository) MarkPublished(ctx context.Context, id string) error {
	query := `
		UPDATE operator_actions
		SET publish_status = $1, published_at = $2, publish_attempts = publish_attempts + 1
		WHERE id = $3
	`

	return r.exec(ctx, "mark operator action as published", query,
		models.PublishStatusPublished, time.Now().UTC(), id)
}

// MarkAttemptFailed records a failed relay attempt; the action stays pending
func (r *JournalRepository) MarkAttemptFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE operator_actions
		SET publish_attempts = publish_attempts + 1, last_error = $1
		WHERE id = $2
	`

	return r.exec(ctx, "record failed publish attempt", query, errorMessage, id)
}

// MarkFailed gives up relaying an action
func (r *JournalRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE operator_actions
		SET publish_status = $1, last_error = $2
		WHERE id = $3
	`

	return r.exec(ctx, "mark operator action as failed", query, models.PublishStatusFailed, errorMessage, id)
}

// ListBySubject returns the journal of one order or UPI id, newest first
func (r *JournalRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.OperatorAction, error) {
	query := `
		SELECT id, session_id, action_type, subject_id, payload, outcome,
			   error_message, created_at, publish_status, publish_attempts,
			   published_at, last_error
		FROM operator_actions
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var actions []*models.OperatorAction

	if err := r.db.DB.SelectContext(ctx, &actions, query, subjectID, limit); err != nil {
		r.logger.Error("Failed to list operator actions", "error", err, "subjectID", subjectID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return actions, nil
}

func (r *JournalRepository) exec(ctx context.Context, what, query string, args ...interface{}) error {
	result, err := r.db.DB.ExecContext(ctx, query, args...)

	if err != nil {
		r.logger.Error("Failed to "+what, "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
