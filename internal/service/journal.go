package service

import (
	"context"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Journal records operator actions for audit
type Journal interface {
	Record(ctx context.Context, action *models.OperatorAction) error
}

type nopJournal struct{}

func (nopJournal) Record(context.Context, *models.OperatorAction) error { return nil }

// NopJournal returns a journal that records nothing
func NopJournal() Journal { return nopJournal{} }

// recorder stamps and writes journal entries. A journal failure never fails
// the operator action it describes.
type recorder struct {
	journal   Journal
	sessionID string
	logger    logger.Logger
}

func (r recorder) record(ctx context.Context, actionType models.ActionType, subjectID string, data interface{}, cause error) {
	if r.journal == nil {
		return
	}

	action, err := models.NewOperatorAction(actionType, subjectID, data, cause)
	if err != nil {
		r.logger.Error("Failed to build journal entry", "error", err, "actionType", actionType)
		return
	}
	action.SessionID = r.sessionID

	if err := r.journal.Record(ctx, action); err != nil {
		r.logger.Warn("Failed to journal operator action",
			"error", err,
			"actionType", actionType,
			"subjectID", subjectID)
	}
}
