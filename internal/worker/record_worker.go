// Package worker stores records delivered over AMQP and optionally mirrors
// them to a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"moneygr/internal/amqp"
	"moneygr/internal/core"
	"moneygr/internal/log"
	"moneygr/internal/storage"
)

// Store persists a record at most once per message id.
type Store interface {
	SaveOutcomeOnce(ctx context.Context, messageID string, o core.Outcome) (int64, error)
	SaveIncomeOnce(ctx context.Context, messageID string, i core.Income) (int64, error)
}

// Mirror receives a copy of every newly stored record.
type Mirror interface {
	AppendOutcome(ctx context.Context, id int64, o core.Outcome) (string, error)
	AppendIncome(ctx context.Context, id int64, i core.Income) (string, error)
}

type RecordWorker struct {
	store  Store
	mirror Mirror
	logger *log.Logger
}

// NewRecordWorker builds a worker. mirror may be nil.
func NewRecordWorker(store Store, mirror Mirror, logger *log.Logger) *RecordWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordWorker{store: store, mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Handle stores one message. Redeliveries of an already stored message are
// acknowledged without side effects; invalid records are rejected as
// permanent failures so they are not requeued.
func (w *RecordWorker) Handle(ctx context.Context, msg *amqp.RecordMessage) error {
	logger := w.logger.With(log.FieldMessageID, msg.MessageID, log.FieldRecordKind, string(msg.Kind))
	logger.InfoContext(ctx, "Processing record message")

	var (
		id     int64
		err    error
		mirror func() (string, error)
	)
	switch msg.Kind {
	case amqp.KindOutcome:
		o := msg.OutcomeRecord()
		if verr := o.Validate(); verr != nil {
			return fmt.Errorf("%w: %w", amqp.ErrPermanent, verr)
		}
		id, err = w.store.SaveOutcomeOnce(ctx, msg.MessageID, o)
		mirror = func() (string, error) { return w.mirror.AppendOutcome(ctx, id, o) }
	case amqp.KindIncome:
		i := msg.IncomeRecord()
		if verr := i.Validate(); verr != nil {
			return fmt.Errorf("%w: %w", amqp.ErrPermanent, verr)
		}
		id, err = w.store.SaveIncomeOnce(ctx, msg.MessageID, i)
		mirror = func() (string, error) { return w.mirror.AppendIncome(ctx, id, i) }
	default:
		return fmt.Errorf("%w: unknown kind %q", amqp.ErrPermanent, msg.Kind)
	}

	if errors.Is(err, storage.ErrDuplicateMessage) {
		logger.InfoContext(ctx, "Duplicate message skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store %s: %w", msg.Kind, err)
	}
	logger.InfoContext(ctx, "Record stored", log.FieldRecordID, id)

	// The row is committed; a redelivery would be skipped as a duplicate.
	if w.mirror != nil {
		ref, merr := mirror()
		if merr != nil {
			logger.ErrorContext(ctx, "Failed to mirror record", log.FieldRecordID, id, log.FieldError, merr)
			return nil
		}
		logger.InfoContext(ctx, "Record mirrored", log.FieldRecordID, id, "sheets_ref", ref)
	}
	return nil
}
