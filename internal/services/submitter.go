package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneygr/internal/amqp"
	"moneygr/internal/core"
	"moneygr/internal/inout"
	"moneygr/internal/log"
)

// Publisher delivers one record to wherever it is persisted.
type Publisher[T any] interface {
	Publish(ctx context.Context, record T) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(ctx context.Context, record T) error

func (f PublisherFunc[T]) Publish(ctx context.Context, record T) error { return f(ctx, record) }

// MessagePublisher is the part of the AMQP client used for submission.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *amqp.RecordMessage) error
}

// AMQPOutcomes publishes outcomes as persistent record messages.
func AMQPOutcomes(p MessagePublisher) Publisher[core.Outcome] {
	return PublisherFunc[core.Outcome](func(ctx context.Context, o core.Outcome) error {
		return p.Publish(ctx, amqp.NewOutcomeMessage(o))
	})
}

// AMQPIncomes publishes incomes as persistent record messages.
func AMQPIncomes(p MessagePublisher) Publisher[core.Income] {
	return PublisherFunc[core.Income](func(ctx context.Context, i core.Income) error {
		return p.Publish(ctx, amqp.NewIncomeMessage(i))
	})
}

// DirectOutcomes writes outcomes straight to a store.
func DirectOutcomes(w inout.OutcomeWriter) Publisher[core.Outcome] {
	return PublisherFunc[core.Outcome](func(ctx context.Context, o core.Outcome) error {
		_, err := w.SaveOutcome(ctx, o)
		return err
	})
}

// DirectIncomes writes incomes straight to a store.
func DirectIncomes(w inout.IncomeWriter) Publisher[core.Income] {
	return PublisherFunc[core.Income](func(ctx context.Context, i core.Income) error {
		_, err := w.SaveIncome(ctx, i)
		return err
	})
}

// Submitter runs each publish on its own goroutine, bounded by a timeout,
// and reports the outcome through a Task.
type Submitter[T any] struct {
	kind      string
	publisher Publisher[T]
	timeout   time.Duration
	logger    *log.Logger
	describe  func(T) log.Fields

	wg sync.WaitGroup
}

func newSubmitter[T any](kind string, p Publisher[T], timeout time.Duration, logger *log.Logger, describe func(T) log.Fields) *Submitter[T] {
	if logger == nil {
		logger = log.Discard()
	}
	return &Submitter[T]{
		kind:      kind,
		publisher: p,
		timeout:   timeout,
		logger:    logger.WithComponent(log.ComponentSubmitter),
		describe:  describe,
	}
}

func NewOutcomeSubmitter(p Publisher[core.Outcome], timeout time.Duration, logger *log.Logger) *Submitter[core.Outcome] {
	return newSubmitter("outcome", p, timeout, logger, func(o core.Outcome) log.Fields {
		return log.NewFields().WithRecord("outcome", o.Name, o.Date.String(), o.LineTotal())
	})
}

func NewIncomeSubmitter(p Publisher[core.Income], timeout time.Duration, logger *log.Logger) *Submitter[core.Income] {
	return newSubmitter("income", p, timeout, logger, func(i core.Income) log.Fields {
		return log.NewFields().WithRecord("income", i.Name, i.Date.String(), int64(i.Amount))
	})
}

// Submit starts delivering record and returns immediately. The submission
// outlives the request: it keeps ctx values but not its cancellation.
func (s *Submitter[T]) Submit(ctx context.Context, record T) *Task {
	task := newTask()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		runCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		err := s.publisher.Publish(runCtx, record)
		fields := s.describe(record).WithOperation(log.OpSubmit)
		fields["elapsed"] = time.Since(start)
		if err != nil {
			err = fmt.Errorf("submit %s: %w", s.kind, err)
			s.logger.ErrorContext(runCtx, "Submission failed", fields.WithError(err).Args()...)
		} else {
			s.logger.InfoContext(runCtx, "Submission completed", fields.Args()...)
		}
		task.finish(err)
	}()
	return task
}

// Wait blocks until every submission started so far has finished or ctx
// is done.
func (s *Submitter[T]) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
