package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneygr/internal/amqp"
	"moneygr/internal/core"
	"moneygr/internal/inout/memory"
)

func waitTask(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "task did not finish")
	return err
}

func TestSubmitterCompletes(t *testing.T) {
	var calls atomic.Int32
	s := NewOutcomeSubmitter(PublisherFunc[core.Outcome](func(context.Context, core.Outcome) error {
		calls.Add(1)
		return nil
	}), time.Second, nil)

	task := s.Submit(context.Background(), validOutcome())
	require.NoError(t, waitTask(t, task))
	assert.Equal(t, int32(1), calls.Load())

	select {
	case <-task.Done():
	default:
		t.Fatal("Done must be closed after completion")
	}
}

func TestSubmitterReportsFailure(t *testing.T) {
	boom := errors.New("broker down")
	s := NewIncomeSubmitter(PublisherFunc[core.Income](func(context.Context, core.Income) error {
		return boom
	}), time.Second, nil)

	err := waitTask(t, s.Submit(context.Background(), validIncome()))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "submit income")
}

func TestSubmitterTimeout(t *testing.T) {
	s := NewOutcomeSubmitter(PublisherFunc[core.Outcome](func(ctx context.Context, _ core.Outcome) error {
		<-ctx.Done()
		return ctx.Err()
	}), 20*time.Millisecond, nil)

	err := waitTask(t, s.Submit(context.Background(), validOutcome()))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitterOutlivesRequestContext(t *testing.T) {
	release := make(chan struct{})
	s := NewOutcomeSubmitter(PublisherFunc[core.Outcome](func(ctx context.Context, _ core.Outcome) error {
		<-release
		return ctx.Err()
	}), time.Second, nil)

	reqCtx, cancel := context.WithCancel(context.Background())
	task := s.Submit(reqCtx, validOutcome())
	cancel()
	close(release)

	assert.NoError(t, waitTask(t, task))
}

func TestSubmitterWaitDrains(t *testing.T) {
	release := make(chan struct{})
	s := NewOutcomeSubmitter(PublisherFunc[core.Outcome](func(context.Context, core.Outcome) error {
		<-release
		return nil
	}), time.Second, nil)
	s.Submit(context.Background(), validOutcome())

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(short), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestTaskErrBeforeDone(t *testing.T) {
	task := newTask()
	assert.NoError(t, task.Err())
	task.finish(errors.New("x"))
	task.finish(nil)
	assert.EqualError(t, task.Err(), "x")
}

type recordingPublisher struct {
	msgs []*amqp.RecordMessage
}

func (r *recordingPublisher) Publish(_ context.Context, m *amqp.RecordMessage) error {
	r.msgs = append(r.msgs, m)
	return nil
}

func TestAMQPPublishers(t *testing.T) {
	rec := &recordingPublisher{}
	ctx := context.Background()

	require.NoError(t, AMQPOutcomes(rec).Publish(ctx, validOutcome()))
	require.NoError(t, AMQPIncomes(rec).Publish(ctx, validIncome()))

	require.Len(t, rec.msgs, 2)
	assert.Equal(t, amqp.KindOutcome, rec.msgs[0].Kind)
	assert.Equal(t, "milk", rec.msgs[0].OutcomeRecord().Name)
	assert.Equal(t, amqp.KindIncome, rec.msgs[1].Kind)
	assert.NotEqual(t, rec.msgs[0].MessageID, rec.msgs[1].MessageID)
}

func TestDirectPublishers(t *testing.T) {
	store := memory.New(testParents(), nil, nil)
	ctx := context.Background()

	require.NoError(t, DirectOutcomes(store).Publish(ctx, validOutcome()))
	require.NoError(t, DirectIncomes(store).Publish(ctx, validIncome()))

	day := core.NewDate(2024, 1, 2)
	outcomes, err := store.FindByOutcomeDate(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 1, outcomes[0].ParentCategoryID)
}
