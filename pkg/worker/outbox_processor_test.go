package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository/fake"
	"github.com/carebridge/booking-api/pkg/logger"
	"github.com/carebridge/booking-api/pkg/metrics"
)

// Shared instance: promauto registers on the default registry, a second
// NewMetrics call with the same namespace would panic.
var testMetrics = metrics.NewMetrics("outbox_test")

type fakeBroker struct {
	mu        sync.Mutex
	published map[string][]interface{}
	failures  int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][]interface{})}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	b.published[channel] = append(b.published[channel], message)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func addEvent(t *testing.T, repo *fake.OutboxRepo, eventType string) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"k": "v"})
	require.NoError(t, err)
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func newProcessor(repo *fake.OutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  10 * time.Millisecond,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, quietLogger(), testMetrics)
}

func TestOutboxProcessor_PublishesPendingEvents(t *testing.T) {
	repo := fake.NewOutboxRepo()
	broker := newFakeBroker()
	created := addEvent(t, repo, model.EventAppointmentCreated)
	booked := addEvent(t, repo, model.EventIntegratedBooked)

	require.NoError(t, newProcessor(repo, broker).processEvents(context.Background()))

	assert.Len(t, broker.published[model.EventAppointmentCreated], 1)
	assert.Len(t, broker.published[model.EventIntegratedBooked], 1)
	assert.Equal(t, model.OutboxStatusProcessed, created.Status)
	assert.Equal(t, model.OutboxStatusProcessed, booked.Status)

	pending, err := repo.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxProcessor_RetriesTransientFailure(t *testing.T) {
	repo := fake.NewOutboxRepo()
	broker := newFakeBroker()
	broker.failures = 1
	event := addEvent(t, repo, model.EventAppointmentCreated)

	require.NoError(t, newProcessor(repo, broker).processEvents(context.Background()))

	assert.Len(t, broker.published[model.EventAppointmentCreated], 1)
	assert.Equal(t, model.OutboxStatusProcessed, event.Status)
}

func TestOutboxProcessor_MarksExhaustedEventFailed(t *testing.T) {
	repo := fake.NewOutboxRepo()
	broker := newFakeBroker()
	broker.failures = 10
	event := addEvent(t, repo, model.EventAppointmentCreated)

	require.NoError(t, newProcessor(repo, broker).processEvents(context.Background()))

	assert.Empty(t, broker.published)
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	require.NotNil(t, event.ErrorMessage)
	assert.Contains(t, *event.ErrorMessage, "broker unavailable")
}

func TestOutboxProcessor_StartStopsOnContextCancel(t *testing.T) {
	repo := fake.NewOutboxRepo()
	broker := newFakeBroker()
	addEvent(t, repo, model.EventAppointmentCreated)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newProcessor(repo, broker).Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		broker.mu.Lock()
		defer broker.mu.Unlock()
		return len(broker.published[model.EventAppointmentCreated]) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}
