package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/repository"
)

type mockOutboxRepo struct {
	m      sync.Mutex
	events []*repository.OutboxEvent
	err    error
}

func (m *mockOutboxRepo) Append(_ context.Context, event *repository.OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	event.ID = primitive.NewObjectID()
	m.events = append(m.events, event)
	return nil
}

func (m *mockOutboxRepo) FetchPending(context.Context, int64) ([]*repository.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*repository.OutboxEvent
	for _, e := range m.events {
		if e.SentAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxRepo) MarkSent(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	now := time.Now()
	for _, e := range m.events {
		if e.ID == id {
			e.SentAt = &now
			return nil
		}
	}
	return errors.New("event not found")
}

func (m *mockOutboxRepo) pendingCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	n := 0
	for _, e := range m.events {
		if e.SentAt == nil {
			n++
		}
	}
	return n
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	err      error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func newPollerFixture(repo *mockOutboxRepo, writer *mockWriter) *OutboxPoller {
	return &OutboxPoller{
		tick:      time.Millisecond,
		batchSize: 100,
		repo:      repo,
		writer:    writer,
	}
}

func seedEvent(t *testing.T, repo *mockOutboxRepo, aggregateID string) *repository.OutboxEvent {
	t.Helper()
	event := &repository.OutboxEvent{
		EventID:     "evt-" + aggregateID,
		EventType:   "order.created",
		AggregateID: aggregateID,
		Payload:     []byte(`{"order_id":"` + aggregateID + `"}`),
	}
	require.NoError(t, repo.Append(context.Background(), event))
	return event
}

func TestProcessPendingEvents_PublishesAndMarksSent(t *testing.T) {
	repo := &mockOutboxRepo{}
	seedEvent(t, repo, "order-1")
	seedEvent(t, repo, "order-2")
	writer := &mockWriter{}

	poller := newPollerFixture(repo, writer)
	poller.processPendingEvents(context.Background())

	assert.Equal(t, 0, repo.pendingCount())
	require.Len(t, writer.messages, 2)
	assert.Equal(t, []byte("order-1"), writer.messages[0].Key)
	require.Len(t, writer.messages[0].Headers, 2)
	assert.Equal(t, "event_type", writer.messages[0].Headers[0].Key)
	assert.Equal(t, []byte("order.created"), writer.messages[0].Headers[0].Value)
}

func TestProcessPendingEvents_PublishFailureKeepsEventPending(t *testing.T) {
	repo := &mockOutboxRepo{}
	seedEvent(t, repo, "order-1")
	writer := &mockWriter{err: errors.New("broker down")}

	poller := newPollerFixture(repo, writer)
	poller.processPendingEvents(context.Background())

	// event stays pending and is retried on the next tick
	assert.Equal(t, 1, repo.pendingCount())

	writer.m.Lock()
	writer.err = nil
	writer.m.Unlock()
	poller.processPendingEvents(context.Background())
	assert.Equal(t, 0, repo.pendingCount())
}

func TestProcessPendingEvents_FetchErrorIsNonFatal(t *testing.T) {
	repo := &mockOutboxRepo{err: errors.New("db down")}
	writer := &mockWriter{}

	poller := newPollerFixture(repo, writer)
	poller.processPendingEvents(context.Background())

	assert.Empty(t, writer.messages)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := &mockOutboxRepo{}
	seedEvent(t, repo, "order-1")
	writer := &mockWriter{}

	poller := newPollerFixture(repo, writer)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return repo.pendingCount() == 0
	}, time.Second, 5*time.Millisecond, "event was not published")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
