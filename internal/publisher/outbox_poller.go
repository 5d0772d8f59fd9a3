package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/repository"
)

// messageWriter is the slice of kafka.Writer the poller needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller drains pending outbox events into a kafka topic. Events
// are written by services inside their storage transaction; publishing
// is at-least-once, so consumers must deduplicate on event_id.
type OutboxPoller struct {
	tick      time.Duration
	batchSize int64
	repo      repository.OutboxRepository
	writer    messageWriter
}

func NewOutboxPoller(repo repository.OutboxRepository, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		repo:      repo,
		writer:    w,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	defer p.writer.Close()

	for {
		select {
		case <-ticker.C:
			p.processPendingEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processPendingEvents(ctx context.Context) {
	events, err := p.repo.FetchPending(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.EventID, errPublish)
			continue
		}

		if errMark := p.repo.MarkSent(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as sent id = %v with error %v", event.EventID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id, keeps per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
