package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher buffers events in memory and writes them from a single
// goroutine. Events are keyed by correlation id so every event of one order
// or session lands on the same partition.
type KafkaPublisher struct {
	w        messageWriter
	producer string
	inbox    chan kafka.Message
	done     chan struct{}
	once     sync.Once
}

func NewKafkaPublisher(brokers []string, topic, producer string, buf int) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, producer, buf)
}

func newKafkaPublisher(w messageWriter, producer string, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *KafkaPublisher) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			logger.ExternalServiceCall("kafka", "WriteMessages", "key", string(m.Key))
			err := p.w.WriteMessages(context.Background(), m)
			logger.ExternalServiceResult("kafka", "WriteMessages", err, "key", string(m.Key))
		}
		if err := p.w.Close(); err != nil {
			logger.Error("Kafka writer close failed", "error", err)
		}
	}()
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	env, err := NewEnvelope(p.producer, e)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build event envelope", "type", e.Type, "error", err)
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to encode event envelope", "type", e.Type, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	select {
	case p.inbox <- msg:
	default:
		metrics.EventsDroppedTotal.Inc()
		logger.WarnContext(ctx, "Event buffer full, dropping event", "type", e.Type, "key", e.Key)
	}
}

// Close flushes buffered events and waits for the writer to shut down.
// Publish must not be called after Close.
func (p *KafkaPublisher) Close() {
	p.once.Do(func() { close(p.inbox) })
	<-p.done
}
