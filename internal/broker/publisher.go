package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/npezzotti/go-classroom/internal/stats"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, msg any) error
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher JSON-encodes messages and publishes them as persistent
// deliveries. An AMQP channel must not be used concurrently, so publishes are
// serialized.
type AMQPPublisher struct {
	mu    sync.Mutex
	ch    publishChannel
	stats stats.StatsProvider
}

func NewAMQPPublisher(ch publishChannel, sp stats.StatsProvider) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, stats: sp}
}

func (p *AMQPPublisher) Publish(ctx context.Context, exchange, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		p.stats.Incr(stats.PublishFailures)
		return fmt.Errorf("encode message: %w", err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	p.mu.Unlock()

	if err != nil {
		p.stats.Incr(stats.PublishFailures)
		return fmt.Errorf("publish to %q/%q: %w", exchange, routingKey, err)
	}

	p.stats.Incr(stats.EventsPublished)
	return nil
}
