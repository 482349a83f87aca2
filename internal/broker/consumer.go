package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/npezzotti/go-classroom/internal/stats"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed")

type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

// BodyHandler adapts a handler of raw message bodies.
func BodyHandler(h func(ctx context.Context, body []byte) error) HandlerFunc {
	return func(ctx context.Context, d amqp.Delivery) error {
		return h(ctx, d.Body)
	}
}

type consumeChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer services one queue with a pool of workers. A delivery that still
// fails after the retry policy is exhausted is rejected without requeueing,
// which moves it to the queue's dead-letter queue when one is configured.
type Consumer struct {
	Queue       string
	Concurrency int
	Retry       RetryPolicy
	Handler     HandlerFunc
	log         *log.Logger
	stats       stats.StatsProvider
}

func NewConsumer(logger *log.Logger, sp stats.StatsProvider, queue string, concurrency int, retry RetryPolicy, h HandlerFunc) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Consumer{
		Queue:       queue,
		Concurrency: concurrency,
		Retry:       retry,
		Handler:     h,
		log:         logger,
		stats:       sp,
	}
}

// Run consumes until ctx is done or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context, ch consumeChannel) error {
	if err := ch.Qos(c.Concurrency, 0, false); err != nil {
		return fmt.Errorf("qos %q: %w", c.Queue, err)
	}

	deliveries, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", c.Queue, err)
	}

	c.log.Printf("consuming %q with %d workers", c.Queue, c.Concurrency)

	var (
		wg     sync.WaitGroup
		closed = make(chan struct{})
		once   sync.Once
	)
	for i := 0; i < c.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.work(ctx, deliveries) {
				once.Do(func() { close(closed) })
			}
		}()
	}
	wg.Wait()

	select {
	case <-closed:
		if ctx.Err() == nil {
			return fmt.Errorf("%s: %w", c.Queue, ErrDeliveriesClosed)
		}
	default:
	}

	return nil
}

// work returns false when the delivery channel was closed.
func (c *Consumer) work(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return false
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.Retry.Do(ctx, func() error {
		return c.Handler(ctx, d)
	})
	if err != nil && ctx.Err() != nil {
		// shutting down, hand the message back to the broker
		if err := d.Nack(false, true); err != nil {
			c.log.Printf("requeue message from %q: %v", c.Queue, err)
		}
		return
	}
	if err != nil {
		c.log.Printf("giving up on message from %q: %v", c.Queue, err)
		c.stats.Incr(stats.MessagesDeadLettered)
		if err := d.Reject(false); err != nil {
			c.log.Printf("reject message from %q: %v", c.Queue, err)
		}
		return
	}

	c.stats.Incr(stats.MessagesConsumed)
	if err := d.Ack(false); err != nil {
		c.log.Printf("ack message from %q: %v", c.Queue, err)
	}
}
