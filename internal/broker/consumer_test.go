package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/npezzotti/go-classroom/internal/stats"
	"github.com/npezzotti/go-classroom/internal/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type ackResult struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	results []ackResult
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, ackResult{tag: tag, acked: true})
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, ackResult{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, ackResult{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) get() []ackResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ackResult(nil), f.results...)
}

type fakeConsumeChannel struct {
	deliveries chan amqp.Delivery
	prefetch   int
	consumeErr error
}

func (f *fakeConsumeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeConsumeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.deliveries, nil
}

func TestConsumer_Run(t *testing.T) {
	retry := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}

	t.Run("acks handled messages and rejects exhausted ones", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 3)}
		ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
		ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("fail")}
		close(ch.deliveries)

		var (
			mu       sync.Mutex
			attempts = make(map[string]int)
		)
		handler := func(ctx context.Context, d amqp.Delivery) error {
			mu.Lock()
			defer mu.Unlock()
			attempts[string(d.Body)]++
			if string(d.Body) == "fail" {
				return errors.New("handler failed")
			}
			return nil
		}

		c := NewConsumer(testutil.TestLogger(t), stats.NewMockStatsUpdater(), "q", 2, retry, handler)
		err := c.Run(context.Background(), ch)
		assert.ErrorIs(t, err, ErrDeliveriesClosed)
		assert.Equal(t, 2, ch.prefetch, "expected prefetch to match concurrency")

		assert.Equal(t, 1, attempts["ok"])
		assert.Equal(t, 3, attempts["fail"], "expected bounded retries")

		results := ack.get()
		assert.Len(t, results, 2)
		for _, r := range results {
			switch r.tag {
			case 1:
				assert.True(t, r.acked, "expected successful message to be acked")
			case 2:
				assert.False(t, r.acked, "expected failed message to be rejected")
				assert.False(t, r.requeue, "expected failed message not to be requeued")
			}
		}
	})

	t.Run("permanent failures are rejected without retry", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 1)}
		ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7}
		close(ch.deliveries)

		calls := 0
		c := NewConsumer(testutil.TestLogger(t), stats.NewMockStatsUpdater(), "q", 1, retry, func(ctx context.Context, d amqp.Delivery) error {
			calls++
			return Permanent(errors.New("malformed"))
		})

		_ = c.Run(context.Background(), ch)
		assert.Equal(t, 1, calls)
		assert.Equal(t, []ackResult{{tag: 7}}, ack.get())
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery)}
		c := NewConsumer(testutil.TestLogger(t), stats.NewMockStatsUpdater(), "q", 3, retry, func(ctx context.Context, d amqp.Delivery) error {
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- c.Run(ctx, ch) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("timeout: consumer did not stop")
		}
	})

	t.Run("consume error", func(t *testing.T) {
		ch := &fakeConsumeChannel{consumeErr: errors.New("no queue")}
		c := NewConsumer(testutil.TestLogger(t), stats.NewMockStatsUpdater(), "q", 1, retry, nil)
		assert.ErrorContains(t, c.Run(context.Background(), ch), "no queue")
	})
}
