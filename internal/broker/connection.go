package broker

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

const dialTimeout = time.Minute

// Dial connects to the broker, retrying with backoff until dialTimeout
// elapses or ctx is done.
func Dial(ctx context.Context, url string, logger *log.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = dialTimeout

	err := backoff.Retry(func() error {
		c, err := amqp.Dial(url)
		if err != nil {
			logger.Printf("waiting for broker: %v", err)
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, err
	}

	return conn, nil
}
