// Package broker declares the AMQP topology the services rely on and
// provides the publisher and the retrying consumer used on top of it.
package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	deadLetterExchangeArg   = "x-dead-letter-exchange"
	deadLetterRoutingKeyArg = "x-dead-letter-routing-key"
	deadLetterSuffix        = ".dlq"
)

type Exchange struct {
	Name string
	Kind string
}

type Queue struct {
	Name string
	Args amqp.Table
}

type Binding struct {
	Queue    string
	Exchange string
	Key      string
}

// Topology is the set of exchanges, queues and bindings a service declares
// at startup.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// Declarer is the subset of *amqp.Channel used to apply a Topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func DeadLetterQueueName(queue string) string {
	return queue + deadLetterSuffix
}

// EventStream is a fanout exchange with one durable queue whose rejected
// messages are dead-lettered to <queue>.dlq through the default exchange.
func EventStream(exchange, queue string) Topology {
	dlq := DeadLetterQueueName(queue)
	return Topology{
		Exchanges: []Exchange{{Name: exchange, Kind: amqp.ExchangeFanout}},
		Queues: []Queue{
			{
				Name: queue,
				Args: amqp.Table{
					deadLetterExchangeArg:   "",
					deadLetterRoutingKeyArg: dlq,
				},
			},
			{Name: dlq},
		},
		Bindings: []Binding{{Queue: queue, Exchange: exchange}},
	}
}

// CommandStream is a fanout exchange with one durable queue and no
// dead-lettering.
func CommandStream(exchange, queue string) Topology {
	return Topology{
		Exchanges: []Exchange{{Name: exchange, Kind: amqp.ExchangeFanout}},
		Queues:    []Queue{{Name: queue}},
		Bindings:  []Binding{{Queue: queue, Exchange: exchange}},
	}
}

// PublishOnly declares a fanout exchange whose queues belong to other
// services.
func PublishOnly(exchange string) Topology {
	return Topology{
		Exchanges: []Exchange{{Name: exchange, Kind: amqp.ExchangeFanout}},
	}
}

// Merge concatenates topologies, keeping the first declaration of any
// exchange, queue or binding that appears more than once.
func Merge(ts ...Topology) Topology {
	var (
		out       Topology
		exchanges = make(map[string]struct{})
		queues    = make(map[string]struct{})
		bindings  = make(map[Binding]struct{})
	)

	for _, t := range ts {
		for _, e := range t.Exchanges {
			if _, ok := exchanges[e.Name]; ok {
				continue
			}
			exchanges[e.Name] = struct{}{}
			out.Exchanges = append(out.Exchanges, e)
		}
		for _, q := range t.Queues {
			if _, ok := queues[q.Name]; ok {
				continue
			}
			queues[q.Name] = struct{}{}
			out.Queues = append(out.Queues, q)
		}
		for _, b := range t.Bindings {
			if _, ok := bindings[b]; ok {
				continue
			}
			bindings[b] = struct{}{}
			out.Bindings = append(out.Bindings, b)
		}
	}

	return out
}

// Declare applies t. Declarations are idempotent on the broker as long as
// the arguments of existing entities do not change.
func Declare(d Declarer, t Topology) error {
	for _, e := range t.Exchanges {
		if err := d.ExchangeDeclare(e.Name, e.Kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", e.Name, err)
		}
	}

	for _, q := range t.Queues {
		if _, err := d.QueueDeclare(q.Name, true, false, false, false, q.Args); err != nil {
			return fmt.Errorf("declare queue %q: %w", q.Name, err)
		}
	}

	for _, b := range t.Bindings {
		if err := d.QueueBind(b.Queue, b.Key, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %q to %q: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}
