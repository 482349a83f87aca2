package command

import (
	"context"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/events"
)

// eventSink hands events to the publisher. A failed publish is logged and
// otherwise ignored: the state change it announces is already committed.
type eventSink struct {
	pub broker.Publisher
	log *log.Logger
}

func (s eventSink) broadcast(ctx context.Context, routingKey string, ev events.Event) {
	s.send(ctx, broker.TopicExchange, routingKey, ev)
}

func (s eventSink) fanout(ctx context.Context, exchange string, ev events.Event) {
	s.send(ctx, exchange, "", ev)
}

func (s eventSink) send(ctx context.Context, exchange, routingKey string, ev events.Event) {
	if err := s.pub.Publish(context.WithoutCancel(ctx), exchange, routingKey, ev); err != nil {
		s.log.Printf("publish %s for room %q to %q/%q: %v", ev.Type, ev.RoomId, exchange, routingKey, err)
	}
}
