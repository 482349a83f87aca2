package command

import (
	"context"
	"fmt"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/permission"
)

type CommandFunc func(ctx context.Context, in events.Inbound) error

// Dispatcher routes broker messages to handlers by envelope type. Errors a
// retry cannot fix are marked permanent so the consumer dead-letters them at
// once.
type Dispatcher struct {
	handlers map[events.Kind]CommandFunc
	log      *log.Logger
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[events.Kind]CommandFunc),
		log:      logger,
	}
}

func (d *Dispatcher) Register(kind events.Kind, fn CommandFunc) {
	d.handlers[kind] = fn
}

// Handle decodes an envelope from body and dispatches it.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	in, err := events.Decode(body)
	if err != nil {
		return broker.Permanent(err)
	}

	return d.Dispatch(ctx, in)
}

func (d *Dispatcher) Dispatch(ctx context.Context, in events.Inbound) error {
	fn, ok := d.handlers[in.Type]
	if !ok {
		return broker.Permanent(fmt.Errorf("no handler for %q", in.Type))
	}

	err := fn(ctx, in)
	if err != nil && IsDomainError(err) {
		return broker.Permanent(fmt.Errorf("%s: %w", in.Type, err))
	}
	return err
}

func decode(in events.Inbound, v any) error {
	if err := in.DecodePayload(v); err != nil {
		return broker.Permanent(err)
	}
	return nil
}

// RegisterVoteCommands wires the vote commands sent to comment.command. The
// voting user is taken from the payload.
func RegisterVoteCommands(d *Dispatcher, votes *VoteHandler) {
	vote := func(op func(context.Context, string, string) error) CommandFunc {
		return func(ctx context.Context, in events.Inbound) error {
			var p events.VotePayload
			if err := decode(in, &p); err != nil {
				return err
			}
			return op(permission.WithUserId(ctx, p.UserId), p.UserId, p.CommentId)
		}
	}

	d.Register(events.Upvote, vote(votes.Upvote))
	d.Register(events.Downvote, vote(votes.Downvote))
	d.Register(events.ResetVote, vote(votes.ResetVote))
}

// RegisterRoomLifecycle wires the room events published by the core service.
func RegisterRoomLifecycle(d *Dispatcher, comments *CommentHandler, settings *SettingsHandler) {
	d.Register(events.RoomCreated, func(ctx context.Context, in events.Inbound) error {
		var p events.RoomPayload
		if err := decode(in, &p); err != nil {
			return err
		}
		roomId := roomIdOf(in, p.Id)
		if roomId == "" {
			return broker.Permanent(fmt.Errorf("room created: missing room id"))
		}
		_, err := settings.InitSettings(ctx, roomId)
		return err
	})

	d.Register(events.RoomDeleted, func(ctx context.Context, in events.Inbound) error {
		var p events.RoomPayload
		if err := decode(in, &p); err != nil {
			return err
		}
		roomId := roomIdOf(in, p.Id)
		if roomId == "" {
			return broker.Permanent(fmt.Errorf("room deleted: missing room id"))
		}
		n, err := comments.PurgeRoom(ctx, roomId)
		if err == nil {
			d.log.Printf("purged %d comments of deleted room %q", n, roomId)
		}
		return err
	})

	d.Register(events.RoomDuplicated, func(ctx context.Context, in events.Inbound) error {
		var p events.RoomDuplicatedPayload
		if err := decode(in, &p); err != nil {
			return err
		}
		if p.OriginalRoomId == "" || p.DuplicatedRoomId == "" {
			return broker.Permanent(fmt.Errorf("room duplicated: missing room id"))
		}
		_, err := settings.CopySettings(ctx, p.OriginalRoomId, p.DuplicatedRoomId)
		return err
	})
}

// RegisterFeedbackCommands wires the feedback command queues of the core
// service.
func RegisterFeedbackCommands(d *Dispatcher, feedback *FeedbackHandler) {
	d.Register(events.CreateFeedback, func(ctx context.Context, in events.Inbound) error {
		var p events.CreateFeedbackPayload
		if err := decode(in, &p); err != nil {
			return err
		}
		return feedback.CreateFeedback(permission.WithUserId(ctx, p.UserId), in.RoomId, p.UserId, p.Value)
	})

	d.Register(events.ResetFeedback, func(ctx context.Context, in events.Inbound) error {
		var p events.ResetFeedbackPayload
		if len(in.Payload) > 0 {
			if err := decode(in, &p); err != nil {
				return err
			}
		}
		return feedback.ResetFeedback(ctx, roomIdOf(in, p.RoomId))
	})
}

// roomIdOf prefers the envelope's room id over the one in the payload.
func roomIdOf(in events.Inbound, fromPayload string) string {
	if in.RoomId != "" {
		return in.RoomId
	}
	return fromPayload
}
