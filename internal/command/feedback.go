package command

import (
	"context"
	"fmt"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/types"
)

// FeedbackHandler records live feedback. Each user holds one value in
// 0..FeedbackValueCount-1; the last one sent wins.
type FeedbackHandler struct {
	repo       database.CoreRepository
	perms      RoomModeration
	serializer *broker.EntitySerializer
	sink       eventSink
	log        *log.Logger
}

func NewFeedbackHandler(logger *log.Logger, repo database.CoreRepository, perms RoomModeration, serializer *broker.EntitySerializer, pub broker.Publisher) *FeedbackHandler {
	return &FeedbackHandler{
		repo:       repo,
		perms:      perms,
		serializer: serializer,
		sink:       eventSink{pub: pub, log: logger},
		log:        logger,
	}
}

// CreateFeedback is ignored while the room's feedback is locked.
func (h *FeedbackHandler) CreateFeedback(ctx context.Context, roomId, userId string, value int) error {
	if userId == "" || value < 0 || value >= database.FeedbackValueCount {
		return fmt.Errorf("feedback value %d from %q: %w", value, userId, ErrValidation)
	}

	room, err := h.repo.GetRoom(ctx, roomId)
	if err != nil {
		return storeError("get", "room", roomId, err)
	}
	if room.FeedbackLocked {
		return nil
	}

	if err := h.repo.UpsertFeedback(ctx, roomId, userId, value); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	values, err := h.repo.GetFeedbackValues(ctx, roomId)
	if err != nil {
		return fmt.Errorf("get feedback of %q: %w", roomId, err)
	}

	h.sink.broadcast(ctx, events.TopicFor(roomId, true, events.FeedbackChanged),
		events.New(events.FeedbackChanged, roomId, events.FeedbackChangedPayload{Values: values}))

	return nil
}

func (h *FeedbackHandler) ResetFeedback(ctx context.Context, roomId string) error {
	if _, err := h.repo.GetRoom(ctx, roomId); err != nil {
		return storeError("get", "room", roomId, err)
	}

	if err := h.repo.DeleteFeedback(ctx, roomId); err != nil {
		return fmt.Errorf("reset feedback of %q: %w", roomId, err)
	}

	h.sink.broadcast(ctx, events.TopicFor(roomId, true, events.FeedbackReset),
		events.New(events.FeedbackReset, roomId, events.EmptyPayload{}))

	return nil
}

// Feedback returns the room's current distribution and lock state.
func (h *FeedbackHandler) Feedback(ctx context.Context, roomId string) (types.Feedback, error) {
	room, err := h.repo.GetRoom(ctx, roomId)
	if err != nil {
		return types.Feedback{}, storeError("get", "room", roomId, err)
	}

	values, err := h.repo.GetFeedbackValues(ctx, roomId)
	if err != nil {
		return types.Feedback{}, fmt.Errorf("get feedback of %q: %w", roomId, err)
	}

	return types.Feedback{RoomId: roomId, Values: values, Locked: room.FeedbackLocked}, nil
}

// SetFeedbackLocked patches the room's feedback lock. Only an actual flip is
// announced, to clients as FeedbackStopped/FeedbackStarted and to other
// services as a room patch.
func (h *FeedbackHandler) SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (database.Room, error) {
	if !h.perms.IsOwnerOrAnyTypeOfModeratorForRoom(ctx, roomId) {
		return database.Room{}, forbidden("lock feedback")
	}

	current, err := h.repo.GetRoom(ctx, roomId)
	if err != nil {
		return database.Room{}, storeError("get", "room", roomId, err)
	}
	if current.FeedbackLocked == locked {
		return current, nil
	}

	room, err := h.repo.SetFeedbackLocked(ctx, roomId, locked)
	if err != nil {
		return database.Room{}, storeError("update", "room", roomId, err)
	}

	kind := events.FeedbackStarted
	if room.FeedbackLocked {
		kind = events.FeedbackStopped
	}
	h.sink.broadcast(ctx, events.TopicFor(roomId, true, kind), events.New(kind, roomId, events.EmptyPayload{}))

	announceRoom(ctx, h.serializer, h.sink, events.RoomPatched, "AfterPatch", broker.RoomAfterPatchExchange, room)

	return room, nil
}
