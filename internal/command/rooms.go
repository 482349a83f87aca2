package command

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/types"
)

// RoomHandler owns the room aggregate of the core service. Every change is
// announced on the room's entity exchange so the comment service can follow.
type RoomHandler struct {
	repo       database.CoreRepository
	perms      RoomOwnership
	serializer *broker.EntitySerializer
	sink       eventSink
	log        *log.Logger
	newId      func() string
}

func NewRoomHandler(logger *log.Logger, repo database.CoreRepository, perms RoomOwnership, serializer *broker.EntitySerializer, pub broker.Publisher) *RoomHandler {
	return &RoomHandler{
		repo:       repo,
		perms:      perms,
		serializer: serializer,
		sink:       eventSink{pub: pub, log: logger},
		log:        logger,
		newId:      uuid.NewString,
	}
}

func (h *RoomHandler) Room(ctx context.Context, id string) (database.Room, error) {
	room, err := h.repo.GetRoom(ctx, id)
	if err != nil {
		return database.Room{}, storeError("get", "room", id, err)
	}
	return room, nil
}

// CreateRoom opens a new room owned by ownerId.
func (h *RoomHandler) CreateRoom(ctx context.Context, ownerId string) (database.Room, error) {
	if ownerId == "" {
		return database.Room{}, fmt.Errorf("room needs an owner: %w", ErrValidation)
	}

	id := h.newId()
	room, err := h.repo.CreateRoom(ctx, database.Room{Id: id, OwnerId: ownerId})
	if err != nil {
		return database.Room{}, storeError("create", "room", id, err)
	}

	announceRoom(ctx, h.serializer, h.sink, events.RoomCreated, "AfterCreation", broker.RoomAfterCreationExchange, room)
	return room, nil
}

func (h *RoomHandler) DeleteRoom(ctx context.Context, id string) error {
	if !h.perms.IsRoomOwner(ctx, id) {
		return forbidden("delete room")
	}

	room, err := h.repo.GetRoom(ctx, id)
	if err != nil {
		return storeError("get", "room", id, err)
	}

	if err := h.repo.DeleteRoom(ctx, id); err != nil {
		return storeError("delete", "room", id, err)
	}

	announceRoom(ctx, h.serializer, h.sink, events.RoomDeleted, "AfterDeletion", broker.RoomAfterDeletionExchange, room)
	return nil
}

// DuplicateRoom copies a room for its owner. Moderators and feedback stay
// behind. Only RoomDuplicated is announced for the copy: the comment service
// derives the copy's settings from the original instead of defaults.
func (h *RoomHandler) DuplicateRoom(ctx context.Context, id string) (database.Room, error) {
	if !h.perms.IsRoomOwner(ctx, id) {
		return database.Room{}, forbidden("duplicate room")
	}

	original, err := h.repo.GetRoom(ctx, id)
	if err != nil {
		return database.Room{}, storeError("get", "room", id, err)
	}

	copyId := h.newId()
	room, err := h.repo.CreateRoom(ctx, database.Room{Id: copyId, OwnerId: original.OwnerId})
	if err != nil {
		return database.Room{}, storeError("create", "room", copyId, err)
	}

	h.sink.fanout(ctx, broker.RoomDuplicatedExchange, events.New(events.RoomDuplicated, room.Id,
		events.RoomDuplicatedPayload{OriginalRoomId: original.Id, DuplicatedRoomId: room.Id}))

	return room, nil
}

func (h *RoomHandler) AddModerator(ctx context.Context, roomId, userId string) (database.Room, error) {
	return h.changeModerators(ctx, roomId, userId, "add moderator", h.repo.AddModerator)
}

func (h *RoomHandler) RemoveModerator(ctx context.Context, roomId, userId string) (database.Room, error) {
	return h.changeModerators(ctx, roomId, userId, "remove moderator", h.repo.RemoveModerator)
}

func (h *RoomHandler) changeModerators(ctx context.Context, roomId, userId, action string,
	change func(ctx context.Context, roomId, userId string) (database.Room, error)) (database.Room, error) {
	if userId == "" {
		return database.Room{}, fmt.Errorf("%s: missing user: %w", action, ErrValidation)
	}
	if !h.perms.IsRoomOwner(ctx, roomId) {
		return database.Room{}, forbidden(action)
	}

	room, err := change(ctx, roomId, userId)
	if err != nil {
		return database.Room{}, storeError("update", "room", roomId, err)
	}

	announceRoom(ctx, h.serializer, h.sink, events.RoomPatched, "AfterPatch", broker.RoomAfterPatchExchange, room)
	return room, nil
}

// announceRoom fans out room through the event filter. A room that cannot be
// serialized is logged and not announced.
func announceRoom(ctx context.Context, serializer *broker.EntitySerializer, sink eventSink, kind events.Kind, eventType, exchange string, room database.Room) {
	ev, err := serializer.Event(kind, "Room", eventType, room.Id, types.Room{
		Id:             room.Id,
		Rev:            room.Rev,
		OwnerId:        room.OwnerId,
		Moderators:     room.Moderators,
		FeedbackLocked: room.FeedbackLocked,
		CreatedAt:      room.CreatedAt,
		UpdatedAt:      room.UpdatedAt,
	})
	if err != nil {
		sink.log.Printf("serialize room %q: %v", room.Id, err)
		return
	}
	sink.fanout(ctx, exchange, ev)
}
