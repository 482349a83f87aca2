package permission

import (
	"context"
	"log"
	"slices"

	"github.com/npezzotti/go-classroom/internal/database"
)

type RoomSource interface {
	GetRoom(ctx context.Context, id string) (database.Room, error)
}

// CoreEvaluator decides from the room aggregate owned by the core service.
type CoreEvaluator struct {
	rooms RoomSource
	log   *log.Logger
}

func NewCoreEvaluator(logger *log.Logger, rooms RoomSource) *CoreEvaluator {
	return &CoreEvaluator{rooms: rooms, log: logger}
}

func (e *CoreEvaluator) IsOwnerOrAnyTypeOfModeratorForRoom(ctx context.Context, roomId string) bool {
	room, userId, ok := e.lookup(ctx, roomId)
	return ok && (room.OwnerId == userId || slices.Contains(room.Moderators, userId))
}

// IsRoomOwner admits only the room's creator.
func (e *CoreEvaluator) IsRoomOwner(ctx context.Context, roomId string) bool {
	room, userId, ok := e.lookup(ctx, roomId)
	return ok && room.OwnerId == userId
}

func (e *CoreEvaluator) lookup(ctx context.Context, roomId string) (database.Room, string, bool) {
	userId, ok := UserId(ctx)
	if !ok {
		return database.Room{}, "", false
	}

	room, err := e.rooms.GetRoom(ctx, roomId)
	if err != nil {
		e.log.Printf("get room %q: %v", roomId, err)
		return database.Room{}, "", false
	}

	return room, userId, true
}
