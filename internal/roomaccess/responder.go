// Package roomaccess lets the comment service rebuild a room's access list
// from the core service over a pair of request/response queues.
package roomaccess

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/permission"
	"github.com/npezzotti/go-classroom/internal/stats"
)

// Version is the schema version of sync responses.
const Version = "1"

type RoomSource interface {
	GetRoom(ctx context.Context, id string) (database.Room, error)
}

// Responder answers sync requests from the room aggregate. It keeps no state
// and may serve any number of requests concurrently.
type Responder struct {
	rooms RoomSource
	pub   broker.Publisher
	log   *log.Logger
	stats stats.StatsProvider
}

func NewResponder(logger *log.Logger, sp stats.StatsProvider, rooms RoomSource, pub broker.Publisher) *Responder {
	return &Responder{
		rooms: rooms,
		pub:   pub,
		log:   logger,
		stats: sp,
	}
}

// BuildResponse projects the room's owner and moderators into an access
// list. A missing room yields database.ErrNotFound.
func (r *Responder) BuildResponse(ctx context.Context, roomId string) (events.RoomAccessSyncResponsePayload, error) {
	room, err := r.rooms.GetRoom(ctx, roomId)
	if err != nil {
		return events.RoomAccessSyncResponsePayload{}, err
	}

	return events.RoomAccessSyncResponsePayload{
		Version: Version,
		Rev:     room.Rev,
		RoomId:  room.Id,
		Access:  AccessList(room.OwnerId, room.Moderators),
	}, nil
}

// AccessList is the owner as creator followed by every moderator.
func AccessList(ownerId string, moderators []string) []events.RoomAccessRecord {
	access := make([]events.RoomAccessRecord, 0, len(moderators)+1)
	access = append(access, events.RoomAccessRecord{UserId: ownerId, Role: permission.RoleCreator})
	for _, userId := range moderators {
		access = append(access, events.RoomAccessRecord{UserId: userId, Role: permission.RoleExecutiveModerator})
	}
	return access
}

// Handle answers one request message. Requests for unknown rooms are
// dropped without a response.
func (r *Responder) Handle(ctx context.Context, body []byte) error {
	in, err := events.Decode(body)
	if err != nil {
		return broker.Permanent(err)
	}

	var req events.RoomAccessSyncRequestPayload
	if err := in.DecodePayload(&req); err != nil {
		return broker.Permanent(err)
	}
	if req.RoomId == "" {
		req.RoomId = in.RoomId
	}

	resp, err := r.BuildResponse(ctx, req.RoomId)
	if errors.Is(err, database.ErrNotFound) {
		r.log.Printf("room access sync: room %q not found, dropping request", req.RoomId)
		return nil
	}
	if err != nil {
		return fmt.Errorf("room access sync for %q: %w", req.RoomId, err)
	}

	ev := events.New(events.RoomAccessSyncResponse, resp.RoomId, resp)
	if err := r.pub.Publish(ctx, broker.RoomAccessSyncResponseQueue, "", ev); err != nil {
		return fmt.Errorf("publish room access sync response: %w", err)
	}

	r.stats.Incr(stats.SyncResponsesSent)
	return nil
}
