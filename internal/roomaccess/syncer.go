package roomaccess

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/stats"
)

// DefaultRequestInterval is the minimum time between two sync requests for
// the same room.
const DefaultRequestInterval = 5 * time.Second

type AccessStore interface {
	ReplaceRoomAccess(ctx context.Context, roomId, rev string, entries []database.RoomAccess) (bool, error)
	DeleteRoomAccess(ctx context.Context, roomId string) error
}

// roomPatch is the filtered room entity of a RoomPatched event. Properties
// the event filter removed stay nil.
type roomPatch struct {
	Id         string    `json:"id"`
	Rev        string    `json:"rev"`
	OwnerId    *string   `json:"ownerId"`
	Moderators *[]string `json:"moderators"`
}

// Syncer keeps the comment service's room access cache. It asks the core
// service for a room's access list and applies the answers.
type Syncer struct {
	store    AccessStore
	pub      broker.Publisher
	log      *log.Logger
	stats    stats.StatsProvider
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	requested map[string]time.Time
}

func NewSyncer(logger *log.Logger, sp stats.StatsProvider, store AccessStore, pub broker.Publisher) *Syncer {
	return &Syncer{
		store:     store,
		pub:       pub,
		log:       logger,
		stats:     sp,
		interval:  DefaultRequestInterval,
		now:       time.Now,
		requested: make(map[string]time.Time),
	}
}

// RequestSync asks for the access list of roomId. Requests for a room that
// was asked for less than the request interval ago are skipped.
func (s *Syncer) RequestSync(ctx context.Context, roomId string) error {
	s.mu.Lock()
	now := s.now()
	if last, ok := s.requested[roomId]; ok && now.Sub(last) < s.interval {
		s.mu.Unlock()
		return nil
	}
	s.requested[roomId] = now
	s.mu.Unlock()

	ev := events.New(events.RoomAccessSyncRequest, roomId, events.RoomAccessSyncRequestPayload{RoomId: roomId})
	if err := s.pub.Publish(context.WithoutCancel(ctx), broker.RoomAccessSyncRequestQueue, "", ev); err != nil {
		s.mu.Lock()
		delete(s.requested, roomId)
		s.mu.Unlock()
		return fmt.Errorf("publish room access sync request: %w", err)
	}

	s.stats.Incr(stats.SyncRequestsSent)
	return nil
}

// HandleResponse replaces the cached access list of the response's room.
// Responses of an unknown version are dropped.
func (s *Syncer) HandleResponse(ctx context.Context, body []byte) error {
	in, err := events.Decode(body)
	if err != nil {
		return broker.Permanent(err)
	}

	var resp events.RoomAccessSyncResponsePayload
	if err := in.DecodePayload(&resp); err != nil {
		return broker.Permanent(err)
	}

	if resp.Version != Version {
		s.log.Printf("room access sync: dropping response for %q with version %q", resp.RoomId, resp.Version)
		return nil
	}
	if resp.RoomId == "" {
		return broker.Permanent(fmt.Errorf("room access sync: response without room id"))
	}

	if err := s.replace(ctx, resp.RoomId, resp.Rev, resp.Access); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.requested, resp.RoomId)
	s.mu.Unlock()

	return nil
}

// HandleRoomPatched applies a room change published by the core service.
// When the event carries the owner, the moderators and the rev, the access
// list is rebuilt from it. Otherwise the cached list is dropped and a sync is
// requested, so a stale list is never used for permission checks.
func (s *Syncer) HandleRoomPatched(ctx context.Context, body []byte) error {
	in, err := events.Decode(body)
	if err != nil {
		return broker.Permanent(err)
	}

	var patch roomPatch
	if err := in.DecodePayload(&patch); err != nil {
		return broker.Permanent(err)
	}

	roomId := patch.Id
	if roomId == "" {
		roomId = in.RoomId
	}
	if roomId == "" {
		return broker.Permanent(fmt.Errorf("room patched: missing room id"))
	}

	if patch.Rev != "" && patch.OwnerId != nil && patch.Moderators != nil {
		return s.replace(ctx, roomId, patch.Rev, AccessList(*patch.OwnerId, *patch.Moderators))
	}

	if err := s.store.DeleteRoomAccess(ctx, roomId); err != nil {
		return fmt.Errorf("drop room access of %q: %w", roomId, err)
	}
	s.log.Printf("room access of %q dropped after patch without access fields", roomId)

	return s.RequestSync(ctx, roomId)
}

func (s *Syncer) replace(ctx context.Context, roomId, rev string, access []events.RoomAccessRecord) error {
	entries := make([]database.RoomAccess, 0, len(access))
	for _, a := range access {
		entries = append(entries, database.RoomAccess{RoomId: roomId, UserId: a.UserId, Role: a.Role})
	}

	changed, err := s.store.ReplaceRoomAccess(ctx, roomId, rev, entries)
	if err != nil {
		return fmt.Errorf("replace room access of %q: %w", roomId, err)
	}

	if changed {
		s.log.Printf("room access of %q synced at rev %q (%d entries)", roomId, rev, len(entries))
	}
	return nil
}
