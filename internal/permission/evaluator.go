package permission

import (
	"context"
	"log"

	"github.com/npezzotti/go-classroom/internal/database"
)

const (
	RoleCreator            = "CREATOR"
	RoleExecutiveModerator = "EXECUTIVE_MODERATOR"
	RoleEditingModerator   = "EDITING_MODERATOR"
)

// moderation fields may only be changed by the room's owner or moderators.
var moderationFields = map[string]struct{}{
	"read":     {},
	"favorite": {},
	"correct":  {},
	"ack":      {},
	"answer":   {},
}

type AccessSource interface {
	GetRoomAccess(ctx context.Context, roomId string) ([]database.RoomAccess, error)
}

type SyncRequester interface {
	RequestSync(ctx context.Context, roomId string) error
}

// RoomAccessEvaluator decides from the locally cached room access lists. A
// room without cached entries triggers a sync request and is treated as if
// the user had no role until the response arrives.
type RoomAccessEvaluator struct {
	access AccessSource
	sync   SyncRequester
	log    *log.Logger
}

func NewRoomAccessEvaluator(logger *log.Logger, access AccessSource, sync SyncRequester) *RoomAccessEvaluator {
	return &RoomAccessEvaluator{
		access: access,
		sync:   sync,
		log:    logger,
	}
}

func (e *RoomAccessEvaluator) role(ctx context.Context, roomId string) string {
	userId, ok := UserId(ctx)
	if !ok {
		return ""
	}

	entries, err := e.access.GetRoomAccess(ctx, roomId)
	if err != nil {
		e.log.Printf("room access for %q: %v", roomId, err)
		return ""
	}

	if len(entries) == 0 {
		if err := e.sync.RequestSync(ctx, roomId); err != nil {
			e.log.Printf("request room access sync for %q: %v", roomId, err)
		}
		return ""
	}

	for _, entry := range entries {
		if entry.UserId == userId {
			return entry.Role
		}
	}

	return ""
}

func isCurrentUser(ctx context.Context, userId string) bool {
	current, ok := UserId(ctx)
	return ok && current == userId
}

// IsOwnerOrEditingModeratorForRoom admits the roles that may change the
// room's content. Executive moderators only moderate comments.
func (e *RoomAccessEvaluator) IsOwnerOrEditingModeratorForRoom(ctx context.Context, roomId string) bool {
	switch e.role(ctx, roomId) {
	case RoleCreator, RoleEditingModerator:
		return true
	}
	return false
}

func (e *RoomAccessEvaluator) IsOwnerOrAnyTypeOfModeratorForRoom(ctx context.Context, roomId string) bool {
	switch e.role(ctx, roomId) {
	case RoleCreator, RoleEditingModerator, RoleExecutiveModerator:
		return true
	}
	return false
}

func (e *RoomAccessEvaluator) isOwnerOrExecutiveModerator(ctx context.Context, roomId string) bool {
	switch e.role(ctx, roomId) {
	case RoleCreator, RoleExecutiveModerator:
		return true
	}
	return false
}

func (e *RoomAccessEvaluator) CheckCommentOwnerPermission(ctx context.Context, c database.Comment) bool {
	return isCurrentUser(ctx, c.CreatorId)
}

func (e *RoomAccessEvaluator) CheckCommentPatchPermission(ctx context.Context, current database.Comment, changes map[string]any) bool {
	if e.isOwnerOrExecutiveModerator(ctx, current.RoomId) {
		return true
	}
	if !isCurrentUser(ctx, current.CreatorId) {
		return false
	}

	for field := range changes {
		if _, ok := moderationFields[field]; ok {
			return false
		}
	}
	return true
}

func (e *RoomAccessEvaluator) CheckCommentUpdatePermission(ctx context.Context, next, current database.Comment) bool {
	if next.RoomId != current.RoomId || next.CreatorId != current.CreatorId {
		return false
	}
	if e.isOwnerOrExecutiveModerator(ctx, current.RoomId) {
		return true
	}
	if !isCurrentUser(ctx, current.CreatorId) {
		return false
	}

	return next.Read == current.Read &&
		next.Favorite == current.Favorite &&
		next.Correct == current.Correct &&
		next.Ack == current.Ack &&
		next.Answer == current.Answer
}

func (e *RoomAccessEvaluator) CheckCommentDeletePermission(ctx context.Context, c database.Comment) bool {
	return isCurrentUser(ctx, c.CreatorId) || e.isOwnerOrExecutiveModerator(ctx, c.RoomId)
}

func (e *RoomAccessEvaluator) CheckVoteOwnerPermission(ctx context.Context, v database.Vote) bool {
	return isCurrentUser(ctx, v.UserId)
}
