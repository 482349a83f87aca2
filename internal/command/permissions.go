package command

import (
	"context"

	"github.com/npezzotti/go-classroom/internal/database"
)

// Permissions is the access predicate consumed by the comment service's
// handlers. The acting user is carried by ctx.
type Permissions interface {
	RoomModeration
	CheckCommentOwnerPermission(ctx context.Context, c database.Comment) bool
	CheckCommentPatchPermission(ctx context.Context, current database.Comment, changes map[string]any) bool
	CheckCommentUpdatePermission(ctx context.Context, next, current database.Comment) bool
	CheckCommentDeletePermission(ctx context.Context, c database.Comment) bool
	CheckVoteOwnerPermission(ctx context.Context, v database.Vote) bool
	IsOwnerOrEditingModeratorForRoom(ctx context.Context, roomId string) bool
}

type RoomModeration interface {
	IsOwnerOrAnyTypeOfModeratorForRoom(ctx context.Context, roomId string) bool
}

type RoomOwnership interface {
	IsRoomOwner(ctx context.Context, roomId string) bool
}
