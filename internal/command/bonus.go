package command

import (
	"context"
	"fmt"
	"time"

	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/teris-io/shortid"
)

type BonusTokenStore interface {
	CreateBonusToken(ctx context.Context, t database.BonusToken) error
	DeleteBonusToken(ctx context.Context, roomId, commentId, userId string) error
}

// BonusTokenCoordinator rewards the author of a comment while it is marked
// favorite. Tokens are keyed by (room, comment, author); issuing an existing
// key and revoking a missing one are both no-ops in the store.
type BonusTokenCoordinator struct {
	store    BonusTokenStore
	newToken func() (string, error)
	now      func() time.Time
}

func NewBonusTokenCoordinator(store BonusTokenStore) *BonusTokenCoordinator {
	return &BonusTokenCoordinator{
		store:    store,
		newToken: shortid.Generate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (b *BonusTokenCoordinator) OnFavoriteTransition(ctx context.Context, c database.Comment, wasFavorite, isFavorite bool) error {
	switch {
	case !wasFavorite && isFavorite:
		token, err := b.newToken()
		if err != nil {
			return fmt.Errorf("generate bonus token: %w", err)
		}

		err = b.store.CreateBonusToken(ctx, database.BonusToken{
			RoomId:    c.RoomId,
			CommentId: c.Id,
			UserId:    c.CreatorId,
			Token:     token,
			CreatedAt: b.now(),
		})
		if err != nil {
			return fmt.Errorf("create bonus token for comment %q: %w", c.Id, err)
		}
	case wasFavorite && !isFavorite:
		if err := b.store.DeleteBonusToken(ctx, c.RoomId, c.Id, c.CreatorId); err != nil {
			return fmt.Errorf("delete bonus token for comment %q: %w", c.Id, err)
		}
	}

	return nil
}
