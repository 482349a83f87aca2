package database

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested row, or a row it refers
	// to, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a row with the same key already exists.
	ErrConflict = errors.New("already exists")
)

// Repository is the comment service's persistence.
type Repository interface {
	Ping() error
	GetSettings(ctx context.Context, roomId string) (Settings, error)
	CreateSettings(ctx context.Context, s Settings) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) (Settings, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	UpdateComment(ctx context.Context, c Comment) (Comment, error)
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByRoom(ctx context.Context, roomId string) ([]Comment, error)
	CountAckedComments(ctx context.Context, roomIds []string) (map[string]int, error)
	UpsertVote(ctx context.Context, v Vote) (Vote, error)
	DeleteVote(ctx context.Context, userId, commentId string) (bool, error)
	SumVotes(ctx context.Context, commentId string) (int, error)
	CreateBonusToken(ctx context.Context, t BonusToken) error
	DeleteBonusToken(ctx context.Context, roomId, commentId, userId string) error
	GetRoomAccess(ctx context.Context, roomId string) ([]RoomAccess, error)
	ReplaceRoomAccess(ctx context.Context, roomId, rev string, entries []RoomAccess) (bool, error)
	DeleteRoomAccess(ctx context.Context, roomId string) error
}

// CoreRepository is the core service's persistence.
type CoreRepository interface {
	Ping() error
	GetRoom(ctx context.Context, id string) (Room, error)
	CreateRoom(ctx context.Context, r Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	AddModerator(ctx context.Context, roomId, userId string) (Room, error)
	RemoveModerator(ctx context.Context, roomId, userId string) (Room, error)
	SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (Room, error)
	UpsertFeedback(ctx context.Context, roomId, userId string, value int) error
	GetFeedbackValues(ctx context.Context, roomId string) ([]int, error)
	DeleteFeedback(ctx context.Context, roomId string) error
}
