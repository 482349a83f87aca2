package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/npezzotti/go-classroom/internal/database"
)

const (
	upvote   = 1
	downvote = -1
)

// ScoreNotifier receives the signal that a comment's score may have changed.
type ScoreNotifier interface {
	ScoreChanged(commentId string)
}

// VoteHandler keeps at most one vote per (user, comment). Concurrent writes
// to the same pair are resolved by the store's upsert; every write that
// reached the store signals a recompute so the score converges.
type VoteHandler struct {
	repo     database.Repository
	perms    Permissions
	notifier ScoreNotifier
}

func NewVoteHandler(repo database.Repository, perms Permissions, notifier ScoreNotifier) *VoteHandler {
	return &VoteHandler{
		repo:     repo,
		perms:    perms,
		notifier: notifier,
	}
}

func (h *VoteHandler) Upvote(ctx context.Context, userId, commentId string) error {
	return h.vote(ctx, userId, commentId, upvote)
}

func (h *VoteHandler) Downvote(ctx context.Context, userId, commentId string) error {
	return h.vote(ctx, userId, commentId, downvote)
}

func (h *VoteHandler) vote(ctx context.Context, userId, commentId string, value int) error {
	v := database.Vote{
		Id:        uuid.NewString(),
		UserId:    userId,
		CommentId: commentId,
		Vote:      value,
	}
	if userId == "" || commentId == "" {
		return fmt.Errorf("vote needs user and comment: %w", ErrValidation)
	}
	if !h.perms.CheckVoteOwnerPermission(ctx, v) {
		return forbidden("vote")
	}

	if _, err := h.repo.UpsertVote(ctx, v); err != nil {
		return storeError("vote on", "comment", commentId, err)
	}

	h.notifier.ScoreChanged(commentId)
	return nil
}

func (h *VoteHandler) ResetVote(ctx context.Context, userId, commentId string) error {
	if !h.perms.CheckVoteOwnerPermission(ctx, database.Vote{UserId: userId, CommentId: commentId}) {
		return forbidden("reset vote")
	}

	existed, err := h.repo.DeleteVote(ctx, userId, commentId)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}

	if existed {
		h.notifier.ScoreChanged(commentId)
	}
	return nil
}
