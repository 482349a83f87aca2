package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
)

type CommentHandler struct {
	repo  database.Repository
	perms Permissions
	bonus *BonusTokenCoordinator
	sink  eventSink
	log   *log.Logger
	now   func() time.Time
}

func NewCommentHandler(logger *log.Logger, repo database.Repository, perms Permissions, pub broker.Publisher) *CommentHandler {
	return &CommentHandler{
		repo:  repo,
		perms: perms,
		bonus: NewBonusTokenCoordinator(repo),
		sink:  eventSink{pub: pub, log: logger},
		log:   logger,
		now:   time.Now,
	}
}

func commentPayload(c database.Comment, score int) events.CommentPayload {
	return events.CommentPayload{
		Id:        c.Id,
		RoomId:    c.RoomId,
		CreatorId: c.CreatorId,
		Body:      c.Body,
		Tag:       c.Tag,
		Answer:    c.Answer,
		Timestamp: c.CreatedAt,
		Read:      c.Read,
		Favorite:  c.Favorite,
		Correct:   c.Correct,
		Ack:       c.Ack,
		Score:     score,
	}
}

// CreateComment stores c in its room. Whether the comment is public right
// away is decided by the room's direct send setting, not by the caller. A new
// comment starts without any moderation state.
func (h *CommentHandler) CreateComment(ctx context.Context, c database.Comment) (database.Comment, error) {
	if c.RoomId == "" || strings.TrimSpace(c.Body) == "" {
		return database.Comment{}, fmt.Errorf("comment needs room and body: %w", ErrValidation)
	}

	settings, err := h.repo.GetSettings(ctx, c.RoomId)
	if err != nil {
		return database.Comment{}, storeError("get", "settings", c.RoomId, err)
	}

	c.Id = uuid.NewString()
	c.Ack = settings.DirectSend
	c.Read = false
	c.Favorite = false
	c.Correct = 0
	c.Answer = ""
	c.CreatedAt = h.now().UTC()
	c.UpdatedAt = c.CreatedAt
	if !h.perms.CheckCommentOwnerPermission(ctx, c) {
		return database.Comment{}, forbidden("create comment")
	}

	created, err := h.repo.CreateComment(ctx, c)
	if err != nil {
		return database.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	h.sink.broadcast(ctx, events.TopicFor(created.RoomId, created.Ack, events.CommentCreated),
		events.New(events.CommentCreated, created.RoomId, commentPayload(created, 0)))

	return created, nil
}

// PatchComment applies the fields present in changes. Subscribers receive
// the changes rather than the whole comment.
func (h *CommentHandler) PatchComment(ctx context.Context, id string, changes map[string]any) (database.Comment, error) {
	current, err := h.repo.GetComment(ctx, id)
	if err != nil {
		return database.Comment{}, storeError("get", "comment", id, err)
	}

	if !h.perms.CheckCommentPatchPermission(ctx, current, changes) {
		return database.Comment{}, forbidden("patch comment")
	}

	next, err := applyChanges(current, changes)
	if err != nil {
		return database.Comment{}, err
	}

	updated, err := h.repo.UpdateComment(ctx, next)
	if err != nil {
		return database.Comment{}, storeError("update", "comment", id, err)
	}

	h.onTransitions(ctx, current, updated)
	h.sink.broadcast(ctx, events.TopicFor(updated.RoomId, true, events.CommentPatched),
		events.New(events.CommentPatched, updated.RoomId, events.CommentPatchedPayload{Id: updated.Id, Changes: changes}))

	return updated, nil
}

// UpdateComment replaces the comment with next. Identity, room and author
// cannot be changed.
func (h *CommentHandler) UpdateComment(ctx context.Context, id string, next database.Comment) (database.Comment, error) {
	current, err := h.repo.GetComment(ctx, id)
	if err != nil {
		return database.Comment{}, storeError("get", "comment", id, err)
	}

	next.Id = current.Id
	if next.RoomId == "" {
		next.RoomId = current.RoomId
	}
	if next.CreatorId == "" {
		next.CreatorId = current.CreatorId
	}
	if strings.TrimSpace(next.Body) == "" {
		return database.Comment{}, fmt.Errorf("comment needs a body: %w", ErrValidation)
	}

	if !h.perms.CheckCommentUpdatePermission(ctx, next, current) {
		return database.Comment{}, forbidden("update comment")
	}

	updated, err := h.repo.UpdateComment(ctx, next)
	if err != nil {
		return database.Comment{}, storeError("update", "comment", id, err)
	}

	h.onTransitions(ctx, current, updated)
	h.sink.broadcast(ctx, events.TopicFor(updated.RoomId, true, events.CommentUpdated),
		events.New(events.CommentUpdated, updated.RoomId, commentPayload(updated, h.score(ctx, updated.Id))))

	return updated, nil
}

// onTransitions runs the side effects of the flag flips between old and
// new. A failed side effect is logged; the update itself stands.
func (h *CommentHandler) onTransitions(ctx context.Context, old, new database.Comment) {
	for _, t := range Diff(old, new) {
		switch t.Field {
		case FavoriteField:
			if err := h.bonus.OnFavoriteTransition(ctx, new, t.Was, t.Is); err != nil {
				h.log.Printf("bonus token: %v", err)
			}
		case AckField:
			h.sink.broadcast(ctx, events.TopicFor(new.RoomId, t.Is, events.CommentCreated),
				events.New(events.CommentCreated, new.RoomId, commentPayload(new, h.score(ctx, new.Id))))
		}
	}
}

func (h *CommentHandler) score(ctx context.Context, commentId string) int {
	score, err := h.repo.SumVotes(ctx, commentId)
	if err != nil {
		h.log.Printf("sum votes of %q: %v", commentId, err)
		return 0
	}
	return score
}

func (h *CommentHandler) DeleteComment(ctx context.Context, id string) error {
	current, err := h.repo.GetComment(ctx, id)
	if err != nil {
		return storeError("get", "comment", id, err)
	}

	if !h.perms.CheckCommentDeletePermission(ctx, current) {
		return forbidden("delete comment")
	}

	if err := h.repo.DeleteComment(ctx, id); err != nil {
		return storeError("delete", "comment", id, err)
	}

	h.announceDeleted(ctx, current)
	return nil
}

// DeleteCommentsByRoom deletes every comment of a room on behalf of its
// owner or an editing moderator and returns how many were deleted.
func (h *CommentHandler) DeleteCommentsByRoom(ctx context.Context, roomId string) (int, error) {
	if !h.perms.IsOwnerOrEditingModeratorForRoom(ctx, roomId) {
		return 0, forbidden("delete room comments")
	}

	return h.deleteRoomComments(ctx, roomId)
}

// PurgeRoom removes everything the service keeps for a deleted room: its
// comments and its cached access list. No permission check is made.
func (h *CommentHandler) PurgeRoom(ctx context.Context, roomId string) (int, error) {
	n, err := h.deleteRoomComments(ctx, roomId)
	if err != nil {
		return 0, err
	}

	if err := h.repo.DeleteRoomAccess(ctx, roomId); err != nil {
		return n, fmt.Errorf("delete access list of room %q: %w", roomId, err)
	}

	return n, nil
}

func (h *CommentHandler) deleteRoomComments(ctx context.Context, roomId string) (int, error) {
	deleted, err := h.repo.DeleteCommentsByRoom(ctx, roomId)
	if err != nil {
		return 0, fmt.Errorf("delete comments of room %q: %w", roomId, err)
	}

	for _, c := range deleted {
		h.announceDeleted(ctx, c)
	}

	return len(deleted), nil
}

func (h *CommentHandler) announceDeleted(ctx context.Context, c database.Comment) {
	ev := events.New(events.CommentDeleted, c.RoomId, events.CommentDeletedPayload{Id: c.Id})
	h.sink.broadcast(ctx, events.TopicFor(c.RoomId, true, events.CommentDeleted), ev)
	h.sink.fanout(ctx, broker.CommentDeletedExchange, ev)
}

// HighlightComment only broadcasts; highlighting is not stored.
func (h *CommentHandler) HighlightComment(ctx context.Context, id string, lit bool) error {
	c, err := h.repo.GetComment(ctx, id)
	if err != nil {
		return storeError("get", "comment", id, err)
	}

	if !h.perms.IsOwnerOrAnyTypeOfModeratorForRoom(ctx, c.RoomId) {
		return forbidden("highlight comment")
	}

	h.sink.broadcast(ctx, events.TopicFor(c.RoomId, true, events.CommentHighlighted),
		events.New(events.CommentHighlighted, c.RoomId, events.CommentHighlightedPayload{Id: c.Id, Lit: lit}))

	return nil
}

// CalculateStats returns the acknowledged comment count of each room in the
// order of roomIds.
func (h *CommentHandler) CalculateStats(ctx context.Context, roomIds []string) ([]database.RoomStats, error) {
	counts, err := h.repo.CountAckedComments(ctx, roomIds)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	out := make([]database.RoomStats, 0, len(roomIds))
	for _, id := range roomIds {
		out = append(out, database.RoomStats{RoomId: id, AckCommentCount: counts[id]})
	}

	return out, nil
}

func applyChanges(c database.Comment, changes map[string]any) (database.Comment, error) {
	if len(changes) == 0 {
		return c, fmt.Errorf("no changes: %w", ErrValidation)
	}

	for field, v := range changes {
		var ok bool
		switch field {
		case "body":
			c.Body, ok = v.(string)
			ok = ok && strings.TrimSpace(c.Body) != ""
		case "tag":
			c.Tag, ok = v.(string)
		case "answer":
			c.Answer, ok = v.(string)
		case "read":
			c.Read, ok = v.(bool)
		case "favorite":
			c.Favorite, ok = v.(bool)
		case "ack":
			c.Ack, ok = v.(bool)
		case "correct":
			c.Correct, ok = asInt(v)
		default:
			return c, fmt.Errorf("unknown field %q: %w", field, ErrValidation)
		}

		if !ok {
			return c, fmt.Errorf("invalid value %v for %q: %w", v, field, ErrValidation)
		}
	}

	return c, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
