package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/npezzotti/go-classroom/internal/config"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/permission"
	"github.com/npezzotti/go-classroom/internal/types"
)

type CommentCommands interface {
	CreateComment(ctx context.Context, c database.Comment) (database.Comment, error)
	PatchComment(ctx context.Context, id string, changes map[string]any) (database.Comment, error)
	UpdateComment(ctx context.Context, id string, next database.Comment) (database.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByRoom(ctx context.Context, roomId string) (int, error)
	HighlightComment(ctx context.Context, id string, lit bool) error
	CalculateStats(ctx context.Context, roomIds []string) ([]database.RoomStats, error)
}

type VoteCommands interface {
	Upvote(ctx context.Context, userId, commentId string) error
	Downvote(ctx context.Context, userId, commentId string) error
	ResetVote(ctx context.Context, userId, commentId string) error
}

type SettingsCommands interface {
	CreateSettings(ctx context.Context, s database.Settings) (database.Settings, error)
	UpdateSettings(ctx context.Context, s database.Settings) (database.Settings, error)
}

type CommentApp struct {
	*server
	comments CommentCommands
	votes    VoteCommands
	settings SettingsCommands
}

type HighlightRequest struct {
	Lit bool `json:"lit"`
}

type VoteRequest struct {
	Value int `json:"value"`
}

type DeleteCommentsResponse struct {
	Deleted int `json:"deleted"`
}

func NewCommentApp(mux *http.ServeMux, logger *log.Logger, db pinger, comments CommentCommands, votes VoteCommands, settings SettingsCommands, cfg *config.Config) *CommentApp {
	a := &CommentApp{
		server:   newServer(mux, logger, db, cfg),
		comments: comments,
		votes:    votes,
		settings: settings,
	}

	mux.Handle("POST /api/comments", a.authMiddleware(a.createComment))
	mux.Handle("GET /api/comments/stats", a.authMiddleware(a.stats))
	mux.Handle("PATCH /api/comments/{id}", a.authMiddleware(a.patchComment))
	mux.Handle("PUT /api/comments/{id}", a.authMiddleware(a.updateComment))
	mux.Handle("DELETE /api/comments/{id}", a.authMiddleware(a.deleteComment))
	mux.Handle("POST /api/comments/{id}/highlight", a.authMiddleware(a.highlightComment))
	mux.Handle("POST /api/comments/{id}/vote", a.authMiddleware(a.vote))
	mux.Handle("DELETE /api/comments/{id}/vote", a.authMiddleware(a.resetVote))
	mux.Handle("DELETE /api/rooms/{roomId}/comments", a.authMiddleware(a.deleteRoomComments))
	mux.Handle("POST /api/rooms/{roomId}/settings", a.authMiddleware(a.createSettings))
	mux.Handle("PUT /api/rooms/{roomId}/settings", a.authMiddleware(a.updateSettings))

	return a
}

func (a *CommentApp) createComment(w http.ResponseWriter, r *http.Request) {
	var req types.Comment
	if !a.decodeJson(w, r, &req) {
		return
	}

	if req.CreatorId == "" {
		req.CreatorId, _ = permission.UserId(r.Context())
	}

	c, err := a.comments.CreateComment(r.Context(), fromComment(req))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusCreated, toComment(c))
}

func (a *CommentApp) patchComment(w http.ResponseWriter, r *http.Request) {
	var changes map[string]any
	if !a.decodeJson(w, r, &changes) {
		return
	}

	c, err := a.comments.PatchComment(r.Context(), r.PathValue("id"), changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toComment(c))
}

func (a *CommentApp) updateComment(w http.ResponseWriter, r *http.Request) {
	var req types.Comment
	if !a.decodeJson(w, r, &req) {
		return
	}

	c, err := a.comments.UpdateComment(r.Context(), r.PathValue("id"), fromComment(req))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toComment(c))
}

func (a *CommentApp) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := a.comments.DeleteComment(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CommentApp) highlightComment(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if !a.decodeJson(w, r, &req) {
		return
	}

	if err := a.comments.HighlightComment(r.Context(), r.PathValue("id"), req.Lit); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CommentApp) deleteRoomComments(w http.ResponseWriter, r *http.Request) {
	n, err := a.comments.DeleteCommentsByRoom(r.Context(), r.PathValue("roomId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, DeleteCommentsResponse{Deleted: n})
}

func (a *CommentApp) stats(w http.ResponseWriter, r *http.Request) {
	var roomIds []string
	for _, id := range strings.Split(r.URL.Query().Get("roomIds"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			roomIds = append(roomIds, id)
		}
	}
	if len(roomIds) == 0 {
		a.badRequest(w)
		return
	}

	stats, err := a.comments.CalculateStats(r.Context(), roomIds)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]types.RoomStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, types.RoomStats{RoomId: s.RoomId, AckCommentCount: s.AckCommentCount})
	}

	a.writeJson(w, http.StatusOK, out)
}

func (a *CommentApp) vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !a.decodeJson(w, r, &req) {
		return
	}

	userId, _ := permission.UserId(r.Context())
	commentId := r.PathValue("id")

	var err error
	switch req.Value {
	case 1:
		err = a.votes.Upvote(r.Context(), userId, commentId)
	case -1:
		err = a.votes.Downvote(r.Context(), userId, commentId)
	default:
		a.badRequest(w)
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CommentApp) resetVote(w http.ResponseWriter, r *http.Request) {
	userId, _ := permission.UserId(r.Context())
	if err := a.votes.ResetVote(r.Context(), userId, r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CommentApp) createSettings(w http.ResponseWriter, r *http.Request) {
	var req types.Settings
	if !a.decodeJson(w, r, &req) {
		return
	}
	req.RoomId = r.PathValue("roomId")

	s, err := a.settings.CreateSettings(r.Context(), fromSettings(req))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusCreated, toSettings(s))
}

func (a *CommentApp) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req types.Settings
	if !a.decodeJson(w, r, &req) {
		return
	}
	req.RoomId = r.PathValue("roomId")

	s, err := a.settings.UpdateSettings(r.Context(), fromSettings(req))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toSettings(s))
}
