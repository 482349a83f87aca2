package api

import (
	"context"
	"log"
	"net/http"

	"github.com/npezzotti/go-classroom/internal/command"
	"github.com/npezzotti/go-classroom/internal/config"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/permission"
	"github.com/npezzotti/go-classroom/internal/types"
)

type FeedbackCommands interface {
	Feedback(ctx context.Context, roomId string) (types.Feedback, error)
	CreateFeedback(ctx context.Context, roomId, userId string, value int) error
	ResetFeedback(ctx context.Context, roomId string) error
	SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (database.Room, error)
}

type RoomCommands interface {
	Room(ctx context.Context, id string) (database.Room, error)
	CreateRoom(ctx context.Context, ownerId string) (database.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	DuplicateRoom(ctx context.Context, id string) (database.Room, error)
	AddModerator(ctx context.Context, roomId, userId string) (database.Room, error)
	RemoveModerator(ctx context.Context, roomId, userId string) (database.Room, error)
}

type CoreApp struct {
	*server
	rooms    RoomCommands
	feedback FeedbackCommands
	perms    command.RoomModeration
}

type FeedbackRequest struct {
	Value int `json:"value"`
}

type FeedbackLockRequest struct {
	Locked bool `json:"locked"`
}

func NewCoreApp(mux *http.ServeMux, logger *log.Logger, db pinger, rooms RoomCommands, feedback FeedbackCommands, perms command.RoomModeration, cfg *config.Config) *CoreApp {
	a := &CoreApp{
		server:   newServer(mux, logger, db, cfg),
		rooms:    rooms,
		feedback: feedback,
		perms:    perms,
	}

	mux.Handle("POST /api/rooms", a.authMiddleware(a.createRoom))
	mux.Handle("GET /api/rooms/{roomId}", a.authMiddleware(a.getRoom))
	mux.Handle("DELETE /api/rooms/{roomId}", a.authMiddleware(a.deleteRoom))
	mux.Handle("POST /api/rooms/{roomId}/duplicate", a.authMiddleware(a.duplicateRoom))
	mux.Handle("PUT /api/rooms/{roomId}/moderators/{userId}", a.authMiddleware(a.addModerator))
	mux.Handle("DELETE /api/rooms/{roomId}/moderators/{userId}", a.authMiddleware(a.removeModerator))

	mux.Handle("GET /api/rooms/{roomId}/feedback", a.authMiddleware(a.getFeedback))
	mux.Handle("POST /api/rooms/{roomId}/feedback", a.authMiddleware(a.createFeedback))
	mux.Handle("DELETE /api/rooms/{roomId}/feedback", a.authMiddleware(a.resetFeedback))
	mux.Handle("PUT /api/rooms/{roomId}/feedback/lock", a.authMiddleware(a.lockFeedback))

	return a
}

// createRoom makes the caller the owner of a new room.
func (a *CoreApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, _ := permission.UserId(r.Context())
	room, err := a.rooms.CreateRoom(r.Context(), userId)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusCreated, toRoom(room))
}

func (a *CoreApp) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := a.rooms.Room(r.Context(), r.PathValue("roomId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toRoom(room))
}

func (a *CoreApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := a.rooms.DeleteRoom(r.Context(), r.PathValue("roomId")); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CoreApp) duplicateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := a.rooms.DuplicateRoom(r.Context(), r.PathValue("roomId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusCreated, toRoom(room))
}

func (a *CoreApp) addModerator(w http.ResponseWriter, r *http.Request) {
	a.changeModerators(w, r, a.rooms.AddModerator)
}

func (a *CoreApp) removeModerator(w http.ResponseWriter, r *http.Request) {
	a.changeModerators(w, r, a.rooms.RemoveModerator)
}

func (a *CoreApp) changeModerators(w http.ResponseWriter, r *http.Request,
	change func(ctx context.Context, roomId, userId string) (database.Room, error)) {
	room, err := change(r.Context(), r.PathValue("roomId"), r.PathValue("userId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toRoom(room))
}

func (a *CoreApp) getFeedback(w http.ResponseWriter, r *http.Request) {
	fb, err := a.feedback.Feedback(r.Context(), r.PathValue("roomId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, fb)
}

func (a *CoreApp) createFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !a.decodeJson(w, r, &req) {
		return
	}

	userId, _ := permission.UserId(r.Context())
	if err := a.feedback.CreateFeedback(r.Context(), r.PathValue("roomId"), userId, req.Value); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resetFeedback is restricted to moderators; the broker command of the same
// name is trusted.
func (a *CoreApp) resetFeedback(w http.ResponseWriter, r *http.Request) {
	roomId := r.PathValue("roomId")
	if !a.perms.IsOwnerOrAnyTypeOfModeratorForRoom(r.Context(), roomId) {
		errResp := NewForbiddenError()
		a.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := a.feedback.ResetFeedback(r.Context(), roomId); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *CoreApp) lockFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackLockRequest
	if !a.decodeJson(w, r, &req) {
		return
	}

	room, err := a.feedback.SetFeedbackLocked(r.Context(), r.PathValue("roomId"), req.Locked)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJson(w, http.StatusOK, toRoom(room))
}
