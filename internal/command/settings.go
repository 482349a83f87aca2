package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
)

// DefaultSettings are applied to rooms created without explicit settings.
func DefaultSettings(roomId string) database.Settings {
	return database.Settings{
		RoomId:     roomId,
		DirectSend: true,
	}
}

type SettingsHandler struct {
	repo  database.Repository
	perms RoomModeration
	sink  eventSink
}

func NewSettingsHandler(logger *log.Logger, repo database.Repository, perms RoomModeration, pub broker.Publisher) *SettingsHandler {
	return &SettingsHandler{
		repo:  repo,
		perms: perms,
		sink:  eventSink{pub: pub, log: logger},
	}
}

func (h *SettingsHandler) CreateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	if s.RoomId == "" {
		return database.Settings{}, fmt.Errorf("settings need a room: %w", ErrValidation)
	}
	if !h.perms.IsOwnerOrAnyTypeOfModeratorForRoom(ctx, s.RoomId) {
		return database.Settings{}, forbidden("create settings")
	}

	created, err := h.repo.CreateSettings(ctx, s)
	if err != nil {
		return database.Settings{}, storeError("create", "settings", s.RoomId, err)
	}

	return created, nil
}

// UpdateSettings replaces a room's settings and tells connected clients, so
// that moderation mode and read-only toggles apply immediately.
func (h *SettingsHandler) UpdateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	if !h.perms.IsOwnerOrAnyTypeOfModeratorForRoom(ctx, s.RoomId) {
		return database.Settings{}, forbidden("update settings")
	}

	updated, err := h.repo.UpdateSettings(ctx, s)
	if err != nil {
		return database.Settings{}, storeError("update", "settings", s.RoomId, err)
	}

	h.sink.broadcast(ctx, events.TopicFor(updated.RoomId, true, events.SettingsUpdated),
		events.New(events.SettingsUpdated, updated.RoomId, events.SettingsPayload{
			RoomId:            updated.RoomId,
			DirectSend:        updated.DirectSend,
			FileUploadEnabled: updated.FileUploadEnabled,
			Readonly:          updated.Readonly,
			Disabled:          updated.Disabled,
		}))

	return updated, nil
}

// InitSettings gives a newly created room its default settings. Redelivered
// creation events leave existing settings alone.
func (h *SettingsHandler) InitSettings(ctx context.Context, roomId string) (database.Settings, error) {
	existing, err := h.repo.GetSettings(ctx, roomId)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return database.Settings{}, storeError("get", "settings", roomId, err)
	}

	return h.createOrGet(ctx, DefaultSettings(roomId))
}

// CopySettings gives a duplicated room the settings of its original, or the
// defaults when the original has none.
func (h *SettingsHandler) CopySettings(ctx context.Context, originalId, duplicateId string) (database.Settings, error) {
	if existing, err := h.repo.GetSettings(ctx, duplicateId); err == nil {
		return existing, nil
	}

	s, err := h.repo.GetSettings(ctx, originalId)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s = DefaultSettings(duplicateId)
	case err != nil:
		return database.Settings{}, storeError("get", "settings", originalId, err)
	}
	s.RoomId = duplicateId

	return h.createOrGet(ctx, s)
}

// createOrGet stores s unless another delivery stored the room's settings
// first, in which case those are returned.
func (h *SettingsHandler) createOrGet(ctx context.Context, s database.Settings) (database.Settings, error) {
	created, err := h.repo.CreateSettings(ctx, s)
	if errors.Is(err, database.ErrConflict) {
		existing, err := h.repo.GetSettings(ctx, s.RoomId)
		if err != nil {
			return database.Settings{}, storeError("get", "settings", s.RoomId, err)
		}
		return existing, nil
	}
	if err != nil {
		return database.Settings{}, storeError("create", "settings", s.RoomId, err)
	}

	return created, nil
}
