package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testSigningKey = []byte("test-signing-key")

type mockComments struct {
	mock.Mock
}

func (m *mockComments) CreateComment(ctx context.Context, c database.Comment) (database.Comment, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(database.Comment), args.Error(1)
}
func (m *mockComments) PatchComment(ctx context.Context, id string, changes map[string]any) (database.Comment, error) {
	args := m.Called(ctx, id, changes)
	return args.Get(0).(database.Comment), args.Error(1)
}
func (m *mockComments) UpdateComment(ctx context.Context, id string, next database.Comment) (database.Comment, error) {
	args := m.Called(ctx, id, next)
	return args.Get(0).(database.Comment), args.Error(1)
}
func (m *mockComments) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockComments) DeleteCommentsByRoom(ctx context.Context, roomId string) (int, error) {
	args := m.Called(ctx, roomId)
	return args.Int(0), args.Error(1)
}
func (m *mockComments) HighlightComment(ctx context.Context, id string, lit bool) error {
	return m.Called(ctx, id, lit).Error(0)
}
func (m *mockComments) CalculateStats(ctx context.Context, roomIds []string) ([]database.RoomStats, error) {
	args := m.Called(ctx, roomIds)
	stats, _ := args.Get(0).([]database.RoomStats)
	return stats, args.Error(1)
}

type mockVotes struct {
	mock.Mock
}

func (m *mockVotes) Upvote(ctx context.Context, userId, commentId string) error {
	return m.Called(ctx, userId, commentId).Error(0)
}
func (m *mockVotes) Downvote(ctx context.Context, userId, commentId string) error {
	return m.Called(ctx, userId, commentId).Error(0)
}
func (m *mockVotes) ResetVote(ctx context.Context, userId, commentId string) error {
	return m.Called(ctx, userId, commentId).Error(0)
}

type mockSettings struct {
	mock.Mock
}

func (m *mockSettings) CreateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(database.Settings), args.Error(1)
}
func (m *mockSettings) UpdateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(database.Settings), args.Error(1)
}

type mockFeedback struct {
	mock.Mock
}

func (m *mockFeedback) Feedback(ctx context.Context, roomId string) (types.Feedback, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(types.Feedback), args.Error(1)
}
func (m *mockFeedback) CreateFeedback(ctx context.Context, roomId, userId string, value int) error {
	return m.Called(ctx, roomId, userId, value).Error(0)
}
func (m *mockFeedback) ResetFeedback(ctx context.Context, roomId string) error {
	return m.Called(ctx, roomId).Error(0)
}
func (m *mockFeedback) SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (database.Room, error) {
	args := m.Called(ctx, roomId, locked)
	return args.Get(0).(database.Room), args.Error(1)
}

type mockRooms struct {
	mock.Mock
}

func (m *mockRooms) Room(ctx context.Context, id string) (database.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Room), args.Error(1)
}
func (m *mockRooms) CreateRoom(ctx context.Context, ownerId string) (database.Room, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).(database.Room), args.Error(1)
}
func (m *mockRooms) DeleteRoom(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRooms) DuplicateRoom(ctx context.Context, id string) (database.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Room), args.Error(1)
}
func (m *mockRooms) AddModerator(ctx context.Context, roomId, userId string) (database.Room, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Get(0).(database.Room), args.Error(1)
}
func (m *mockRooms) RemoveModerator(ctx context.Context, roomId, userId string) (database.Room, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Get(0).(database.Room), args.Error(1)
}

type staticModeration bool

func (m staticModeration) IsOwnerOrAnyTypeOfModeratorForRoom(ctx context.Context, roomId string) bool {
	return bool(m)
}

func authorize(t *testing.T, req *http.Request, userId string) *http.Request {
	token, err := CreateToken(testSigningKey, userId, time.Hour)
	assert.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
	return req
}
