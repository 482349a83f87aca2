package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) GetSettings(ctx context.Context, roomId string) (Settings, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(Settings), args.Error(1)
}
func (m *MockRepository) CreateSettings(ctx context.Context, s Settings) (Settings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(Settings), args.Error(1)
}
func (m *MockRepository) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(Settings), args.Error(1)
}
func (m *MockRepository) GetComment(ctx context.Context, id string) (Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Comment), args.Error(1)
}
func (m *MockRepository) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(Comment), args.Error(1)
}
func (m *MockRepository) UpdateComment(ctx context.Context, c Comment) (Comment, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(Comment), args.Error(1)
}
func (m *MockRepository) DeleteComment(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRepository) DeleteCommentsByRoom(ctx context.Context, roomId string) ([]Comment, error) {
	args := m.Called(ctx, roomId)
	if comments, ok := args.Get(0).([]Comment); ok {
		return comments, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) CountAckedComments(ctx context.Context, roomIds []string) (map[string]int, error) {
	args := m.Called(ctx, roomIds)
	if counts, ok := args.Get(0).(map[string]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) UpsertVote(ctx context.Context, v Vote) (Vote, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(Vote), args.Error(1)
}
func (m *MockRepository) DeleteVote(ctx context.Context, userId, commentId string) (bool, error) {
	args := m.Called(ctx, userId, commentId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) SumVotes(ctx context.Context, commentId string) (int, error) {
	args := m.Called(ctx, commentId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) CreateBonusToken(ctx context.Context, t BonusToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockRepository) DeleteBonusToken(ctx context.Context, roomId, commentId, userId string) error {
	args := m.Called(ctx, roomId, commentId, userId)
	return args.Error(0)
}
func (m *MockRepository) GetRoomAccess(ctx context.Context, roomId string) ([]RoomAccess, error) {
	args := m.Called(ctx, roomId)
	if entries, ok := args.Get(0).([]RoomAccess); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ReplaceRoomAccess(ctx context.Context, roomId, rev string, entries []RoomAccess) (bool, error) {
	args := m.Called(ctx, roomId, rev, entries)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) DeleteRoomAccess(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}

type MockCoreRepository struct {
	mock.Mock
}

func (m *MockCoreRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockCoreRepository) GetRoom(ctx context.Context, id string) (Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCoreRepository) CreateRoom(ctx context.Context, r Room) (Room, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCoreRepository) DeleteRoom(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCoreRepository) AddModerator(ctx context.Context, roomId, userId string) (Room, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCoreRepository) RemoveModerator(ctx context.Context, roomId, userId string) (Room, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCoreRepository) SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (Room, error) {
	args := m.Called(ctx, roomId, locked)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCoreRepository) UpsertFeedback(ctx context.Context, roomId, userId string, value int) error {
	args := m.Called(ctx, roomId, userId, value)
	return args.Error(0)
}
func (m *MockCoreRepository) GetFeedbackValues(ctx context.Context, roomId string) ([]int, error) {
	args := m.Called(ctx, roomId)
	if values, ok := args.Get(0).([]int); ok {
		return values, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockCoreRepository) DeleteFeedback(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}
