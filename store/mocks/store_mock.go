package mocks

import (
	"context"
	"time"

	"github.com/kmazur/inkroom/models"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) AddStroke(ctx context.Context, room string, stroke models.Stroke, origin string) (models.Stroke, error) {
	args := m.Called(ctx, room, stroke, origin)
	return args.Get(0).(models.Stroke), args.Error(1)
}

func (m *MockStore) UndoLast(ctx context.Context, room string, userId string) (models.Stroke, error) {
	args := m.Called(ctx, room, userId)
	return args.Get(0).(models.Stroke), args.Error(1)
}

func (m *MockStore) RemoveStroke(ctx context.Context, room string, strokeId string, userId string) (models.Stroke, error) {
	args := m.Called(ctx, room, strokeId, userId)
	return args.Get(0).(models.Stroke), args.Error(1)
}

func (m *MockStore) LiveStrokes(ctx context.Context, room string) []models.Stroke {
	args := m.Called(ctx, room)
	return args.Get(0).([]models.Stroke)
}

func (m *MockStore) Clear(ctx context.Context, room string) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockStore) CanUndo(ctx context.Context, room string, userId string) bool {
	args := m.Called(ctx, room, userId)
	return args.Bool(0)
}

func (m *MockStore) UserStrokeCount(ctx context.Context, room string, userId string) int {
	args := m.Called(ctx, room, userId)
	return args.Int(0)
}

func (m *MockStore) RoomStats(ctx context.Context, room string) (models.RoomStats, bool) {
	args := m.Called(ctx, room)
	return args.Get(0).(models.RoomStats), args.Bool(1)
}

func (m *MockStore) AllStats(ctx context.Context) models.BoardStats {
	args := m.Called(ctx)
	return args.Get(0).(models.BoardStats)
}

func (m *MockStore) IdleRooms(ctx context.Context, olderThan time.Time) []string {
	args := m.Called(ctx, olderThan)
	return args.Get(0).([]string)
}

func (m *MockStore) DropRoom(ctx context.Context, room string) {
	m.Called(ctx, room)
}
