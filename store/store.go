package store

import (
	"context"
	"errors"
	"time"

	"github.com/kmazur/inkroom/models"
)

// EventSink receives the event for each committed mutation. Implementations
// must be fast and non-blocking: the store calls Enqueue while the room lock
// is held so that enqueue order matches commit order.
type EventSink interface {
	Enqueue(ev models.Event)
}

// BoardStore is the authoritative per-room drawing state: an append-only
// stroke log with soft deletion plus a per-user index for last-stroke undo.
type BoardStore interface {
	AddStroke(ctx context.Context, room string, stroke models.Stroke, origin string) (models.Stroke, error)
	UndoLast(ctx context.Context, room string, userId string) (models.Stroke, error)
	RemoveStroke(ctx context.Context, room string, strokeId string, userId string) (models.Stroke, error)
	LiveStrokes(ctx context.Context, room string) []models.Stroke
	Clear(ctx context.Context, room string) error

	CanUndo(ctx context.Context, room string, userId string) bool
	UserStrokeCount(ctx context.Context, room string, userId string) int
	RoomStats(ctx context.Context, room string) (models.RoomStats, bool)
	AllStats(ctx context.Context) models.BoardStats

	IdleRooms(ctx context.Context, olderThan time.Time) []string
	DropRoom(ctx context.Context, room string)
}

// Custom error types for clarity
var (
	ErrInvalidStroke = errors.New("invalid stroke data")
	ErrNotFound      = errors.New("stroke does not exist")
	ErrRoomFull      = errors.New("room stroke limit reached")
)
