package service

import (
	"context"
	"errors"
	"log"

	"github.com/gofrs/uuid/v5"
	"github.com/kmazur/inkroom/models"
)

type JoinState struct {
	Room    string          `json:"room"`
	Users   []string        `json:"users"`
	Strokes []models.Stroke `json:"strokes"`
}

type UserJoinedData struct {
	UserId string   `json:"userId"`
	Users  []string `json:"users"`
}

type UserLeftData struct {
	UserId string   `json:"userId"`
	Users  []string `json:"users"`
}

type CursorData struct {
	UserId string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type DrawingStateData struct {
	UserId    string `json:"userId"`
	IsDrawing bool   `json:"isDrawing"`
}

// JoinRoom registers membership and returns the full replay state so the
// caller can paint the canvas before live events arrive.
func (s *Service) JoinRoom(ctx context.Context, room string, user models.User, connId string) (JoinState, error) {
	if err := ValidateRoomName(room); err != nil {
		return JoinState{}, err
	}

	s.Rooms.AddUser(room, user.Id, connId)
	users := s.Rooms.Users(room)

	s.Broadcaster.Enqueue(models.Event{
		Room:   room,
		Type:   "user_joined",
		Origin: connId,
		Data:   UserJoinedData{UserId: user.Id, Users: users},
	})

	return JoinState{
		Room:    room,
		Users:   users,
		Strokes: s.Store.LiveStrokes(ctx, room),
	}, nil
}

func (s *Service) LeaveRoom(ctx context.Context, room string, user models.User) {
	if !s.Rooms.IsMember(room, user.Id) {
		return
	}

	s.Rooms.RemoveUser(room, user.Id)

	s.Broadcaster.Enqueue(models.Event{
		Room: room,
		Type: "user_left",
		Data: UserLeftData{UserId: user.Id, Users: s.Rooms.Users(room)},
	})
}

// SubmitStroke admits a finished stroke into the room's history. Segments
// must not reach this path; they are relayed through SubmitSegment without
// touching the store.
func (s *Service) SubmitStroke(ctx context.Context, room string, user models.User, stroke models.Stroke, connId string) (models.Stroke, error) {
	if !s.Rooms.IsMember(room, user.Id) {
		return models.Stroke{}, ErrNotInRoom
	}

	// The authenticated identity wins over whatever the client claims.
	stroke.UserId = user.Id

	stored, err := s.Store.AddStroke(ctx, room, stroke, connId)
	if err != nil {
		return models.Stroke{}, err
	}

	return stored, nil
}

// SubmitSegment relays an in-progress stroke fragment to the rest of the
// room. Segments are ephemeral rendering hints and never enter the store.
func (s *Service) SubmitSegment(ctx context.Context, room string, user models.User, segment models.Stroke, connId string) error {
	if !s.Rooms.IsMember(room, user.Id) {
		return ErrNotInRoom
	}

	segment.UserId = user.Id
	segment.IsSegment = true

	s.Broadcaster.Enqueue(models.Event{
		Room:   room,
		Type:   "stroke_added",
		Origin: connId,
		Data:   segment,
	})
	return nil
}

func (s *Service) MoveCursor(ctx context.Context, room string, user models.User, x float64, y float64, connId string) error {
	if !s.Rooms.IsMember(room, user.Id) {
		return ErrNotInRoom
	}

	s.Broadcaster.Enqueue(models.Event{
		Room:   room,
		Type:   "cursor_moved",
		Origin: connId,
		Data:   CursorData{UserId: user.Id, X: x, Y: y},
	})
	return nil
}

func (s *Service) SetDrawingState(ctx context.Context, room string, user models.User, isDrawing bool, connId string) error {
	if !s.Rooms.IsMember(room, user.Id) {
		return ErrNotInRoom
	}

	s.Broadcaster.Enqueue(models.Event{
		Room:   room,
		Type:   "drawing_state",
		Origin: connId,
		Data:   DrawingStateData{UserId: user.Id, IsDrawing: isDrawing},
	})
	return nil
}

// UndoLast retracts the caller's most recent live stroke. The removal is
// broadcast to every room member, the caller included, because their own
// canvas must retract it too.
func (s *Service) UndoLast(ctx context.Context, room string, user models.User) (models.Stroke, error) {
	if !s.Rooms.IsMember(room, user.Id) {
		return models.Stroke{}, ErrNotInRoom
	}

	return s.Store.UndoLast(ctx, room, user.Id)
}

// GlobalUndo removes a stroke by id regardless of authorship. A missing or
// already-removed id is a no-op, not a failure.
func (s *Service) GlobalUndo(ctx context.Context, room string, user models.User, strokeId string) (models.Stroke, error) {
	if !s.Rooms.IsMember(room, user.Id) {
		return models.Stroke{}, ErrNotInRoom
	}

	return s.Store.RemoveStroke(ctx, room, strokeId, user.Id)
}

// Redo reinstates a previously removed stroke as brand-new history: it gets
// a fresh id, so a later global undo of the original id stays a no-op.
func (s *Service) Redo(ctx context.Context, room string, user models.User, stroke models.Stroke, connId string) (models.Stroke, error) {
	if !s.Rooms.IsMember(room, user.Id) {
		return models.Stroke{}, ErrNotInRoom
	}

	strokeUUID, err := uuid.NewV7()
	if err != nil {
		return models.Stroke{}, err
	}

	stroke.Id = strokeUUID.String()
	stroke.UserId = user.Id
	stroke.IsSegment = false

	stored, err := s.Store.AddStroke(ctx, room, stroke, connId)
	if err != nil {
		return models.Stroke{}, err
	}

	return stored, nil
}

func (s *Service) ClearRoom(ctx context.Context, room string, user models.User) error {
	if !s.Rooms.IsMember(room, user.Id) {
		return ErrNotInRoom
	}

	if err := s.Store.Clear(ctx, room); err != nil {
		return err
	}
	log.Printf("Canvas cleared in room %s by %s", room, user.Id)
	return nil
}

func (s *Service) CanUndo(ctx context.Context, room string, user models.User) bool {
	return s.Store.CanUndo(ctx, room, user.Id)
}

func (s *Service) RoomList(ctx context.Context) []models.RoomInfo {
	return s.Rooms.AllRooms()
}

func (s *Service) RoomStats(ctx context.Context, room string) (models.RoomStats, error) {
	stats, ok := s.Store.RoomStats(ctx, room)
	if !ok {
		return models.RoomStats{}, errors.New("room does not exist")
	}
	return stats, nil
}

func (s *Service) AllStats(ctx context.Context) models.BoardStats {
	return s.Store.AllStats(ctx)
}
