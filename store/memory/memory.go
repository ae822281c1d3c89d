package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/store"
)

// roomState holds one room's drawing history. strokes is index-stable: an
// undone stroke is tombstoned (nil) rather than removed, because userStrokes
// holds positions into the slice. liveCount tracks non-tombstoned entries.
type roomState struct {
	mu           sync.Mutex
	strokes      []*models.Stroke
	userStrokes  map[string][]int
	liveCount    int
	lastModified time.Time
}

// MemoryBoardStore is the in-memory authoritative drawing state, one
// independently locked roomState per room so busy rooms do not stall others.
// Every mutation hands its event to the sink while the room lock is held,
// which keeps broadcast order identical to commit order.
type MemoryBoardStore struct {
	mu             sync.RWMutex
	rooms          map[string]*roomState
	sink           store.EventSink
	maxRoomStrokes int
}

func NewMemoryBoardStore(sink store.EventSink, maxRoomStrokes int) *MemoryBoardStore {
	return &MemoryBoardStore{
		rooms:          make(map[string]*roomState),
		sink:           sink,
		maxRoomStrokes: maxRoomStrokes,
	}
}

// getRoomState returns the state for room, creating it on first access.
func (s *MemoryBoardStore) getRoomState(room string) *roomState {
	s.mu.RLock()
	rs, ok := s.rooms[room]
	s.mu.RUnlock()
	if ok {
		return rs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok := s.rooms[room]; ok {
		return rs
	}
	rs = &roomState{
		userStrokes:  make(map[string][]int),
		lastModified: time.Now(),
	}
	s.rooms[room] = rs
	return rs
}

// lookupRoomState returns the state for room without creating it.
func (s *MemoryBoardStore) lookupRoomState(room string) (*roomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.rooms[room]
	return rs, ok
}

func (s *MemoryBoardStore) AddStroke(ctx context.Context, room string, stroke models.Stroke, origin string) (models.Stroke, error) {
	if err := store.ValidateStroke(stroke); err != nil {
		return models.Stroke{}, err
	}

	rs := s.getRoomState(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if s.maxRoomStrokes > 0 && rs.liveCount >= s.maxRoomStrokes {
		return models.Stroke{}, store.ErrRoomFull
	}

	stored := stroke
	index := len(rs.strokes)
	rs.strokes = append(rs.strokes, &stored)
	rs.userStrokes[stroke.UserId] = append(rs.userStrokes[stroke.UserId], index)
	rs.liveCount++
	rs.lastModified = time.Now()

	s.emit(models.Event{Room: room, Type: "stroke_added", Origin: origin, Data: stored})
	return stored, nil
}

// UndoLast removes the calling user's most recent live stroke. Per-user undo
// is strictly LIFO: the index list is only ever popped from the end.
func (s *MemoryBoardStore) UndoLast(ctx context.Context, room string, userId string) (models.Stroke, error) {
	rs, ok := s.lookupRoomState(room)
	if !ok {
		return models.Stroke{}, store.ErrNotFound
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Indices pointing at slots a global undo already tombstoned are stale;
	// keep popping until a live slot is found.
	indices := rs.userStrokes[userId]
	var removed *models.Stroke
	for len(indices) > 0 {
		last := indices[len(indices)-1]
		indices = indices[:len(indices)-1]
		if rs.strokes[last] != nil {
			removed = rs.strokes[last]
			rs.strokes[last] = nil
			rs.liveCount--
			break
		}
	}

	if len(indices) == 0 {
		delete(rs.userStrokes, userId)
	} else {
		rs.userStrokes[userId] = indices
	}

	if removed == nil {
		return models.Stroke{}, store.ErrNotFound
	}
	rs.lastModified = time.Now()

	s.emit(models.Event{
		Room: room,
		Type: "stroke_removed",
		Data: models.StrokeRemovedData{StrokeId: removed.Id, UserId: userId},
	})
	return *removed, nil
}

// RemoveStroke tombstones the first live stroke with the given id, regardless
// of authorship. Removing a missing or already-tombstoned id is a no-op.
func (s *MemoryBoardStore) RemoveStroke(ctx context.Context, room string, strokeId string, userId string) (models.Stroke, error) {
	rs, ok := s.lookupRoomState(room)
	if !ok {
		return models.Stroke{}, store.ErrNotFound
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	for i, stroke := range rs.strokes {
		if stroke == nil || stroke.Id != strokeId {
			continue
		}

		// Only the slot is tombstoned. The author's index list is left
		// alone; stale indices are skipped when that user next undoes.
		rs.strokes[i] = nil
		rs.liveCount--
		rs.lastModified = time.Now()

		s.emit(models.Event{
			Room: room,
			Type: "stroke_removed",
			Data: models.StrokeRemovedData{StrokeId: strokeId, UserId: userId},
		})
		return *stroke, nil
	}

	return models.Stroke{}, store.ErrNotFound
}

// LiveStrokes returns the replay state for a joining client: all
// non-tombstoned strokes in their original acceptance order.
func (s *MemoryBoardStore) LiveStrokes(ctx context.Context, room string) []models.Stroke {
	rs, ok := s.lookupRoomState(room)
	if !ok {
		return []models.Stroke{}
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	live := make([]models.Stroke, 0, rs.liveCount)
	for _, stroke := range rs.strokes {
		if stroke != nil {
			live = append(live, *stroke)
		}
	}
	return live
}

// Clear wipes a room's drawing history. Membership is a separate concern and
// survives; the room entry itself is kept.
func (s *MemoryBoardStore) Clear(ctx context.Context, room string) error {
	rs := s.getRoomState(room)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.strokes = nil
	rs.userStrokes = make(map[string][]int)
	rs.liveCount = 0
	rs.lastModified = time.Now()

	s.emit(models.Event{Room: room, Type: "canvas_cleared", Data: models.CanvasClearedData{Room: room}})
	return nil
}

func (s *MemoryBoardStore) CanUndo(ctx context.Context, room string, userId string) bool {
	return s.UserStrokeCount(ctx, room, userId) > 0
}

func (s *MemoryBoardStore) UserStrokeCount(ctx context.Context, room string, userId string) int {
	rs, ok := s.lookupRoomState(room)
	if !ok {
		return 0
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Indices whose slot was tombstoned by a global undo do not count.
	count := 0
	for _, i := range rs.userStrokes[userId] {
		if rs.strokes[i] != nil {
			count++
		}
	}
	return count
}

func (s *MemoryBoardStore) RoomStats(ctx context.Context, room string) (models.RoomStats, bool) {
	rs, ok := s.lookupRoomState(room)
	if !ok {
		return models.RoomStats{}, false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	return s.roomStatsLocked(room, rs), true
}

func (s *MemoryBoardStore) roomStatsLocked(room string, rs *roomState) models.RoomStats {
	perUser := make(map[string]int)
	for _, stroke := range rs.strokes {
		if stroke != nil {
			perUser[stroke.UserId]++
		}
	}
	return models.RoomStats{
		Room:           room,
		TotalStrokes:   len(rs.strokes),
		LiveStrokes:    rs.liveCount,
		UniqueUsers:    len(perUser),
		StrokesPerUser: perUser,
		LastModified:   rs.lastModified.UnixMilli(),
	}
}

func (s *MemoryBoardStore) AllStats(ctx context.Context) models.BoardStats {
	s.mu.RLock()
	names := make([]string, 0, len(s.rooms))
	states := make([]*roomState, 0, len(s.rooms))
	for name, rs := range s.rooms {
		names = append(names, name)
		states = append(states, rs)
	}
	s.mu.RUnlock()

	stats := models.BoardStats{Rooms: make([]models.RoomStats, 0, len(names))}
	users := make(map[string]struct{})
	for i, rs := range states {
		rs.mu.Lock()
		roomStats := s.roomStatsLocked(names[i], rs)
		rs.mu.Unlock()

		stats.TotalRooms++
		stats.TotalStrokes += roomStats.TotalStrokes
		stats.LiveStrokes += roomStats.LiveStrokes
		for userId := range roomStats.StrokesPerUser {
			users[userId] = struct{}{}
		}
		stats.Rooms = append(stats.Rooms, roomStats)
	}
	stats.TotalUsers = len(users)
	return stats
}

// IdleRooms lists rooms whose last mutation is older than the given cutoff.
// The caller decides whether membership allows reclaiming them.
func (s *MemoryBoardStore) IdleRooms(ctx context.Context, olderThan time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []string
	for name, rs := range s.rooms {
		rs.mu.Lock()
		if rs.lastModified.Before(olderThan) {
			idle = append(idle, name)
		}
		rs.mu.Unlock()
	}
	return idle
}

func (s *MemoryBoardStore) DropRoom(ctx context.Context, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room)
}

func (s *MemoryBoardStore) emit(ev models.Event) {
	if s.sink != nil {
		s.sink.Enqueue(ev)
	}
}
