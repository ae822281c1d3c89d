package rooms

import (
	"sort"
	"sync"

	"github.com/kmazur/inkroom/models"
)

// Manager tracks which users are in which room and the connection id each
// user joined with. It is membership bookkeeping only: drawing state has its
// own lifecycle in the board store and is never touched from here.
type Manager struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
	conns   map[string]map[string]string
}

func NewManager() *Manager {
	return &Manager{
		members: make(map[string]map[string]struct{}),
		conns:   make(map[string]map[string]string),
	}
}

func (m *Manager) AddUser(room string, userId string, connId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[room]; !ok {
		m.members[room] = make(map[string]struct{})
		m.conns[room] = make(map[string]string)
	}
	m.members[room][userId] = struct{}{}
	m.conns[room][userId] = connId
}

// RemoveUser drops a user's membership. An emptied room's membership record
// is deleted; the room's drawing state is reclaimed separately.
func (m *Manager) RemoveUser(room string, userId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[room]; !ok {
		return
	}
	delete(m.members[room], userId)
	delete(m.conns[room], userId)

	if len(m.members[room]) == 0 {
		delete(m.members, room)
		delete(m.conns, room)
	}
}

func (m *Manager) IsMember(room string, userId string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users, ok := m.members[room]
	if !ok {
		return false
	}
	_, ok = users[userId]
	return ok
}

func (m *Manager) Users(room string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersLocked(room)
}

func (m *Manager) usersLocked(room string) []string {
	users := make([]string, 0, len(m.members[room]))
	for userId := range m.members[room] {
		users = append(users, userId)
	}
	sort.Strings(users)
	return users
}

func (m *Manager) ConnId(room string, userId string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conns[room][userId]
}

func (m *Manager) UserCount(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members[room])
}

func (m *Manager) AllRooms() []models.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]models.RoomInfo, 0, len(m.members))
	for room, users := range m.members {
		rooms = append(rooms, models.RoomInfo{
			Name:      room,
			UserCount: len(users),
			Users:     m.usersLocked(room),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}
