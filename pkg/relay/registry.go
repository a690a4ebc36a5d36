package relay

import (
	"sync"
	"sync/atomic"
)

// Registry tracks which sessions belong to which project room. Rooms exist
// only as entries in this map: created on first join, removed when the last
// member leaves. A session is in at most one room at a time; Join moves the
// session out of its previous room first.
//
// The registry is owned by a Relay instance, never package-global, so tests
// can run isolated relays side by side.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Session
	byConn map[string]string // session id -> joined project id

	totalJoins  atomic.Uint64
	totalLeaves atomic.Uint64
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]*Session),
		byConn: make(map[string]string),
	}
}

// Join adds the session to the project's room. It returns the project the
// session previously occupied, if any, and whether membership changed.
// Joining the room the session is already in is a no-op: ("", false).
func (r *Registry) Join(s *Session, projectID string) (previous string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, joined := r.byConn[s.ID]
	if joined && prev == projectID {
		return "", false
	}
	if joined {
		r.removeLocked(s.ID, prev)
		previous = prev
	}

	room, ok := r.rooms[projectID]
	if !ok {
		room = make(map[string]*Session)
		r.rooms[projectID] = room
	}
	room[s.ID] = s
	r.byConn[s.ID] = projectID
	r.totalJoins.Add(1)
	return previous, true
}

// Leave removes the session from its room. Safe to call any number of
// times; only the first call for a joined session reports left=true.
func (r *Registry) Leave(s *Session) (projectID string, left bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, joined := r.byConn[s.ID]
	if !joined {
		return "", false
	}
	r.removeLocked(s.ID, prev)
	r.totalLeaves.Add(1)
	return prev, true
}

func (r *Registry) removeLocked(sessionID, projectID string) {
	if room, ok := r.rooms[projectID]; ok {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(r.rooms, projectID)
		}
	}
	delete(r.byConn, sessionID)
}

// Room returns the project the session has joined, if any.
func (r *Registry) Room(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projectID, ok := r.byConn[sessionID]
	return projectID, ok
}

// MembersOf returns a snapshot of the room's live sessions. The snapshot
// is safe to iterate while members join and leave.
func (r *Registry) MembersOf(projectID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[projectID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(room))
	for _, s := range room {
		out = append(out, s)
	}
	return out
}

// Count returns the number of joined sessions across all rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Stats reports cumulative join/leave counts.
func (r *Registry) Stats() (joins, leaves uint64) {
	return r.totalJoins.Load(), r.totalLeaves.Load()
}
