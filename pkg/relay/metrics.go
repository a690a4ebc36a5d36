package relay

import (
	"sync/atomic"
	"time"
)

// Recorder receives relay metric events. The prometheus implementation
// lives in pkg/middleware; the relay itself only calls the hooks.
type Recorder interface {
	SessionOpened()
	SessionClosed()
	EventReceived(eventType string)
	EventBroadcast(eventType string, recipients int)
	BroadcastDropped()
	MutationFailed(eventType string)
	StoreWrite(eventType string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) SessionOpened()                   {}
func (nopRecorder) SessionClosed()                   {}
func (nopRecorder) EventReceived(string)             {}
func (nopRecorder) EventBroadcast(string, int)       {}
func (nopRecorder) BroadcastDropped()                {}
func (nopRecorder) MutationFailed(string)            {}
func (nopRecorder) StoreWrite(string, time.Duration) {}

// Stats is a point-in-time snapshot of relay activity.
type Stats struct {
	ActiveSessions int
	ActiveRooms    int
	TotalJoins     uint64
	TotalLeaves    uint64
	EventsReceived uint64
	EventsDropped  uint64
	CollectedAt    time.Time
}

// statsCollector tracks relay-internal counters regardless of which
// Recorder is installed.
type statsCollector struct {
	eventsReceived atomic.Uint64
	eventsDropped  atomic.Uint64
}

// Stats returns current relay statistics.
func (r *Relay) Stats() Stats {
	joins, leaves := r.registry.Stats()
	return Stats{
		ActiveSessions: int(r.activeSessions.Load()),
		ActiveRooms:    r.registry.RoomCount(),
		TotalJoins:     joins,
		TotalLeaves:    leaves,
		EventsReceived: r.stats.eventsReceived.Load(),
		EventsDropped:  r.stats.eventsDropped.Load(),
		CollectedAt:    time.Now(),
	}
}
