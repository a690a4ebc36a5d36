// Package relay is the realtime collaboration core: it upgrades client
// connections to WebSocket, tracks per-project rooms, and fans cursor and
// entity mutations out to room members. Entity mutations are persisted to
// the entity store before any broadcast, so peers never observe a change
// that failed to durably apply.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/katsudaichi/ant-app/pkg/store"
)

// ActorStore is the slice of the entity store the relay writes through.
type ActorStore interface {
	CreateActor(ctx context.Context, a *store.Actor) error
	UpdateActorPosition(ctx context.Context, actorID string, pos store.Position) error
}

// Relay owns the room registry and all live sessions. Construct one per
// server; all state is instance-scoped so isolated relays can run side by
// side in tests.
type Relay struct {
	config   *Config
	logger   *slog.Logger
	store    ActorStore
	registry *Registry
	metrics  Recorder
	tracer   trace.Tracer
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session

	activeSessions atomic.Int64
	stats          statsCollector
	closed         atomic.Bool
}

// Option configures a Relay.
type Option func(*Relay)

// WithConfig sets the relay configuration. Zero fields are filled with
// defaults.
func WithConfig(cfg *Config) Option {
	return func(r *Relay) {
		r.config = cfg
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithRecorder installs a metrics recorder. Default: no-op.
func WithRecorder(rec Recorder) Option {
	return func(r *Relay) {
		r.metrics = rec
	}
}

// New creates a Relay writing entity mutations through st.
func New(st ActorStore, opts ...Option) *Relay {
	r := &Relay{
		store:    st,
		registry: NewRegistry(),
		metrics:  nopRecorder{},
		sessions: make(map[string]*Session),
		tracer:   otel.Tracer("antapp/relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.config = r.config.withDefaults()
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "relay")

	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  r.config.ReadBufferSize,
		WriteBufferSize: r.config.WriteBufferSize,
		CheckOrigin:     r.config.CheckOrigin,
	}
	if r.upgrader.CheckOrigin == nil {
		r.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return r
}

// Registry exposes the room registry, mainly for tests and stats.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// ServeHTTP upgrades the request to a WebSocket session and runs its read
// loop until the connection drops. Identity comes from the userId/userName
// query parameters; a connection without a userId is attributed to its
// generated session id.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("upgrade failed", "error", err, "remote", req.RemoteAddr)
		return
	}

	q := req.URL.Query()
	s := newSession(conn, q.Get("userId"), q.Get("userName"), r)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.activeSessions.Add(1)
	r.metrics.SessionOpened()

	s.logger.Info("session connected", "remote", req.RemoteAddr, "active_sessions", r.activeSessions.Load())

	go s.WriteLoop()
	s.ReadLoop()
}

// handleDisconnect runs exactly once per session, from Session.Close. It
// removes the session from its room and tells the remaining members.
func (r *Relay) handleDisconnect(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	r.mu.Unlock()
	r.activeSessions.Add(-1)
	r.metrics.SessionClosed()

	projectID, left := r.registry.Leave(s)
	if left {
		r.broadcastPeerLeft(projectID, s)
	}

	s.logger.Info("session disconnected", "project_id", projectID, "active_sessions", r.activeSessions.Load())
}

// Shutdown stops accepting connections and closes every live session. It
// returns when all sessions are gone or the context expires. A second
// Shutdown returns ErrRelayClosed.
func (r *Relay) Shutdown(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrRelayClosed
	}

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	r.logger.Info("relay shutting down", "sessions", len(sessions))

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(s *Session) {
				defer wg.Done()
				s.Close()
			}(s)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
