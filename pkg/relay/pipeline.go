package relay

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/katsudaichi/ant-app/pkg/protocol"
	"github.com/katsudaichi/ant-app/pkg/store"
)

// handleMessage decodes a client frame and routes it. Runs on the
// session's read loop, so events from one connection are processed
// strictly in arrival order.
func (r *Relay) handleMessage(s *Session, msg []byte) {
	env, err := protocol.Decode(msg)
	if err != nil {
		s.logger.Error("frame decode error", "error", err)
		r.sendError(s, "", protocol.ErrInvalidFrame, "invalid frame")
		return
	}

	r.stats.eventsReceived.Add(1)
	r.metrics.EventReceived(string(env.Type))

	switch env.Type {
	case protocol.EventJoinProject:
		r.handleJoin(s, env)

	case protocol.EventLeaveProject:
		r.handleLeave(s, env)

	case protocol.EventCursorMove:
		r.handleCursorMove(s, env)

	case protocol.EventActorUpdate:
		r.handleActorUpdate(s, env)

	case protocol.EventActorCreate:
		r.handleActorCreate(s, env)

	default:
		s.logger.Warn("unhandled event type", "type", string(env.Type))
		r.sendError(s, env.RequestID, protocol.ErrInvalidEvent, "unhandled event type")
	}
}

// handleJoin moves the session into the requested room. A session is in at
// most one room: joining while joined leaves the previous room first, and
// both rooms learn about the move.
func (r *Relay) handleJoin(s *Session, env *protocol.Envelope) {
	p, err := protocol.DecodeJoinProject(env.Payload)
	if err != nil {
		r.sendError(s, env.RequestID, protocol.ErrInvalidEvent, err.Error())
		return
	}
	if p.UserName != "" {
		s.UserName = p.UserName
	}

	previous, changed := r.registry.Join(s, p.ProjectID)
	if previous != "" {
		r.broadcastPeerLeft(previous, s)
	}
	// Re-joining the current room must not announce the member again.
	if changed {
		r.broadcastPeerJoined(p.ProjectID, s)
		s.logger.Info("joined project", "project_id", p.ProjectID, "previous", previous)
	}
	r.sendAck(s, env.RequestID, &protocol.Ack{OK: true})
}

// handleLeave removes the session from its room without closing the
// connection. Leaving while not joined is a no-op.
func (r *Relay) handleLeave(s *Session, env *protocol.Envelope) {
	projectID, left := r.registry.Leave(s)
	if left {
		r.broadcastPeerLeft(projectID, s)
		s.logger.Info("left project", "project_id", projectID)
	}
	r.sendAck(s, env.RequestID, &protocol.Ack{OK: true})
}

// requireRoom validates that the session has joined the project the event
// names. Events sent before join, or naming another project, are rejected
// with an error event and never reach the store or the router.
func (r *Relay) requireRoom(s *Session, requestID, projectID string) bool {
	err := r.roomCheck(s, projectID)
	if err == nil {
		return true
	}

	msg := "join a project first"
	if errors.Is(err, ErrRoomMismatch) {
		msg = "event project does not match joined project"
	}
	s.logger.Debug("room-scoped event rejected", "error", NewSessionError(s.ID, "require room", err))
	r.sendError(s, requestID, protocol.ErrNotJoined, msg)
	return false
}

// roomCheck reports why the session may not emit events for the project:
// ErrNotJoined when it has no room, ErrRoomMismatch when it is in a
// different one, nil when the event is allowed.
func (r *Relay) roomCheck(s *Session, projectID string) error {
	joined, ok := r.registry.Room(s.ID)
	if !ok {
		return ErrNotJoined
	}
	if joined != projectID {
		return ErrRoomMismatch
	}
	return nil
}

// handleCursorMove relays a cursor position to the rest of the room.
// Cursors are ephemeral: nothing is persisted, the origin gets no echo and
// no ack, and a missed update is simply superseded by the next one.
func (r *Relay) handleCursorMove(s *Session, env *protocol.Envelope) {
	p, err := protocol.DecodeCursorMove(env.Payload)
	if err != nil {
		r.sendError(s, env.RequestID, protocol.ErrInvalidEvent, err.Error())
		return
	}
	if !r.requireRoom(s, env.RequestID, p.ProjectID) {
		return
	}

	r.broadcast(p.ProjectID, s, false, protocol.EventCursorUpdate, &protocol.CursorUpdate{
		UserID:   s.UserID,
		UserName: s.UserName,
		Position: protocol.Position{X: p.Position.X, Y: p.Position.Y},
	})
}

// handleActorUpdate persists an actor position and then broadcasts it.
// The store write happens first: if it fails the room hears nothing and
// the originator gets an error event. On success the rest of the room gets
// actor-updated and the originator gets the ack.
func (r *Relay) handleActorUpdate(s *Session, env *protocol.Envelope) {
	p, err := protocol.DecodeActorUpdate(env.Payload)
	if err != nil {
		r.sendError(s, env.RequestID, protocol.ErrInvalidEvent, err.Error())
		return
	}
	if !r.requireRoom(s, env.RequestID, p.ProjectID) {
		return
	}

	ctx, span := r.tracer.Start(context.Background(), "relay.actor_update")
	span.SetAttributes(
		attribute.String("project.id", p.ProjectID),
		attribute.String("actor.id", p.ActorID),
	)
	start := time.Now()
	err = r.store.UpdateActorPosition(ctx, p.ActorID, store.Position{X: p.Position.X, Y: p.Position.Y})
	span.End()
	r.metrics.StoreWrite(string(protocol.EventActorUpdate), time.Since(start))
	if err != nil {
		r.metrics.MutationFailed(string(protocol.EventActorUpdate))
		s.logger.Error("actor update failed", "actor_id", p.ActorID, "error", err)
		if errors.Is(err, store.ErrNotFound) {
			r.sendError(s, env.RequestID, protocol.ErrNotFound, "actor not found")
		} else {
			r.sendError(s, env.RequestID, protocol.ErrServerError, "update failed")
		}
		return
	}

	r.broadcast(p.ProjectID, s, false, protocol.EventActorUpdated, &protocol.ActorUpdated{
		ActorID:  p.ActorID,
		Position: protocol.Position{X: p.Position.X, Y: p.Position.Y},
	})
	r.sendAck(s, env.RequestID, &protocol.Ack{OK: true, ActorID: p.ActorID})
}

// handleActorCreate inserts a new actor and broadcasts the stored record,
// including the server-assigned id, to the whole room — creator included,
// so every client renders the same confirmed values.
func (r *Relay) handleActorCreate(s *Session, env *protocol.Envelope) {
	p, err := protocol.DecodeActorCreate(env.Payload)
	if err != nil {
		r.sendError(s, env.RequestID, protocol.ErrInvalidEvent, err.Error())
		return
	}
	if !r.requireRoom(s, env.RequestID, p.ProjectID) {
		return
	}

	createdBy := p.CreatedBy
	if createdBy == "" {
		createdBy = s.UserID
	}
	actor := &store.Actor{
		ID:        uuid.NewString(),
		ProjectID: p.ProjectID,
		Name:      p.Name,
		Position:  store.Position{X: p.Position.X, Y: p.Position.Y},
		Color:     p.Color,
		Size:      p.Size,
		Emoji:     p.Emoji,
		CreatedBy: createdBy,
	}
	if actor.Size == "" {
		actor.Size = "3"
	}

	ctx, span := r.tracer.Start(context.Background(), "relay.actor_create")
	span.SetAttributes(attribute.String("project.id", p.ProjectID))
	start := time.Now()
	err = r.store.CreateActor(ctx, actor)
	span.End()
	r.metrics.StoreWrite(string(protocol.EventActorCreate), time.Since(start))
	if err != nil {
		r.metrics.MutationFailed(string(protocol.EventActorCreate))
		s.logger.Error("actor create failed", "project_id", p.ProjectID, "error", err)
		if errors.Is(err, store.ErrProjectNotFound) {
			r.sendError(s, env.RequestID, protocol.ErrNotFound, "project not found")
		} else {
			r.sendError(s, env.RequestID, protocol.ErrServerError, "create failed")
		}
		return
	}

	// The store-confirmed record goes to everyone, creator included.
	r.broadcast(p.ProjectID, nil, true, protocol.EventActorCreated, actor)
	r.sendAck(s, env.RequestID, &protocol.Ack{OK: true, ActorID: actor.ID})
}
