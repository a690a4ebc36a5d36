package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// EventType identifies the kind of event carried by an envelope.
type EventType string

// Client-to-server event types.
const (
	EventJoinProject  EventType = "join-project"
	EventLeaveProject EventType = "leave-project"
	EventCursorMove   EventType = "cursor-move"
	EventActorUpdate  EventType = "actor-update"
	EventActorCreate  EventType = "actor-create"
)

// Server-to-client event types.
const (
	EventCursorUpdate EventType = "cursor-update"
	EventActorUpdated EventType = "actor-updated"
	EventActorCreated EventType = "actor-created"
	EventPeerJoined   EventType = "peer-joined"
	EventPeerLeft     EventType = "peer-left"
	EventAck          EventType = "ack"
	EventError        EventType = "error"
)

// Decoding errors.
var (
	ErrEmptyMessage = errors.New("protocol: empty message")
	ErrMissingType  = errors.New("protocol: missing event type")
	ErrUnknownType  = errors.New("protocol: unknown event type")
)

// Envelope is the outer frame of every message on the channel.
// Payload stays raw until the event type selects a payload struct.
type Envelope struct {
	Type      EventType       `json:"type"`
	RequestID string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Position is a point on the virtual canvas. Coordinates are unbounded
// floats; clamping to the visible canvas is a client concern.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// JoinProject asks the server to place this connection in a project room.
// Joining while already in a room leaves the previous room first; a
// connection is in at most one room at a time.
type JoinProject struct {
	ProjectID string `json:"projectId"`
	UserName  string `json:"userName,omitempty"`
}

// CursorMove reports the sender's cursor position. Never persisted;
// relayed to the room excluding the sender.
type CursorMove struct {
	ProjectID string   `json:"projectId"`
	Position  Position `json:"position"`
}

// ActorUpdate moves an actor. A full-value overwrite, so client retries
// are naturally idempotent.
type ActorUpdate struct {
	ProjectID string   `json:"projectId"`
	ActorID   string   `json:"actorId"`
	Position  Position `json:"position"`
}

// ActorCreate adds a new actor to the project.
type ActorCreate struct {
	ProjectID string   `json:"projectId"`
	Name      string   `json:"name"`
	Position  Position `json:"position"`
	CreatedBy string   `json:"createdBy,omitempty"`
	Color     string   `json:"color,omitempty"`
	Size      string   `json:"size,omitempty"`
	Emoji     string   `json:"emoji,omitempty"`
}

// CursorUpdate is the fan-out of a peer's CursorMove.
type CursorUpdate struct {
	UserID   string   `json:"userId"`
	UserName string   `json:"userName,omitempty"`
	Position Position `json:"position"`
}

// ActorUpdated is the fan-out of a persisted ActorUpdate, carrying the
// store-confirmed values.
type ActorUpdated struct {
	ActorID  string   `json:"actorId"`
	Position Position `json:"position"`
}

// PeerJoined announces a new room member.
type PeerJoined struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// PeerLeft announces a departed room member. Receivers drop the peer's
// cursor from their local cache.
type PeerLeft struct {
	UserID string `json:"userId"`
}

// Ack confirms a successful mutation, correlated by the envelope request id.
type Ack struct {
	OK bool `json:"ok"`
	// ActorID carries the server-assigned id for actor-create acks.
	ActorID string `json:"actorId,omitempty"`
}

// Decode parses a raw WebSocket message into an envelope. The payload is
// left raw; use the Decode* helpers to parse it per event type.
func Decode(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("protocol: message of %d bytes exceeds limit %d", len(data), MaxMessageSize)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return &env, nil
}

// Encode serializes an event into an envelope ready to write to the wire.
func Encode(typ EventType, requestID string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s payload: %w", typ, err)
	}
	return json.Marshal(&Envelope{Type: typ, RequestID: requestID, Payload: raw})
}

// MustEncode is Encode for payloads that cannot fail to marshal.
// It panics on error; use only with protocol-owned payload types.
func MustEncode(typ EventType, requestID string, payload any) []byte {
	data, err := Encode(typ, requestID, payload)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeJoinProject parses and validates a join-project payload.
func DecodeJoinProject(raw json.RawMessage) (*JoinProject, error) {
	var p JoinProject
	if err := unmarshalPayload(EventJoinProject, raw, &p); err != nil {
		return nil, err
	}
	if p.ProjectID == "" {
		return nil, fieldError(EventJoinProject, "projectId")
	}
	return &p, nil
}

// DecodeCursorMove parses and validates a cursor-move payload.
func DecodeCursorMove(raw json.RawMessage) (*CursorMove, error) {
	var p CursorMove
	if err := unmarshalPayload(EventCursorMove, raw, &p); err != nil {
		return nil, err
	}
	if p.ProjectID == "" {
		return nil, fieldError(EventCursorMove, "projectId")
	}
	return &p, nil
}

// DecodeActorUpdate parses and validates an actor-update payload.
func DecodeActorUpdate(raw json.RawMessage) (*ActorUpdate, error) {
	var p ActorUpdate
	if err := unmarshalPayload(EventActorUpdate, raw, &p); err != nil {
		return nil, err
	}
	if p.ProjectID == "" {
		return nil, fieldError(EventActorUpdate, "projectId")
	}
	if p.ActorID == "" {
		return nil, fieldError(EventActorUpdate, "actorId")
	}
	return &p, nil
}

// DecodeActorCreate parses and validates an actor-create payload.
func DecodeActorCreate(raw json.RawMessage) (*ActorCreate, error) {
	var p ActorCreate
	if err := unmarshalPayload(EventActorCreate, raw, &p); err != nil {
		return nil, err
	}
	if p.ProjectID == "" {
		return nil, fieldError(EventActorCreate, "projectId")
	}
	if p.Name == "" {
		return nil, fieldError(EventActorCreate, "name")
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return nil, fmt.Errorf("protocol: %s: name exceeds %d runes", EventActorCreate, MaxNameLength)
	}
	return &p, nil
}

func unmarshalPayload(typ EventType, raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("protocol: %s: missing payload", typ)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("protocol: %s: decode payload: %w", typ, err)
	}
	return nil
}

func fieldError(typ EventType, field string) error {
	return fmt.Errorf("protocol: %s: missing %s", typ, field)
}
