package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common relay error conditions.
var (
	// ErrRelayClosed is returned when a connection arrives after Shutdown.
	ErrRelayClosed = errors.New("relay: closed")

	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("relay: session closed")

	// ErrSendBufferFull is returned when a session's send buffer is full
	// and an outbound event is dropped.
	ErrSendBufferFull = errors.New("relay: send buffer full")

	// ErrNotJoined is returned when a session sends a room-scoped event
	// before joining a project.
	ErrNotJoined = errors.New("relay: not joined to a project")

	// ErrRoomMismatch is returned when an event names a project other than
	// the one the session has joined.
	ErrRoomMismatch = errors.New("relay: event project does not match joined project")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("relay: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("relay: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}
