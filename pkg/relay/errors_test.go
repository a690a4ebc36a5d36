package relay

import (
	"errors"
	"strings"
	"testing"

	"github.com/katsudaichi/ant-app/pkg/store"
)

func TestSessionErrorFormat(t *testing.T) {
	err := NewSessionError("s-1", "send", ErrSendBufferFull)
	msg := err.Error()
	if !strings.Contains(msg, "s-1") || !strings.Contains(msg, "send") {
		t.Errorf("Error() = %q, want session id and op", msg)
	}

	bare := NewSessionError("", "send", ErrSessionClosed)
	if strings.Contains(bare.Error(), "session ") {
		t.Errorf("Error() = %q, want no session segment without an id", bare.Error())
	}
}

func TestSessionErrorUnwrap(t *testing.T) {
	err := NewSessionError("s-1", "send", ErrSessionClosed)
	if !errors.Is(err, ErrSessionClosed) {
		t.Error("errors.Is should see through SessionError")
	}

	var se *SessionError
	if !errors.As(err, &se) || se.Op != "send" {
		t.Errorf("errors.As = %+v", se)
	}
}

func TestSessionSendErrors(t *testing.T) {
	s := &Session{ID: "s-1", send: make(chan []byte, 1)}

	if err := s.Send([]byte("a")); err != nil {
		t.Fatalf("Send into free buffer = %v", err)
	}
	if err := s.Send([]byte("b")); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("Send into full buffer = %v, want ErrSendBufferFull", err)
	}

	s.closed.Store(true)
	if err := s.Send([]byte("c")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send on closed session = %v, want ErrSessionClosed", err)
	}
}

func TestRoomCheckSentinels(t *testing.T) {
	r := New(store.NewMemoryStore(), WithLogger(testLogger()))
	s := testSession("a")

	if err := r.roomCheck(s, "p1"); !errors.Is(err, ErrNotJoined) {
		t.Errorf("roomCheck before join = %v, want ErrNotJoined", err)
	}

	r.Registry().Join(s, "p1")
	if err := r.roomCheck(s, "p2"); !errors.Is(err, ErrRoomMismatch) {
		t.Errorf("roomCheck wrong room = %v, want ErrRoomMismatch", err)
	}
	if err := r.roomCheck(s, "p1"); err != nil {
		t.Errorf("roomCheck joined room = %v, want nil", err)
	}
}
