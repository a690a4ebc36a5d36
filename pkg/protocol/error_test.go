package protocol

import (
	"encoding/json"
	"testing"
)

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrUnknown, "Unknown"},
		{ErrInvalidFrame, "InvalidFrame"},
		{ErrInvalidEvent, "InvalidEvent"},
		{ErrNotJoined, "NotJoined"},
		{ErrRateLimited, "RateLimited"},
		{ErrServerError, "ServerError"},
		{ErrNotFound, "NotFound"},
		{ErrValidation, "Validation"},
		{ErrorCode(0xFFFF), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%#x).String() = %q, want %q", uint16(tt.code), got, tt.want)
		}
	}
}

func TestErrorEventInterface(t *testing.T) {
	e := NewError(ErrNotJoined, "join a project first")
	if e.Error() != "NotJoined: join a project first" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestErrorEventWire(t *testing.T) {
	data := MustEncode(EventError, "req-1", NewError(ErrValidation, "actor not found"))

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != EventError || env.RequestID != "req-1" {
		t.Errorf("envelope = %+v", env)
	}

	var ee ErrorEvent
	if err := json.Unmarshal(env.Payload, &ee); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if ee.Code != ErrValidation || ee.Message != "actor not found" {
		t.Errorf("error event = %+v", ee)
	}
}
