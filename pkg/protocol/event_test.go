package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	data := []byte(`{"type":"cursor-move","payload":{"projectId":"p1","position":{"x":10,"y":20}}}`)

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != EventCursorMove {
		t.Errorf("Type = %q, want %q", env.Type, EventCursorMove)
	}
	if env.RequestID != "" {
		t.Errorf("RequestID = %q, want empty", env.RequestID)
	}

	p, err := DecodeCursorMove(env.Payload)
	if err != nil {
		t.Fatalf("DecodeCursorMove failed: %v", err)
	}
	if p.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", p.ProjectID)
	}
	if p.Position.X != 10 || p.Position.Y != 20 {
		t.Errorf("Position = %+v, want (10,20)", p.Position)
	}
}

func TestDecodeEnvelopeRequestID(t *testing.T) {
	env, err := Decode([]byte(`{"type":"actor-update","id":"req-7","payload":{"projectId":"p1","actorId":"a1","position":{"x":1,"y":2}}}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.RequestID != "req-7" {
		t.Errorf("RequestID = %q, want req-7", env.RequestID)
	}
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyMessage},
		{"missing type", []byte(`{"payload":{}}`), ErrMissingType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeEnvelopeMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Error("Decode should fail on malformed JSON")
	}
}

func TestDecodeEnvelopeTooLarge(t *testing.T) {
	data := append([]byte(`{"type":"cursor-move","payload":"`), bytes.Repeat([]byte("x"), MaxMessageSize)...)
	data = append(data, []byte(`"}`)...)

	if _, err := Decode(data); err == nil {
		t.Error("Decode should reject oversized messages")
	}
}

func TestDecodePayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		decode  func(json.RawMessage) error
		payload string
	}{
		{"join missing projectId", func(raw json.RawMessage) error {
			_, err := DecodeJoinProject(raw)
			return err
		}, `{}`},
		{"cursor missing projectId", func(raw json.RawMessage) error {
			_, err := DecodeCursorMove(raw)
			return err
		}, `{"position":{"x":1,"y":2}}`},
		{"update missing actorId", func(raw json.RawMessage) error {
			_, err := DecodeActorUpdate(raw)
			return err
		}, `{"projectId":"p1","position":{"x":1,"y":2}}`},
		{"update missing projectId", func(raw json.RawMessage) error {
			_, err := DecodeActorUpdate(raw)
			return err
		}, `{"actorId":"a1","position":{"x":1,"y":2}}`},
		{"create missing name", func(raw json.RawMessage) error {
			_, err := DecodeActorCreate(raw)
			return err
		}, `{"projectId":"p1","position":{"x":1,"y":2}}`},
		{"create missing payload", func(raw json.RawMessage) error {
			_, err := DecodeActorCreate(raw)
			return err
		}, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(json.RawMessage(tt.payload)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDecodeActorCreateNameLimit(t *testing.T) {
	long := strings.Repeat("a", MaxNameLength+1)
	raw, _ := json.Marshal(&ActorCreate{ProjectID: "p1", Name: long})

	if _, err := DecodeActorCreate(raw); err == nil {
		t.Error("expected error for over-long name")
	}

	ok, _ := json.Marshal(&ActorCreate{ProjectID: "p1", Name: strings.Repeat("a", MaxNameLength)})
	if _, err := DecodeActorCreate(ok); err != nil {
		t.Errorf("name at limit should pass, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(EventActorUpdated, "", &ActorUpdated{
		ActorID:  "a1",
		Position: Position{X: 15, Y: 25},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != EventActorUpdated {
		t.Errorf("Type = %q, want %q", env.Type, EventActorUpdated)
	}

	var p ActorUpdated
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if p.ActorID != "a1" || p.Position.X != 15 || p.Position.Y != 25 {
		t.Errorf("round trip mismatch: %+v", p)
	}
}

func TestEncodeAckCorrelation(t *testing.T) {
	data := MustEncode(EventAck, "req-3", &Ack{OK: true, ActorID: "a9"})

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.RequestID != "req-3" {
		t.Errorf("RequestID = %q, want req-3", env.RequestID)
	}

	var ack Ack
	if err := json.Unmarshal(env.Payload, &ack); err != nil {
		t.Fatalf("ack unmarshal failed: %v", err)
	}
	if !ack.OK || ack.ActorID != "a9" {
		t.Errorf("ack = %+v, want ok with actor a9", ack)
	}
}
