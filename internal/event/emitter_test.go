package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeBus struct {
	payloads chan []byte
	err      error
}

func (f *fakeBus) Publish(ctx context.Context, payload []byte) error {
	if f.payloads != nil {
		f.payloads <- payload
	}
	return f.err
}

func TestEmitter_envelopeShape(t *testing.T) {
	bus := &fakeBus{payloads: make(chan []byte, 1)}
	e := NewEmitter(bus, zap.NewNop())
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	e.Emit("video_action", map[string]any{"sessionId": "s1", "action": "stream_started"})

	var payload []byte
	select {
	case payload = <-bus.payloads:
	case <-time.After(2 * time.Second):
		t.Fatal("publish never happened")
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.EventType != "video_action" || env.Source != Source {
		t.Errorf("envelope: %+v", env)
	}
	if env.Timestamp != fixed.Format(time.RFC3339) {
		t.Errorf("timestamp = %q", env.Timestamp)
	}
	if env.Data["sessionId"] != "s1" || env.Data["action"] != "stream_started" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestEmitter_publishFailureIsSwallowed(t *testing.T) {
	bus := &fakeBus{payloads: make(chan []byte, 1), err: errors.New("broker down")}
	e := NewEmitter(bus, zap.NewNop())

	// Must not panic and must not block the caller.
	e.Emit("video_action", map[string]any{"action": "stream_stop"})
	select {
	case <-bus.payloads:
	case <-time.After(2 * time.Second):
		t.Fatal("publish never attempted")
	}
}

func TestEmitter_preservesEmissionOrder(t *testing.T) {
	bus := &fakeBus{payloads: make(chan []byte, 16)}
	e := NewEmitter(bus, zap.NewNop())

	actions := []string{"stream_started", "pause", "seek", "stream_stop"}
	for _, a := range actions {
		e.Emit("video_action", map[string]any{"action": a})
	}

	for i, want := range actions {
		var payload []byte
		select {
		case payload = <-bus.payloads:
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d never published", i)
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			t.Fatalf("unmarshal envelope %d: %v", i, err)
		}
		if env.Data["action"] != want {
			t.Fatalf("event %d: action %v, want %q", i, env.Data["action"], want)
		}
	}
}

func TestEmitter_nilBusDropsEvent(t *testing.T) {
	e := NewEmitter(nil, zap.NewNop())
	e.Emit("video_action", map[string]any{"action": "disconnect"}) // no panic
}
