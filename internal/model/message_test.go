package model

import (
	"encoding/json"
	"testing"
)

func TestClientMessage_unmarshalKnownFields(t *testing.T) {
	raw := `{"type":"start-video-stream","cameraId":"cam1"}`
	var m ClientMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type != TypeStartStream || m.CameraID != "cam1" || m.Action != "" {
		t.Errorf("got %+v", m)
	}
	if m.Payload != nil {
		t.Errorf("payload should be empty, got %v", m.Payload)
	}
}

func TestClientMessage_extraKeysBecomePayload(t *testing.T) {
	raw := `{"type":"video-action","cameraId":"cam1","action":"seek","position":42,"speed":1.5}`
	var m ClientMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Action != "seek" {
		t.Errorf("action = %q", m.Action)
	}
	if m.Payload["position"] != float64(42) || m.Payload["speed"] != 1.5 {
		t.Errorf("payload = %v", m.Payload)
	}
	if _, ok := m.Payload["type"]; ok {
		t.Error("known keys must not leak into the payload")
	}
}

func TestVideoActionRelay_marshalFlattensPayload(t *testing.T) {
	r := VideoActionRelay{
		Action:   "pause",
		UserID:   "u1",
		Username: "alice",
		Payload:  map[string]any{"position": 12.5},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != TypeVideoAction || out["action"] != "pause" {
		t.Errorf("got %v", out)
	}
	if out["userId"] != "u1" || out["username"] != "alice" {
		t.Errorf("identity fields: %v", out)
	}
	if out["position"] != 12.5 {
		t.Errorf("payload not flattened: %v", out)
	}
}

func TestVideoActionRelay_payloadCannotOverrideIdentity(t *testing.T) {
	r := VideoActionRelay{
		Action:   "pause",
		UserID:   "u1",
		Username: "alice",
		Payload:  map[string]any{"userId": "spoofed"},
	}
	data, _ := json.Marshal(r)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	if out["userId"] != "u1" {
		t.Errorf("userId = %v, payload must not override the sender identity", out["userId"])
	}
}

func TestVideoData_marshalBase64(t *testing.T) {
	d := VideoData{Type: TypeVideoData, Index: 1, TotalChunks: 2, Length: 3, Data: []byte{1, 2, 3}}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	if out["data"] != "AQID" {
		t.Errorf("data = %v, want base64 AQID", out["data"])
	}
}
