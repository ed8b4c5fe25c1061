package model

import "encoding/json"

// Client-to-server message types.
const (
	TypeStartStream = "start-video-stream"
	TypeStopStream  = "stop-video-stream"
	TypeVideoAction = "video-action"
)

// Server-to-client message types.
const (
	TypeVideoData   = "video-data"
	TypeVideoStatus = "video-status"
	TypeError       = "error"
)

// ClientMessage is the inbound control envelope. Keys other than type,
// cameraId and action are kept as the action payload (clients send arbitrary
// action-specific fields at the top level, e.g. {"action":"seek","position":42}).
type ClientMessage struct {
	Type     string
	CameraID string
	Action   string
	Payload  map[string]any
}

func (m *ClientMessage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := map[string]*string{
		"type":     &m.Type,
		"cameraId": &m.CameraID,
		"action":   &m.Action,
	}
	for k, dst := range known {
		if v, ok := raw[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		m.Payload = nil
		return nil
	}
	m.Payload = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		m.Payload[k] = val
	}
	return nil
}

// VideoData is one chunk of the asset, sent point-to-point to the originator.
type VideoData struct {
	Type        string `json:"type"`
	Index       uint64 `json:"index"`
	TotalChunks uint64 `json:"totalChunks"`
	Length      uint64 `json:"length"`
	Data        []byte `json:"data"`
}

// VideoStatus reports stream lifecycle to the originator.
type VideoStatus struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	CameraID string   `json:"cameraId,omitempty"`
	Session  *Session `json:"session,omitempty"`
}

// ErrorMessage is a user-visible error.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// VideoActionRelay is a control action forwarded to room peers. The action
// payload is flattened into the top-level object, matching the inbound shape.
type VideoActionRelay struct {
	Action   string
	UserID   string
	Username string
	Payload  map[string]any
}

func (r VideoActionRelay) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["type"] = TypeVideoAction
	out["action"] = r.Action
	out["userId"] = r.UserID
	out["username"] = r.Username
	return json.Marshal(out)
}

// NewVideoStatus builds a video-status message.
func NewVideoStatus(message, cameraID string) VideoStatus {
	return VideoStatus{Type: TypeVideoStatus, Message: message, CameraID: cameraID}
}

// NewError builds an error message.
func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}
