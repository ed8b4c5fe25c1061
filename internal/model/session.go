package model

import "time"

// Session is one viewer's playback attempt for one camera, from start until
// stop, disconnect, or replacement by a new start on the same connection.
type Session struct {
	ID        string    `json:"sessionId"`
	CameraID  string    `json:"cameraId"`
	StartTime time.Time `json:"startTime"`
}

// Duration returns whole seconds elapsed since the session started.
func (s *Session) Duration(now time.Time) int64 {
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
