package service

import (
	"sync"

	"github.com/psds-microservice/video-management-service/internal/model"
	"go.uber.org/zap"
)

// RelayTarget is the transport end of a room member. TrySend must not block;
// it reports whether the message was queued.
type RelayTarget interface {
	TrySend(v any) bool
}

// RelayResult reports fan-out delivery counts.
type RelayResult struct {
	Delivered int
	Dropped   int
}

// RoomBroadcaster maps camera IDs to the connections currently viewing that
// camera and relays control actions to peers, excluding the sender. Shared
// across all connections; membership mutation is linearized by the lock, so a
// member removed by Leave is excluded from every relay issued afterwards.
type RoomBroadcaster struct {
	mu    sync.RWMutex
	rooms map[string]map[string]RelayTarget // cameraID -> connectionID -> target
	log   *zap.Logger
}

// NewRoomBroadcaster creates an empty broadcaster.
func NewRoomBroadcaster(log *zap.Logger) *RoomBroadcaster {
	return &RoomBroadcaster{
		rooms: make(map[string]map[string]RelayTarget),
		log:   log,
	}
}

// Join adds the connection to the camera's room. Idempotent.
func (b *RoomBroadcaster) Join(cameraID, connID string, target RelayTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[cameraID]
	if !ok {
		room = make(map[string]RelayTarget)
		b.rooms[cameraID] = room
	}
	room[connID] = target
}

// Leave removes the connection from the camera's room. Idempotent; empty
// rooms are dropped.
func (b *RoomBroadcaster) Leave(cameraID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[cameraID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(b.rooms, cameraID)
	}
}

// Relay delivers the action to every member of the camera's room except the
// sender. Best-effort: a full peer queue drops the message for that peer only.
func (b *RoomBroadcaster) Relay(cameraID, fromConnID string, msg model.VideoActionRelay) RelayResult {
	b.mu.RLock()
	room := b.rooms[cameraID]
	targets := make(map[string]RelayTarget, len(room))
	for connID, t := range room {
		if connID != fromConnID {
			targets[connID] = t
		}
	}
	b.mu.RUnlock()

	var res RelayResult
	for connID, t := range targets {
		if t.TrySend(msg) {
			res.Delivered++
		} else {
			res.Dropped++
			b.log.Warn("relay dropped: peer send queue full",
				zap.String("camera_id", cameraID),
				zap.String("connection_id", connID),
				zap.String("action", msg.Action))
		}
	}
	return res
}

// Members returns the current size of the camera's room.
func (b *RoomBroadcaster) Members(cameraID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[cameraID])
}
