package service

import (
	"context"
	"errors"
	"io"

	"github.com/psds-microservice/video-management-service/internal/config"
	"github.com/psds-microservice/video-management-service/internal/errs"
	"github.com/psds-microservice/video-management-service/internal/metrics"
	"github.com/psds-microservice/video-management-service/internal/model"
	"go.uber.org/zap"
)

// Actions carried in video_action analytics events.
const (
	EventVideoAction    = "video_action"
	ActionStreamStarted = "stream_started"
	ActionStreamStop    = "stream_stop"
	ActionDisconnect    = "disconnect"
)

// Asset is a resolved camera recording: a seekable byte source and its length.
type Asset struct {
	Source io.ReadCloser
	Length int64
}

// AssetStore resolves camera recordings and persists access counters.
type AssetStore interface {
	Resolve(ctx context.Context, cameraID string) (*Asset, error)
	RecordAccess(ctx context.Context, cameraID string) error
	AddPlayTime(ctx context.Context, cameraID string, seconds int64) error
}

// EventEmitter publishes analytics events. Fire-and-forget: implementations
// must never block the caller on delivery or surface publish failures.
type EventEmitter interface {
	Emit(eventType string, data map[string]any)
}

// Orchestrator owns the per-connection playback state machine: it validates
// control messages against the registry, drives the chunked reader, relays
// actions to room peers and emits analytics events. Control messages for one
// connection arrive sequentially (the WebSocket read loop); different
// connections run in parallel against the shared registry and rooms.
type Orchestrator struct {
	store    AssetStore
	events   EventEmitter
	registry *SessionRegistry
	rooms    *RoomBroadcaster
	cfg      *config.Config
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(store AssetStore, events EventEmitter, registry *SessionRegistry, rooms *RoomBroadcaster, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		events:   events,
		registry: registry,
		rooms:    rooms,
		cfg:      cfg,
		metrics:  m,
		log:      log,
	}
}

// HandleMessage dispatches one inbound control message for the connection.
func (o *Orchestrator) HandleMessage(ctx context.Context, c *Conn, msg model.ClientMessage) {
	switch msg.Type {
	case model.TypeStartStream:
		o.StartStream(ctx, c, msg.CameraID)
	case model.TypeStopStream:
		o.StopStream(ctx, c, msg.CameraID)
	case model.TypeVideoAction:
		o.HandleAction(ctx, c, msg.CameraID, msg.Action, msg.Payload)
	default:
		o.log.Warn("unknown message type",
			zap.String("connection_id", c.ID()),
			zap.String("message_type", msg.Type))
		_ = c.Send(ctx, model.NewError("Unknown message type"))
	}
}

// StartStream resolves the camera, opens a session, joins the room and starts
// chunked delivery to the originating connection. A session already open on
// the connection is finalized first, exactly as a stop would but without a
// separate stream_stop event.
func (o *Orchestrator) StartStream(ctx context.Context, c *Conn, cameraID string) {
	asset, err := o.store.Resolve(ctx, cameraID)
	if err != nil {
		if errors.Is(err, errs.ErrCameraNotFound) {
			_ = c.Send(ctx, model.NewError("Camera not found"))
			return
		}
		o.log.Error("resolve camera failed",
			zap.String("camera_id", cameraID), zap.Error(err))
		_ = c.Send(ctx, model.NewError("Internal server error"))
		return
	}

	c.sessMu.Lock()
	c.CancelStream()
	if prev, seconds, ok := o.registry.Close(c.ID()); ok {
		o.finalizeSession(ctx, c, prev, seconds, "")
	}
	sess := o.registry.Open(c.ID(), cameraID)
	o.rooms.Join(cameraID, c.ID(), c)
	o.metrics.ActiveSessions.Inc()
	c.sessMu.Unlock()
	o.metrics.StreamsStartedTotal.Inc()

	if err := o.store.RecordAccess(ctx, cameraID); err != nil {
		o.log.Warn("record camera access failed",
			zap.String("camera_id", cameraID), zap.Error(err))
	}

	sink := &connSink{orch: o, conn: c, cameraID: cameraID, sessionID: sess.ID}
	reader, err := NewStreamReader(asset.Source, asset.Length, o.cfg.ChunkSize, sink, o.log)
	if err != nil {
		_ = asset.Source.Close()
		o.log.Error("stream reader init failed", zap.Error(err))
		_ = c.Send(ctx, model.NewError("Failed to stream video file"))
		return
	}

	o.emitEvent(eventData(sess, c.Identity(), ActionStreamStarted, 0))

	// Status goes out before the first chunk can be produced.
	status := model.NewVideoStatus("Stream started", cameraID)
	status.Session = sess
	_ = c.Send(ctx, status)

	streamCtx := c.BeginStream()
	go reader.Run(streamCtx)

	o.log.Info("stream started",
		zap.String("connection_id", c.ID()),
		zap.String("session_id", sess.ID),
		zap.String("camera_id", cameraID),
		zap.Int64("length", asset.Length))
}

// StopStream cancels the active stream, finalizes the session and leaves the
// room. The confirmation status is sent whether or not a session was open.
func (o *Orchestrator) StopStream(ctx context.Context, c *Conn, cameraID string) {
	if sess, ok := o.closeSession(ctx, c, ActionStreamStop); ok && cameraID == "" {
		cameraID = sess.CameraID
	}
	_ = c.Send(ctx, model.NewVideoStatus("Stream stopped", cameraID))
}

// HandleAction relays a playback control action to room peers and emits the
// analytics event. With no open session the action is dropped with a warning;
// this silent-drop is deliberate, not an error path.
func (o *Orchestrator) HandleAction(ctx context.Context, c *Conn, cameraID, action string, payload map[string]any) {
	sess, ok := o.registry.Get(c.ID())
	if !ok {
		o.metrics.ActionsDroppedTotal.Inc()
		o.log.Warn("video action without active session",
			zap.String("connection_id", c.ID()),
			zap.String("action", action))
		return
	}
	if cameraID == "" {
		cameraID = sess.CameraID
	}

	id := c.Identity()
	data := map[string]any{
		"sessionId": sess.ID,
		"cameraId":  cameraID,
		"userId":    id.UserID,
		"username":  id.Username,
		"action":    action,
	}
	for k, v := range payload {
		if _, reserved := data[k]; !reserved {
			data[k] = v
		}
	}
	o.emitEvent(data)

	res := o.rooms.Relay(cameraID, c.ID(), model.VideoActionRelay{
		Action:   action,
		UserID:   id.UserID,
		Username: id.Username,
		Payload:  payload,
	})
	o.metrics.RelaysDeliveredTotal.Add(float64(res.Delivered))
	o.metrics.RelaysDroppedTotal.Add(float64(res.Dropped))
}

// Disconnect finalizes any open session (emitting the disconnect event) and
// tears down the connection. Idempotent.
func (o *Orchestrator) Disconnect(ctx context.Context, c *Conn) {
	o.closeSession(ctx, c, ActionDisconnect)
	c.Teardown()
}

// closeSession cancels the active stream, removes the session and room
// membership, records accumulated play time and emits the given action event.
// Returns the closed session, ok=false when none was open.
func (o *Orchestrator) closeSession(ctx context.Context, c *Conn, action string) (*model.Session, bool) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	c.CancelStream()
	sess, seconds, ok := o.registry.Close(c.ID())
	if !ok {
		return nil, false
	}
	o.finalizeSession(ctx, c, sess, seconds, action)
	return sess, true
}

// closeSessionIf is closeSession for the reader's end-of-source callback,
// which runs off the control path. The conditional close keeps a stale
// callback, racing a superseding start, from finalizing the successor session.
func (o *Orchestrator) closeSessionIf(ctx context.Context, c *Conn, sessionID, action string) bool {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	sess, seconds, ok := o.registry.CloseIf(c.ID(), sessionID)
	if !ok {
		return false
	}
	c.CancelStream()
	o.finalizeSession(ctx, c, sess, seconds, action)
	return true
}

// finalizeSession releases room membership and records play time for a session
// already removed from the registry. action == "" suppresses the event
// (superseding start). Callers hold c.sessMu.
func (o *Orchestrator) finalizeSession(ctx context.Context, c *Conn, sess *model.Session, seconds int64, action string) {
	o.rooms.Leave(sess.CameraID, c.ID())
	o.metrics.ActiveSessions.Dec()

	if err := o.store.AddPlayTime(ctx, sess.CameraID, seconds); err != nil {
		o.log.Warn("add play time failed",
			zap.String("camera_id", sess.CameraID), zap.Error(err))
	}
	if action != "" {
		o.emitEvent(eventData(sess, c.Identity(), action, seconds))
	}
	o.log.Info("session closed",
		zap.String("connection_id", c.ID()),
		zap.String("session_id", sess.ID),
		zap.String("camera_id", sess.CameraID),
		zap.Int64("duration_seconds", seconds))
}

func (o *Orchestrator) emitEvent(data map[string]any) {
	o.metrics.EventsPublishedTotal.Inc()
	o.events.Emit(EventVideoAction, data)
}

func eventData(sess *model.Session, id model.Identity, action string, duration int64) map[string]any {
	return map[string]any{
		"sessionId": sess.ID,
		"cameraId":  sess.CameraID,
		"userId":    id.UserID,
		"username":  id.Username,
		"action":    action,
		"duration":  duration,
	}
}

// connSink delivers reader output to the originating connection. WriteChunk
// rides the connection's blocking Send, which is the backpressure signal for
// the reader.
type connSink struct {
	orch      *Orchestrator
	conn      *Conn
	cameraID  string
	sessionID string
}

func (s *connSink) WriteChunk(ctx context.Context, chunk StreamChunk) error {
	msg := model.VideoData{
		Type:        model.TypeVideoData,
		Index:       chunk.Index,
		TotalChunks: chunk.TotalChunks,
		Length:      uint64(len(chunk.Data)),
		Data:        chunk.Data,
	}
	if err := s.conn.Send(ctx, msg); err != nil {
		return err
	}
	s.orch.metrics.ChunksSentTotal.Inc()
	s.orch.metrics.BytesSentTotal.Add(float64(len(chunk.Data)))
	return nil
}

func (s *connSink) StreamEnded() {
	_ = s.conn.Send(s.conn.baseCtx, model.NewVideoStatus("Stream ended", s.cameraID))
	// Ending delivery does not end the session by default: the viewer finished
	// watching but is still connected.
	if s.orch.cfg.AutoCloseOnEnd {
		if s.orch.closeSessionIf(s.conn.baseCtx, s.conn, s.sessionID, ActionStreamStop) {
			_ = s.conn.Send(s.conn.baseCtx, model.NewVideoStatus("Stream stopped", s.cameraID))
		}
	}
}

func (s *connSink) StreamFailed(reason error) {
	s.orch.metrics.StreamsFailedTotal.Inc()
	s.orch.log.Warn("stream delivery failed",
		zap.String("connection_id", s.conn.ID()),
		zap.String("camera_id", s.cameraID),
		zap.Error(reason))
	_ = s.conn.Send(s.conn.baseCtx, model.NewError("Failed to stream video file"))
}
