package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source identifies this service in event envelopes.
const Source = "video-management-service"

// BusPublisher is the publish-only side of the external event bus.
type BusPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Envelope is the normalized record published for every event.
type Envelope struct {
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
	Source    string         `json:"source"`
}

type queuedEvent struct {
	eventType string
	payload   []byte
}

// Emitter translates orchestrator occurrences into envelopes and publishes
// them to the bus. Publication is fire-and-forget: failures are logged and
// swallowed, never surfaced to the viewer. A single publisher goroutine drains
// the queue, so events reach the bus in emission order.
type Emitter struct {
	bus     BusPublisher
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration

	queue     chan queuedEvent
	quit      chan struct{}
	closeOnce sync.Once
}

// NewEmitter creates an emitter. bus may be nil (events are then dropped with
// a debug log), so the service runs without a broker in development.
func NewEmitter(bus BusPublisher, log *zap.Logger) *Emitter {
	e := &Emitter{
		bus:     bus,
		log:     log,
		now:     time.Now,
		timeout: 10 * time.Second,
		queue:   make(chan queuedEvent, 256),
		quit:    make(chan struct{}),
	}
	if bus != nil {
		go e.publishLoop()
	}
	return e
}

// Emit builds the envelope and queues it for publication. Never blocks: a full
// queue drops the event with a warning.
func (e *Emitter) Emit(eventType string, data map[string]any) {
	if e.bus == nil {
		e.log.Debug("event bus not configured, dropping event",
			zap.String("event_type", eventType))
		return
	}
	env := Envelope{
		EventType: eventType,
		Data:      data,
		Timestamp: e.now().UTC().Format(time.RFC3339),
		Source:    Source,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		e.log.Warn("event marshal failed",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}
	select {
	case e.queue <- queuedEvent{eventType: eventType, payload: payload}:
	default:
		e.log.Warn("event queue full, dropping event",
			zap.String("event_type", eventType))
	}
}

// Close stops the publisher goroutine after draining the queued events.
// Events emitted afterwards stay in the queue and are never published.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() { close(e.quit) })
}

func (e *Emitter) publishLoop() {
	for {
		select {
		case ev := <-e.queue:
			e.publish(ev)
		case <-e.quit:
			for {
				select {
				case ev := <-e.queue:
					e.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) publish(ev queuedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := e.bus.Publish(ctx, ev.payload); err != nil {
		e.log.Warn("event publish failed",
			zap.String("event_type", ev.eventType), zap.Error(err))
	}
}
