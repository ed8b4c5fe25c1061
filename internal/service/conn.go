package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/psds-microservice/video-management-service/internal/errs"
	"github.com/psds-microservice/video-management-service/internal/model"
	"go.uber.org/zap"
)

// Conn wraps one authenticated WebSocket channel: identity, the outbound send
// queue drained by the handler's write pump, and the single active-stream slot.
//
// Two send disciplines: Send blocks until the queue has room (flow control for
// the connection's own chunks and statuses), TrySend drops when the queue is
// full (best-effort peer relays).
type Conn struct {
	id       string
	identity model.Identity
	baseCtx  context.Context
	log      *zap.Logger

	send chan []byte
	done chan struct{}

	mu           sync.Mutex
	closed       bool
	cancelStream context.CancelFunc

	// sessMu serializes session open/close for this connection between the
	// control path and reader end-of-source callbacks.
	sessMu sync.Mutex

	teardownOnce sync.Once
}

// NewConn creates a connection context. baseCtx bounds the lifetime of streams
// started on this connection (normally the application context).
func NewConn(baseCtx context.Context, identity model.Identity, sendBuffer int, log *zap.Logger) *Conn {
	return &Conn{
		id:       uuid.New().String(),
		identity: identity,
		baseCtx:  baseCtx,
		log:      log,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// ID returns the opaque connection identifier.
func (c *Conn) ID() string { return c.id }

// Identity returns the authenticated principal.
func (c *Conn) Identity() model.Identity { return c.identity }

// Outbound is the queue the write pump drains. It is never closed; Done
// signals shutdown instead.
func (c *Conn) Outbound() <-chan []byte { return c.send }

// Done is closed when the connection is torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Send marshals v and queues it, blocking while the queue is saturated.
func (c *Conn) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errs.ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errs.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend marshals v and queues it without blocking. Returns false if the
// queue is full or the connection is torn down.
func (c *Conn) TrySend(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// BeginStream cancels any prior active stream and adopts a fresh stream
// context derived from the connection's base context.
func (c *Conn) BeginStream() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	if c.closed {
		cancel()
		return ctx
	}
	c.cancelStream = cancel
	return ctx
}

// CancelStream cancels the active stream, if any. Idempotent.
func (c *Conn) CancelStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
}

// Teardown cancels the active stream and releases the outbound queue.
// Safe to call multiple times.
func (c *Conn) Teardown() {
	c.teardownOnce.Do(func() {
		c.CancelStream()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		c.log.Info("connection torn down",
			zap.String("connection_id", c.id),
			zap.String("user_id", c.identity.UserID))
	})
}
