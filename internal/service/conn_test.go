package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/psds-microservice/video-management-service/internal/errs"
	"github.com/psds-microservice/video-management-service/internal/model"
	"go.uber.org/zap"
)

func newTestConn(buffer int) *Conn {
	return NewConn(context.Background(), model.Identity{UserID: "u1", Username: "alice"}, buffer, zap.NewNop())
}

func TestConn_sendAndReceive(t *testing.T) {
	c := newTestConn(4)
	if err := c.Send(context.Background(), model.NewError("boom")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case data := <-c.Outbound():
		var msg model.ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Message != "boom" {
			t.Errorf("got %s", data)
		}
	default:
		t.Fatal("expected a queued message")
	}
}

func TestConn_sendBlocksWhenSaturated(t *testing.T) {
	c := newTestConn(1)
	if err := c.Send(context.Background(), model.NewError("first")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Send(ctx, model.NewError("second")); err != context.DeadlineExceeded {
		t.Errorf("Send on full queue = %v, want deadline exceeded", err)
	}
}

func TestConn_trySendDropsWhenFull(t *testing.T) {
	c := newTestConn(1)
	if !c.TrySend(model.NewError("first")) {
		t.Fatal("first TrySend should succeed")
	}
	if c.TrySend(model.NewError("second")) {
		t.Error("TrySend on a full queue should report false")
	}
}

func TestConn_teardownIdempotent(t *testing.T) {
	c := newTestConn(1)
	c.Teardown()
	c.Teardown() // must not panic

	if err := c.Send(context.Background(), model.NewError("x")); err != errs.ErrConnectionClosed {
		t.Errorf("Send after teardown = %v, want ErrConnectionClosed", err)
	}
	if c.TrySend(model.NewError("x")) {
		t.Error("TrySend after teardown should report false")
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done should be closed after teardown")
	}
}

func TestConn_beginStreamCancelsPrevious(t *testing.T) {
	c := newTestConn(1)
	first := c.BeginStream()
	second := c.BeginStream()

	select {
	case <-first.Done():
	default:
		t.Error("prior stream context should be cancelled by a new BeginStream")
	}
	if second.Err() != nil {
		t.Error("fresh stream context should be live")
	}

	c.CancelStream()
	if second.Err() == nil {
		t.Error("CancelStream should cancel the active stream context")
	}
	c.CancelStream() // idempotent
}

func TestConn_teardownCancelsStream(t *testing.T) {
	c := newTestConn(1)
	streamCtx := c.BeginStream()
	c.Teardown()
	if streamCtx.Err() == nil {
		t.Error("teardown should cancel the active stream")
	}
}
