package service

import (
	"testing"
	"time"
)

func TestSessionRegistry_openGetClose(t *testing.T) {
	reg := NewSessionRegistry()

	if _, ok := reg.Get("conn1"); ok {
		t.Error("expected no session for fresh registry")
	}

	sess := reg.Open("conn1", "cam1")
	if sess.ID == "" || sess.CameraID != "cam1" {
		t.Fatalf("Open: %+v", sess)
	}
	got, ok := reg.Get("conn1")
	if !ok || got != sess {
		t.Fatalf("Get: ok=%v got=%p want=%p", ok, got, sess)
	}
	if reg.Count() != 1 {
		t.Errorf("Count = %d, want 1", reg.Count())
	}

	closed, _, ok := reg.Close("conn1")
	if !ok || closed != sess {
		t.Fatalf("Close: ok=%v got=%p want=%p", ok, closed, sess)
	}
	if reg.Count() != 0 {
		t.Errorf("Count after close = %d, want 0", reg.Count())
	}
}

func TestSessionRegistry_closeIdempotent(t *testing.T) {
	reg := NewSessionRegistry()
	reg.Open("conn1", "cam1")
	if _, _, ok := reg.Close("conn1"); !ok {
		t.Fatal("first close should find the session")
	}
	if _, _, ok := reg.Close("conn1"); ok {
		t.Error("second close should return ok=false")
	}
	if _, _, ok := reg.Close("never-opened"); ok {
		t.Error("close without open should return ok=false")
	}
}

func TestSessionRegistry_uniqueSessionIDs(t *testing.T) {
	reg := NewSessionRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := reg.Open("conn1", "cam1")
		if seen[sess.ID] {
			t.Fatalf("duplicate session id %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestSessionRegistry_openReplaces(t *testing.T) {
	reg := NewSessionRegistry()
	first := reg.Open("conn1", "cam1")
	second := reg.Open("conn1", "cam2")
	got, ok := reg.Get("conn1")
	if !ok || got != second || got == first {
		t.Fatalf("Get after reopen: %+v", got)
	}
	if reg.Count() != 1 {
		t.Errorf("Count = %d, want 1 after replacement", reg.Count())
	}
}

func TestSessionRegistry_closeIfMatchesCurrentSessionOnly(t *testing.T) {
	reg := NewSessionRegistry()
	first := reg.Open("conn1", "cam1")
	second := reg.Open("conn1", "cam2")

	if _, _, ok := reg.CloseIf("conn1", first.ID); ok {
		t.Error("CloseIf with a replaced session id must not close anything")
	}
	if got, ok := reg.Get("conn1"); !ok || got != second {
		t.Fatal("current session must survive a stale CloseIf")
	}

	if _, _, ok := reg.CloseIf("conn1", second.ID); !ok {
		t.Error("CloseIf with the current session id should close it")
	}
	if reg.Count() != 0 {
		t.Errorf("Count = %d, want 0", reg.Count())
	}
	if _, _, ok := reg.CloseIf("conn1", second.ID); ok {
		t.Error("CloseIf after close should return ok=false")
	}
}

func TestSessionRegistry_durationSeconds(t *testing.T) {
	reg := NewSessionRegistry()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return t0 }
	reg.Open("conn1", "cam1")

	reg.now = func() time.Time { return t0.Add(42*time.Second + 700*time.Millisecond) }
	_, seconds, ok := reg.Close("conn1")
	if !ok {
		t.Fatal("Close: session missing")
	}
	if seconds != 42 {
		t.Errorf("seconds = %d, want 42 (whole seconds)", seconds)
	}
}
