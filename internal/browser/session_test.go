package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context never cancelled")
	}
}

func TestOp_CallerCancellationPropagates(t *testing.T) {
	s := &session{ctx: context.Background(), cancel: func() {}}

	runCtx, stopRun := context.WithCancel(context.Background())
	opCtx, cancel := s.op(runCtx, time.Minute)
	defer cancel()

	stopRun()
	waitDone(t, opCtx)
	if !errors.Is(opCtx.Err(), context.Canceled) {
		t.Fatalf("expected canceled, got %v", opCtx.Err())
	}
}

func TestOp_TimeoutBoundsTheCall(t *testing.T) {
	s := &session{ctx: context.Background(), cancel: func() {}}

	opCtx, cancel := s.op(context.Background(), 10*time.Millisecond)
	defer cancel()

	waitDone(t, opCtx)
	if !errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", opCtx.Err())
	}
}

func TestOp_TabTeardownPropagates(t *testing.T) {
	tabCtx, closeTab := context.WithCancel(context.Background())
	s := &session{ctx: tabCtx, cancel: closeTab}

	opCtx, cancel := s.op(context.Background(), time.Minute)
	defer cancel()

	s.Close()
	waitDone(t, opCtx)
}

func TestOp_CancelIsIdempotent(t *testing.T) {
	s := &session{ctx: context.Background(), cancel: func() {}}

	opCtx, cancel := s.op(context.Background(), time.Minute)
	cancel()
	cancel()
	waitDone(t, opCtx)
}

func TestFrameIDs(t *testing.T) {
	if got := frameIDLocal(3); got != "iframe:3" {
		t.Fatalf("unexpected local frame id %q", got)
	}
	if got := frameIDTarget("ABC123"); got != "target:ABC123" {
		t.Fatalf("unexpected target frame id %q", got)
	}
}
