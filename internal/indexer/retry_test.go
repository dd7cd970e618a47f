package indexer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForStoreRecovers(t *testing.T) {
	p := &flakyPinger{failures: 2}
	if err := WaitForStore(context.Background(), p, 3, time.Millisecond, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 pings, got %d", p.calls)
	}
}

func TestWaitForStoreGivesUp(t *testing.T) {
	p := &flakyPinger{failures: 10}
	if err := WaitForStore(context.Background(), p, 2, time.Millisecond, nil); err == nil {
		t.Fatalf("expected error after retries")
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 pings, got %d", p.calls)
	}
}

func TestWaitForStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyPinger{failures: 10}
	err := WaitForStore(ctx, p, 5, time.Hour, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
