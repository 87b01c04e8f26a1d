package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
)

type recorder struct {
	mu   sync.Mutex
	seqs map[string][]uint64
	fail bool
}

func newRecorder() *recorder { return &recorder{seqs: make(map[string][]uint64)} }

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Deliver(ctx context.Context, ev models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs[ev.SessionCode] = append(r.seqs[ev.SessionCode], ev.Seq)
	if r.fail {
		return errors.New("transport down")
	}
	return nil
}

func (r *recorder) get(code string) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs[code]...)
}

func event(code string, seq uint64) models.Event {
	return models.Event{Type: models.BalanceUpdated, SessionCode: code, Seq: seq}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for delivery")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDispatcherReorders(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(16, time.Minute, rec, LogSink{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(event("A", 1))
	d.Enqueue(event("A", 3), event("B", 7))
	d.Enqueue(event("A", 4))
	d.Enqueue(event("A", 2))

	waitFor(t, func() bool { return len(rec.get("A")) == 4 && len(rec.get("B")) == 1 })
	if got := rec.get("A"); !equal(got, []uint64{1, 2, 3, 4}) {
		t.Errorf("session A delivered %v", got)
	}
}

func TestDispatcherSkipsTimedOutGap(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(16, 40*time.Millisecond, rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(event("A", 1), event("A", 3), event("A", 4))
	waitFor(t, func() bool { return len(rec.get("A")) == 3 })
	if got := rec.get("A"); !equal(got, []uint64{1, 3, 4}) {
		t.Errorf("delivered %v", got)
	}
}

func TestDispatcherSurvivesSinkFailure(t *testing.T) {
	rec := newRecorder()
	rec.fail = true
	d := NewDispatcher(16, time.Minute, rec)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	d.Enqueue(event("A", 1), event("A", 2))
	waitFor(t, func() bool { return len(rec.get("A")) == 2 })
	cancel()
	<-d.Done()

	// enqueue after shutdown is a no-op
	d.Enqueue(event("A", 3))
	if got := rec.get("A"); len(got) != 2 {
		t.Errorf("delivered %v after shutdown", got)
	}
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(16, time.Minute, rec)
	d.Enqueue(event("A", 5), event("A", 7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if got := rec.get("A"); !equal(got, []uint64{5, 7}) {
		t.Errorf("drained %v", got)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(1, time.Minute, rec)
	d.Enqueue(event("A", 1), event("A", 2))
	if len(d.queue) != 1 {
		t.Fatalf("queue holds %d events", len(d.queue))
	}
}
