// Package notify fans committed events out to subscribers. Delivery is best
// effort: a failing sink is logged and counted, never retried into the
// economy.
package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	log "github.com/sirupsen/logrus"
)

// Sink delivers one event to a transport.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.Event) error
}

// Dispatcher delivers events to every sink in per-session sequence order.
// Events that arrive ahead of a gap are held until the gap fills or the gap
// timeout passes, after which delivery skips ahead.
type Dispatcher struct {
	sinks      []Sink
	queue      chan models.Event
	gapTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*reorder
	closed   bool
	done     chan struct{}
}

// reorder is the per-session ordering state.
type reorder struct {
	next    uint64
	pending map[uint64]models.Event
	since   time.Time
}

func NewDispatcher(buffer int, gapTimeout time.Duration, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:      sinks,
		queue:      make(chan models.Event, buffer),
		gapTimeout: gapTimeout,
		sessions:   make(map[string]*reorder),
		done:       make(chan struct{}),
	}
}

// AddSink registers s. It must be called before Run.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Enqueue never blocks. When the buffer is full the event is dropped.
func (d *Dispatcher) Enqueue(events ...models.Event) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	for _, ev := range events {
		select {
		case d.queue <- ev:
		default:
			metrics.Dropped()
			log.WithFields(log.Fields{
				"component": "notify",
				"session":   ev.SessionCode,
				"type":      ev.Type,
				"seq":       ev.Seq,
			}).Error("notification buffer full, event dropped")
		}
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already buffered.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	tick := d.gapTimeout / 2
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case ev := <-d.queue:
			d.accept(ctx, ev)
		case <-ticker.C:
			d.expire(ctx, time.Now())
		case <-ctx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()
			d.drain()
			return
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-d.queue:
			d.accept(ctx, ev)
		default:
			d.expire(ctx, time.Now().Add(d.gapTimeout+time.Nanosecond))
			return
		}
	}
}

func (d *Dispatcher) accept(ctx context.Context, ev models.Event) {
	if ev.Seq == 0 {
		d.deliver(ctx, ev)
		return
	}
	r, ok := d.sessions[ev.SessionCode]
	if !ok {
		r = &reorder{next: ev.Seq, pending: make(map[uint64]models.Event)}
		d.sessions[ev.SessionCode] = r
	}
	if ev.Seq < r.next {
		log.WithFields(log.Fields{"component": "notify", "session": ev.SessionCode, "seq": ev.Seq}).
			Warn("late event delivered out of order")
		d.deliver(ctx, ev)
		return
	}
	if len(r.pending) == 0 {
		r.since = time.Now()
	}
	r.pending[ev.Seq] = ev
	d.flush(ctx, ev.SessionCode, r)
}

// flush delivers the contiguous run starting at r.next.
func (d *Dispatcher) flush(ctx context.Context, code string, r *reorder) {
	for {
		ev, ok := r.pending[r.next]
		if !ok {
			break
		}
		delete(r.pending, r.next)
		r.next++
		d.deliver(ctx, ev)
		if ev.Type == models.SessionDeleted {
			for _, seq := range sortedSeqs(r.pending) {
				d.deliver(ctx, r.pending[seq])
			}
			delete(d.sessions, code)
			return
		}
	}
	if len(r.pending) > 0 {
		r.since = time.Now()
	}
}

// expire skips gaps that have been open longer than the gap timeout.
func (d *Dispatcher) expire(ctx context.Context, now time.Time) {
	for code, r := range d.sessions {
		if len(r.pending) == 0 || now.Sub(r.since) < d.gapTimeout {
			continue
		}
		seqs := sortedSeqs(r.pending)
		log.WithFields(log.Fields{
			"component": "notify",
			"session":   code,
			"missing":   r.next,
			"resume":    seqs[0],
		}).Warn("gap in event sequence timed out")
		r.next = seqs[0]
		d.flush(ctx, code, r)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.Event) {
	for _, s := range d.sinks {
		err := s.Deliver(ctx, ev)
		metrics.Notification(s.Name(), err)
		if err != nil {
			log.WithFields(log.Fields{
				"component": "notify",
				"sink":      s.Name(),
				"session":   ev.SessionCode,
				"type":      ev.Type,
				"seq":       ev.Seq,
			}).WithError(err).Error("notification failed")
		}
	}
}

func sortedSeqs(pending map[uint64]models.Event) []uint64 {
	seqs := make([]uint64, 0, len(pending))
	for seq := range pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}
