package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/internal/auction/metrics"
)

// Kind is the severity of a notification
type Kind string

const (
	KindInfo    Kind = "INFO"
	KindSuccess Kind = "SUCCESS"
	KindError   Kind = "ERROR"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 5000 * time.Millisecond

// Notification is an immutable, time-bounded message for the user
type Notification struct {
	ID        uint64        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// ExpiresAt is the first instant at which the notification is gone
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.TTL)
}

// Alive reports whether the notification is still visible at now
func (n Notification) Alive(now time.Time) bool {
	return now.Before(n.ExpiresAt())
}

// ChangeFunc receives the visible notifications after every change
type ChangeFunc func(active []Notification)

// Feed is a self-cleaning FIFO of notifications. The TTL is the same for every
// entry and ids and timestamps are assigned under the lock, so the front of
// the queue always expires first.
type Feed struct {
	clock   clockwork.Clock
	ttl     time.Duration
	metrics metrics.Collector

	mu      sync.Mutex
	queue   *deque.Deque[Notification]
	nextID  uint64
	closed  bool
	subs    map[uint64]ChangeFunc
	nextSub uint64
}

// Option configures a Feed
type Option func(*Feed)

// WithClock sets the clock used for timestamps and eviction
func WithClock(clock clockwork.Clock) Option {
	return func(f *Feed) { f.clock = clock }
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(f *Feed) { f.ttl = ttl }
}

// WithMetrics sets the metrics collector
func WithMetrics(m metrics.Collector) Option {
	return func(f *Feed) { f.metrics = m }
}

// NewFeed creates an empty feed
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		clock:   clockwork.NewRealClock(),
		ttl:     DefaultTTL,
		metrics: metrics.NoOpCollector{},
		queue:   deque.New[Notification](),
		subs:    make(map[uint64]ChangeFunc),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Push appends a notification and returns its id. Pushing to a closed feed
// is a no-op that returns 0.
func (f *Feed) Push(kind Kind, message string) uint64 {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0
	}
	f.nextID++
	n := Notification{
		ID:        f.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: f.clock.Now(),
		TTL:       f.ttl,
	}
	f.queue.PushBack(n)
	active, subs := f.snapshotLocked(n.CreatedAt)
	f.mu.Unlock()

	f.metrics.RecordNotification(string(kind))
	log.Debug().
		Uint64("notification_id", n.ID).
		Str("kind", string(kind)).
		Str("message", message).
		Msg("notification pushed")

	publish(subs, active)
	return n.ID
}

// Tick removes every notification whose createdAt+ttl is at or before now
// and returns the removed entries.
func (f *Feed) Tick(now time.Time) []Notification {
	f.mu.Lock()
	var removed []Notification
	for f.queue.Len() > 0 && !f.queue.Front().Alive(now) {
		removed = append(removed, f.queue.PopFront())
	}
	if len(removed) == 0 {
		f.mu.Unlock()
		return nil
	}
	active, subs := f.snapshotLocked(now)
	f.mu.Unlock()

	publish(subs, active)
	return removed
}

// Active returns the notifications visible at the clock's current time,
// whether or not a tick has run since the others expired.
func (f *Feed) Active() []Notification {
	now := f.clock.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aliveLocked(now)
}

// Len returns the number of stored notifications, including expired ones a
// tick has not removed yet
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Subscribe registers fn for every change to the visible set
func (f *Feed) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Run evicts expired notifications on a fixed interval until ctx is done
func (f *Feed) Run(ctx context.Context, interval time.Duration) error {
	ticker := f.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			f.Tick(f.clock.Now())
		}
	}
}

// Close tears the feed down, dropping every remaining notification
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.queue.Clear()
	f.subs = make(map[uint64]ChangeFunc)
}

func (f *Feed) aliveLocked(now time.Time) []Notification {
	active := make([]Notification, 0, f.queue.Len())
	for i := 0; i < f.queue.Len(); i++ {
		if n := f.queue.At(i); n.Alive(now) {
			active = append(active, n)
		}
	}
	return active
}

func (f *Feed) snapshotLocked(now time.Time) ([]Notification, []ChangeFunc) {
	if len(f.subs) == 0 {
		return nil, nil
	}
	subs := make([]ChangeFunc, 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return f.aliveLocked(now), subs
}

func publish(subs []ChangeFunc, active []Notification) {
	for _, fn := range subs {
		fn(active)
	}
}
