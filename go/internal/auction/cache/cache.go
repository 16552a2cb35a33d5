package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/internal/auction/events"
	"github.com/mcdev12/livebid/go/internal/auction/metrics"
)

// DefaultIdleGrace is how long an unsubscribed ACTIVE record is kept around
const DefaultIdleGrace = 2 * time.Minute

// ChangeFunc receives the record after every reconciled mutation
type ChangeFunc func(Record)

// Cache holds the last known state of every auction a session has looked at.
// Records are written by the reconciliation path (Apply) and the refetch path
// (Refresh); views only subscribe and read.
type Cache struct {
	clock     clockwork.Clock
	idleGrace time.Duration
	metrics   metrics.Collector

	mu      sync.RWMutex
	entries map[string]*entry
	nextSub uint64
}

type entry struct {
	record    Record
	subs      []subscriber
	pins      int
	idleSince time.Time
}

type subscriber struct {
	id uint64
	fn ChangeFunc
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the clock used for idle tracking
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithIdleGrace sets how long unreferenced ACTIVE records survive
func WithIdleGrace(d time.Duration) Option {
	return func(c *Cache) { c.idleGrace = d }
}

// WithMetrics sets the metrics collector
func WithMetrics(m metrics.Collector) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty auction state cache
func New(opts ...Option) *Cache {
	c := &Cache{
		clock:     clockwork.NewRealClock(),
		idleGrace: DefaultIdleGrace,
		metrics:   metrics.NoOpCollector{},
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers onChange for an auction. The record is created with
// safe defaults if the cache does not know it yet.
func (c *Cache) Subscribe(auctionID string, onChange ChangeFunc) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entryLocked(auctionID)
	c.nextSub++
	id := c.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: onChange})
	c.mu.Unlock()

	log.Debug().
		Str("auction_id", auctionID).
		Uint64("subscriber_id", id).
		Msg("view subscribed to auction")

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(auctionID, id) })
	}
}

func (c *Cache) unsubscribe(auctionID string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[auctionID]
	if !ok {
		return
	}
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			break
		}
	}
	c.releaseLocked(auctionID, e)
}

// Pin keeps a record alive while something other than a view depends on it,
// such as a pending bid. The returned release is idempotent.
func (c *Cache) Pin(auctionID string) (release func()) {
	c.mu.Lock()
	e := c.entryLocked(auctionID)
	e.pins++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[auctionID]; ok {
				e.pins--
				c.releaseLocked(auctionID, e)
			}
		})
	}
}

// releaseLocked starts the idle window once nothing references the record,
// dropping ENDED records right away.
func (c *Cache) releaseLocked(auctionID string, e *entry) {
	if len(e.subs) > 0 || e.pins > 0 {
		return
	}
	e.idleSince = c.clock.Now()
	if e.record.Ended() {
		delete(c.entries, auctionID)
		c.metrics.RecordCacheSize(len(c.entries))
		log.Debug().Str("auction_id", auctionID).Msg("evicted ended auction")
	}
}

// entryLocked returns the entry for auctionID, creating a default one
func (c *Cache) entryLocked(auctionID string) *entry {
	e, ok := c.entries[auctionID]
	if !ok {
		e = &entry{record: NewRecord(auctionID), idleSince: c.clock.Now()}
		c.entries[auctionID] = e
		c.metrics.RecordCacheSize(len(c.entries))
	}
	return e
}

// Get returns a copy of the cached record
func (c *Cache) Get(auctionID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[auctionID]
	if !ok {
		return Record{}, false
	}
	return e.record, true
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Apply reconciles one inbound event and reports whether it changed a record.
// Events without a cache rule, malformed payloads and events for ENDED
// auctions are ignored.
func (c *Cache) Apply(env events.Envelope) bool {
	apply, ok := rules[env.Type]
	if !ok {
		return false
	}

	payload, err := events.ParseEventPayload(env)
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(env.Type)).Msg("ignoring malformed auction event")
		c.metrics.RecordReconcile(string(env.Type), metrics.OutcomeMalformed)
		return false
	}
	auctionID := events.AuctionID(payload)
	if auctionID == "" {
		log.Warn().Str("event_type", string(env.Type)).Msg("ignoring auction event without auction id")
		c.metrics.RecordReconcile(string(env.Type), metrics.OutcomeMalformed)
		return false
	}

	c.mu.Lock()
	e := c.entryLocked(auctionID)
	if e.record.Ended() {
		c.mu.Unlock()
		c.metrics.RecordReconcile(string(env.Type), metrics.OutcomeIgnored)
		return false
	}
	next := e.record
	if !apply(&next, payload) {
		c.mu.Unlock()
		c.metrics.RecordReconcile(string(env.Type), metrics.OutcomeIgnored)
		return false
	}
	e.record = next
	subs := append([]subscriber(nil), e.subs...)
	c.mu.Unlock()

	c.metrics.RecordReconcile(string(env.Type), metrics.OutcomeApplied)
	log.Debug().
		Str("auction_id", auctionID).
		Str("event_type", string(env.Type)).
		Str("current_bid", next.CurrentBid.String()).
		Str("status", string(next.Status)).
		Msg("auction record reconciled")

	notify(subs, next)
	return true
}

// Refresh folds a full fetch from the backend into the cached record. It is
// the only way an ENDED record changes. A fetch can be older than events
// already applied, so an ACTIVE record never loses a higher bid to it.
func (c *Cache) Refresh(fetched Record) {
	c.mu.Lock()
	e := c.entryLocked(fetched.AuctionID)
	rec := merge(e.record, fetched)
	if e.record.equal(rec) {
		c.mu.Unlock()
		return
	}
	e.record = rec
	subs := append([]subscriber(nil), e.subs...)
	if rec.Ended() && len(e.subs) == 0 && e.pins == 0 {
		delete(c.entries, rec.AuctionID)
		c.metrics.RecordCacheSize(len(c.entries))
	}
	c.mu.Unlock()

	notify(subs, rec)
}

// Sweep evicts records nobody references that are ENDED or idle past the
// grace window. It returns the number of evicted records.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, e := range c.entries {
		if len(e.subs) > 0 || e.pins > 0 {
			continue
		}
		if e.record.Ended() || now.Sub(e.idleSince) >= c.idleGrace {
			delete(c.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		c.metrics.RecordCacheSize(len(c.entries))
		log.Debug().Int("evicted", evicted).Int("remaining", len(c.entries)).Msg("swept auction cache")
	}
	return evicted
}

// Run sweeps the cache on a fixed interval until ctx is done
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			c.Sweep(c.clock.Now())
		}
	}
}

func notify(subs []subscriber, rec Record) {
	for _, s := range subs {
		s.fn(rec)
	}
}
