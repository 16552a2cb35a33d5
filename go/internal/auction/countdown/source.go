package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultInterval matches the minute resolution of Derive
const DefaultInterval = time.Minute

// TickFunc is called with the tick time on every tick
type TickFunc func(now time.Time)

// Source is a single tick shared by every view that shows a countdown
type Source struct {
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	subs   map[uint64]TickFunc
	nextID uint64
}

// NewSource creates a tick source; Run must be called to start ticking
func NewSource(clock clockwork.Clock, interval time.Duration) *Source {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Source{
		clock:    clock,
		interval: interval,
		subs:     make(map[uint64]TickFunc),
	}
}

// Subscribe registers fn for every tick
func (s *Source) Subscribe(fn TickFunc) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Subscribers returns the number of registered tick listeners
func (s *Source) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Run ticks until ctx is done
func (s *Source) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", s.interval).Msg("countdown source started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.Chan():
			s.tick(now)
		}
	}
}

func (s *Source) tick(now time.Time) {
	s.mu.Lock()
	fns := make([]TickFunc, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
}
