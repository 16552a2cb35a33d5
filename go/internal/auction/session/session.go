package session

//go:generate mockgen -source=session.go -destination=mock_storefront.go -package=session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/livebid/go/clients/storefront"
	"github.com/mcdev12/livebid/go/internal/auction/bidding"
	"github.com/mcdev12/livebid/go/internal/auction/cache"
	"github.com/mcdev12/livebid/go/internal/auction/channel"
	"github.com/mcdev12/livebid/go/internal/auction/countdown"
	"github.com/mcdev12/livebid/go/internal/auction/eligibility"
	"github.com/mcdev12/livebid/go/internal/auction/events"
	"github.com/mcdev12/livebid/go/internal/auction/metrics"
	"github.com/mcdev12/livebid/go/internal/auction/notify"
)

// Storefront is the REST backend the session reads auctions and accounts from
type Storefront interface {
	FetchAuction(ctx context.Context, auctionID string) (storefront.Auction, error)
	FetchProfile(ctx context.Context, userID string) (eligibility.Profile, error)
	FetchWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	FetchBillingStatus(ctx context.Context, userID string) (eligibility.BillingStatus, error)
	SubmitOrder(ctx context.Context, order storefront.Order) (storefront.OrderConfirmation, error)
}

// Config holds per-session timings
type Config struct {
	Channel           channel.Config
	CountdownInterval time.Duration
	SweepInterval     time.Duration
	FeedTickInterval  time.Duration
	IdleGrace         time.Duration
	NotificationTTL   time.Duration
	BidTimeout        time.Duration
	FeedbackGrace     time.Duration
	FetchTimeout      time.Duration
}

// DefaultConfig returns default session timings
func DefaultConfig() Config {
	return Config{
		Channel:           channel.DefaultConfig(),
		CountdownInterval: countdown.DefaultInterval,
		SweepInterval:     30 * time.Second,
		FeedTickInterval:  250 * time.Millisecond,
		IdleGrace:         cache.DefaultIdleGrace,
		NotificationTTL:   notify.DefaultTTL,
		BidTimeout:        bidding.DefaultTimeout,
		FeedbackGrace:     bidding.DefaultFeedbackGrace,
		FetchTimeout:      10 * time.Second,
	}
}

// Session is everything one logged-in user needs to follow and bid on live
// auctions: one channel, one cache, one feed and one bid pipeline.
type Session struct {
	creds      channel.Credentials
	config     Config
	clock      clockwork.Clock
	metrics    metrics.Collector
	storefront Storefront

	channel   *channel.Manager
	cache     *cache.Cache
	feed      *notify.Feed
	pipeline  *bidding.Pipeline
	countdown *countdown.Source

	mu        sync.Mutex
	watched   map[string]int
	ordered   map[string]bool
	processed uint64
	lastEvent time.Time
	dropped   bool
	cancel    context.CancelFunc
	closed    bool
	orders    sync.WaitGroup

	resyncCtx  context.Context
	stopResync context.CancelFunc
	resyncs    sync.WaitGroup
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the clock shared by every component of the session
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithMetrics sets the metrics collector shared by every component
func WithMetrics(m metrics.Collector) Option {
	return func(s *Session) { s.metrics = m }
}

// New wires a session. It fails with channel.ErrCredentialsMissing unless
// both the user id and the token are present. A nil storefront disables
// detail fetches, the eligibility gate and order placement.
func New(creds channel.Credentials, dialer channel.Dialer, sf Storefront, config Config, opts ...Option) (*Session, error) {
	if !creds.Valid() {
		return nil, channel.ErrCredentialsMissing
	}

	s := &Session{
		creds:      creds,
		config:     config,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics.NoOpCollector{},
		storefront: sf,
		watched:    make(map[string]int),
		ordered:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resyncCtx, s.stopResync = context.WithCancel(context.Background())

	s.channel = channel.NewManager(dialer, config.Channel,
		channel.WithClock(s.clock),
		channel.WithMetrics(s.metrics),
	)
	s.cache = cache.New(
		cache.WithClock(s.clock),
		cache.WithIdleGrace(config.IdleGrace),
		cache.WithMetrics(s.metrics),
	)
	s.feed = notify.NewFeed(
		notify.WithClock(s.clock),
		notify.WithTTL(config.NotificationTTL),
		notify.WithMetrics(s.metrics),
	)
	s.countdown = countdown.NewSource(s.clock, config.CountdownInterval)

	pipelineOpts := []bidding.Option{
		bidding.WithClock(s.clock),
		bidding.WithTimeout(config.BidTimeout),
		bidding.WithFeedbackGrace(config.FeedbackGrace),
		bidding.WithMetrics(s.metrics),
	}
	if sf != nil {
		pipelineOpts = append(pipelineOpts, bidding.WithGate(eligibility.NewGate(sf)))
	}
	s.pipeline = bidding.NewPipeline(
		eligibility.Session{UserID: creds.UserID, Token: creds.Token},
		s.channel, s.cache, s.feed, pipelineOpts...,
	)

	s.channel.On(s.handleEvent)
	s.channel.OnStateChange(s.handleState)
	return s, nil
}

// UserID returns the session's user id
func (s *Session) UserID() string {
	return s.creds.UserID
}

// Run opens the channel and runs the session's timers until ctx is done or
// the session is closed. The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return channel.ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer s.Close()

	if err := s.channel.Open(ctx, s.creds); err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.countdown.Run(gctx)
	})
	g.Go(func() error {
		return s.feed.Run(gctx, s.config.FeedTickInterval)
	})
	g.Go(func() error {
		return s.cache.Run(gctx, s.config.SweepInterval)
	})

	log.Info().Str("user_id", s.creds.UserID).Str("connection_id", s.channel.ID()).Msg("auction session running")
	return g.Wait()
}

// Close tears the session down. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.stopResync()
	s.channel.Close()
	s.orders.Wait()
	s.resyncs.Wait()
	s.feed.Close()

	log.Info().Str("user_id", s.creds.UserID).Msg("auction session closed")
}

// Watch opens a view of auctionID. The first view of an auction joins its
// live updates and then fetches its detail; onChange fires on every change to
// the record. The returned function closes the view.
func (s *Session) Watch(ctx context.Context, auctionID string, onChange cache.ChangeFunc) (unwatch func()) {
	unsubscribe := s.cache.Subscribe(auctionID, onChange)

	s.mu.Lock()
	s.watched[auctionID]++
	first := s.watched[auctionID] == 1
	s.mu.Unlock()

	if first {
		s.join(ctx, auctionID)
		s.refresh(ctx, auctionID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			s.mu.Lock()
			s.watched[auctionID]--
			if s.watched[auctionID] <= 0 {
				delete(s.watched, auctionID)
			}
			s.mu.Unlock()
		})
	}
}

// SubmitBid places a bid through the pipeline
func (s *Session) SubmitBid(ctx context.Context, auctionID string, amount decimal.Decimal) bidding.Outcome {
	return s.pipeline.Submit(ctx, auctionID, amount)
}

// Record returns the cached record for auctionID, or the default for an
// auction the session has not seen.
func (s *Session) Record(auctionID string) cache.Record {
	rec, ok := s.cache.Get(auctionID)
	if !ok {
		return cache.NewRecord(auctionID)
	}
	return rec
}

// Countdown returns the countdown text for auctionID at the current time
func (s *Session) Countdown(auctionID string) string {
	return countdown.Derive(s.clock.Now(), s.Record(auctionID))
}

// OnCountdownTick registers fn on the shared countdown ticker
func (s *Session) OnCountdownTick(fn countdown.TickFunc) (unsubscribe func()) {
	return s.countdown.Subscribe(fn)
}

// Intent returns the visible bid intent for auctionID
func (s *Session) Intent(auctionID string) (bidding.Intent, bool) {
	return s.pipeline.Intent(auctionID)
}

// Notifications returns the visible notifications
func (s *Session) Notifications() []notify.Notification {
	return s.feed.Active()
}

// OnNotifications registers fn for every change to the visible notifications
func (s *Session) OnNotifications(fn notify.ChangeFunc) (unsubscribe func()) {
	return s.feed.Subscribe(fn)
}

// ConnectionState returns the channel state
func (s *Session) ConnectionState() channel.State {
	return s.channel.State()
}

// Watched returns the number of auctions with at least one open view
func (s *Session) Watched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watched)
}

// Stats returns how many events the session has handled and when the last
// one arrived
func (s *Session) Stats() (uint64, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.lastEvent
}

func (s *Session) refresh(ctx context.Context, auctionID string) {
	if s.storefront == nil {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	auction, err := s.storefront.FetchAuction(fetchCtx, auctionID)
	if err != nil {
		log.Warn().Err(err).Str("auction_id", auctionID).Msg("failed to fetch auction detail")
		return
	}
	s.cache.Refresh(auction.ToRecord())
}

func (s *Session) join(ctx context.Context, auctionID string) {
	env, err := events.New(events.TypeJoinAuction, events.JoinAuctionPayload{AuctionID: auctionID})
	if err != nil {
		log.Error().Err(err).Str("auction_id", auctionID).Msg("failed to build joinAuction")
		return
	}
	if err := s.channel.Send(ctx, env); err != nil {
		// Joined again once the channel connects
		log.Debug().Err(err).Str("auction_id", auctionID).Msg("joinAuction deferred")
		return
	}
	log.Debug().Str("auction_id", auctionID).Msg("joined auction")
}

// rejoin joins every watched auction again. After a drop the records are
// refetched too, since events sent during the outage are lost.
func (s *Session) rejoin() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.watched))
	for id := range s.watched {
		ids = append(ids, id)
	}
	resync := s.dropped && !s.closed
	s.dropped = false
	if resync {
		s.resyncs.Add(1)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.join(context.Background(), id)
	}
	if !resync {
		return
	}

	go func() {
		defer s.resyncs.Done()
		for _, id := range ids {
			s.refresh(s.resyncCtx, id)
		}
		log.Info().Int("auctions", len(ids)).Msg("resynced watched auctions after reconnect")
	}()
}

func (s *Session) handleState(state channel.State, err error) {
	switch state {
	case channel.StateConnected:
		s.rejoin()
	case channel.StateConnecting:
		if err != nil {
			s.mu.Lock()
			s.dropped = true
			s.mu.Unlock()
			s.pipeline.FailAll(err)
			s.feed.Push(notify.KindError, "Connection to the auction lost, reconnecting")
		}
	case channel.StateFailed:
		s.pipeline.FailAll(err)
		s.feed.Push(notify.KindError, "Could not connect to the auction server, bidding is unavailable")
	case channel.StateDisconnected:
		s.pipeline.FailAll(channel.ErrClosed)
	}
}
