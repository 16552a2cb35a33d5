package bidding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/livebid/go/internal/auction/cache"
	"github.com/mcdev12/livebid/go/internal/auction/eligibility"
	"github.com/mcdev12/livebid/go/internal/auction/events"
	"github.com/mcdev12/livebid/go/internal/auction/metrics"
	"github.com/mcdev12/livebid/go/internal/auction/notify"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultFeedbackGrace = 2 * time.Second
)

// State is the lifecycle state of a bid intent
type State string

const (
	StatePending  State = "PENDING"
	StateAcked    State = "ACKED"
	StateRejected State = "REJECTED"
)

// Intent is a single bid attempt. At most one is PENDING per auction.
type Intent struct {
	ID          string          `json:"id"`
	AuctionID   string          `json:"auction_id"`
	Amount      decimal.Decimal `json:"amount"`
	SubmittedAt time.Time       `json:"submitted_at"`
	State       State           `json:"state"`
	Reason      string          `json:"reason,omitempty"`
}

// Outcome is the terminal result of Submit
type Outcome struct {
	Intent      Intent
	Err         error
	Eligibility *eligibility.Result // set when the gate refused
}

// Acked reports whether the server accepted the bid
func (o Outcome) Acked() bool {
	return o.Intent.State == StateAcked
}

// Sender emits client events on the session channel
type Sender interface {
	Send(ctx context.Context, env events.Envelope) error
}

// StateReader is the part of the state cache the pipeline reads
type StateReader interface {
	Get(auctionID string) (cache.Record, bool)
	Pin(auctionID string) (release func())
}

// Notifier surfaces outcomes to the user
type Notifier interface {
	Push(kind notify.Kind, message string) uint64
}

// Pipeline validates, emits and tracks bids for one session
type Pipeline struct {
	session  eligibility.Session
	sender   Sender
	state    StateReader
	notifier Notifier
	gate     *eligibility.Gate
	clock    clockwork.Clock
	timeout  time.Duration
	grace    time.Duration
	metrics  metrics.Collector

	mu      sync.Mutex
	pending map[string]*pendingBid
	visible map[string]Intent
}

type pendingBid struct {
	intent  Intent
	emitted bool
	result  chan Outcome
	timer   clockwork.Timer
	release func()
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithGate runs the eligibility gate before every emission
func WithGate(gate *eligibility.Gate) Option {
	return func(p *Pipeline) { p.gate = gate }
}

// WithClock sets the clock used for timeouts and the feedback grace
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithTimeout sets how long to wait for the server's response
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithFeedbackGrace sets how long a terminal intent stays visible
func WithFeedbackGrace(d time.Duration) Option {
	return func(p *Pipeline) { p.grace = d }
}

// WithMetrics sets the metrics collector
func WithMetrics(m metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline for session
func NewPipeline(session eligibility.Session, sender Sender, state StateReader, notifier Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		session:  session,
		sender:   sender,
		state:    state,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		timeout:  DefaultTimeout,
		grace:    DefaultFeedbackGrace,
		metrics:  metrics.NoOpCollector{},
		pending:  make(map[string]*pendingBid),
		visible:  make(map[string]Intent),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit places a bid and blocks until it is acknowledged or rejected.
// Every call yields exactly one terminal outcome and one notification.
func (p *Pipeline) Submit(ctx context.Context, auctionID string, amount decimal.Decimal) Outcome {
	intent := Intent{
		AuctionID:   auctionID,
		Amount:      amount,
		SubmittedAt: p.clock.Now(),
		State:       StatePending,
	}

	// Reserve the auction slot first so a concurrent Submit sees it as in flight
	pb := &pendingBid{intent: intent, result: make(chan Outcome, 1)}
	p.mu.Lock()
	if _, busy := p.pending[auctionID]; busy {
		p.mu.Unlock()
		return p.reject(intent, ErrSubmissionInFlight, nil)
	}
	p.pending[auctionID] = pb
	p.mu.Unlock()

	rec, ok := p.state.Get(auctionID)
	if !ok {
		rec = cache.NewRecord(auctionID)
	}
	if rec.Ended() {
		p.abandon(auctionID, pb)
		return p.reject(intent, ErrAuctionEnded, nil)
	}
	if amount.LessThanOrEqual(rec.CurrentBid) {
		p.abandon(auctionID, pb)
		return p.reject(intent, fmt.Errorf("%w: current bid is %s", ErrStaleAmount, rec.CurrentBid.StringFixed(2)), nil)
	}

	if p.gate != nil {
		res, err := p.gate.Evaluate(ctx, p.session, rec.CurrentBid)
		if err != nil {
			p.abandon(auctionID, pb)
			if ctx.Err() != nil {
				return p.reject(intent, ErrCanceled, nil)
			}
			return p.reject(intent, fmt.Errorf("%w: %v", ErrNotEligible, err), nil)
		}
		if !res.Eligible() {
			p.abandon(auctionID, pb)
			return p.reject(intent, fmt.Errorf("%w: %s", ErrNotEligible, res.Kind), &res)
		}
	}

	env, err := events.New(events.TypePlaceBid, events.PlaceBidPayload{
		AuctionID: auctionID,
		BidAmount: amount,
		UserID:    p.session.UserID,
	})
	if err != nil {
		p.abandon(auctionID, pb)
		return p.reject(intent, fmt.Errorf("%w: encode bid: %v", ErrConnectionLost, err), nil)
	}

	intent.ID = uuid.New().String()
	p.mu.Lock()
	pb.intent = intent
	pb.emitted = true
	pb.release = p.state.Pin(auctionID)
	pb.timer = p.clock.AfterFunc(p.timeout, func() {
		p.resolve(auctionID, pb, StateRejected, ErrTimeout, "")
	})
	p.mu.Unlock()

	log.Debug().
		Str("intent_id", intent.ID).
		Str("auction_id", auctionID).
		Str("amount", amount.String()).
		Msg("submitting bid")

	if err := p.sender.Send(ctx, env); err != nil {
		if ctx.Err() != nil {
			p.resolve(auctionID, pb, StateRejected, ErrCanceled, "")
		} else {
			p.resolve(auctionID, pb, StateRejected, fmt.Errorf("%w: %v", ErrConnectionLost, err), "")
		}
		return <-pb.result
	}

	select {
	case out := <-pb.result:
		return out
	case <-ctx.Done():
		p.resolve(auctionID, pb, StateRejected, ErrCanceled, "")
		return <-pb.result
	}
}

// HandleEvent resolves pending intents from server events. Events that do
// not concern a pending intent are ignored.
func (p *Pipeline) HandleEvent(env events.Envelope) {
	switch env.Type {
	case events.TypeBidAccepted, events.TypeBidRejected, events.TypeBidUpdate:
	default:
		return
	}

	payload, err := events.ParseEventPayload(env)
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(env.Type)).Msg("malformed bid response")
		return
	}

	switch pl := payload.(type) {
	case events.BidAcceptedPayload:
		if pl.UserID != "" && pl.UserID != p.session.UserID {
			return
		}
		if pb := p.lookup(pl.AuctionID); pb != nil {
			p.resolve(pl.AuctionID, pb, StateAcked, nil, "")
		}

	case events.BidUpdatePayload:
		if pl.UserID != p.session.UserID {
			return
		}
		if pb := p.lookup(pl.AuctionID); pb != nil && pl.BidAmount.GreaterThanOrEqual(pb.intent.Amount) {
			p.resolve(pl.AuctionID, pb, StateAcked, nil, "")
		}

	case events.BidRejectedPayload:
		if pb := p.lookup(pl.AuctionID); pb != nil {
			reason := pl.Reason
			if reason == "" {
				reason = "rejected"
			}
			p.resolve(pl.AuctionID, pb, StateRejected, fmt.Errorf("%w: %s", ErrServerRejection, reason), reason)
		}
	}
}

// FailAll rejects every emitted PENDING intent with ConnectionLost
func (p *Pipeline) FailAll(cause error) {
	p.mu.Lock()
	var inflight []*pendingBid
	for _, pb := range p.pending {
		if pb.emitted {
			inflight = append(inflight, pb)
		}
	}
	p.mu.Unlock()

	err := ErrConnectionLost
	if cause != nil && !errors.Is(cause, ErrConnectionLost) {
		err = fmt.Errorf("%w: %v", ErrConnectionLost, cause)
	}
	for _, pb := range inflight {
		p.resolve(pb.intent.AuctionID, pb, StateRejected, err, "")
	}
}

// Intent returns the pending intent for auctionID, or the last terminal one
// while it is within the feedback grace.
func (p *Pipeline) Intent(auctionID string) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pb, ok := p.pending[auctionID]; ok && pb.emitted {
		return pb.intent, true
	}
	intent, ok := p.visible[auctionID]
	return intent, ok
}

// Pending returns the number of emitted intents awaiting a response
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pb := range p.pending {
		if pb.emitted {
			n++
		}
	}
	return n
}

func (p *Pipeline) lookup(auctionID string) *pendingBid {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pb, ok := p.pending[auctionID]; ok && pb.emitted {
		return pb
	}
	return nil
}

// abandon frees a reserved slot that never reached the channel
func (p *Pipeline) abandon(auctionID string, pb *pendingBid) {
	p.mu.Lock()
	if p.pending[auctionID] == pb {
		delete(p.pending, auctionID)
	}
	p.mu.Unlock()
}

// resolve moves pb to a terminal state once. Later calls for the same intent
// are no-ops.
func (p *Pipeline) resolve(auctionID string, pb *pendingBid, state State, err error, reason string) bool {
	p.mu.Lock()
	if p.pending[auctionID] != pb {
		p.mu.Unlock()
		return false
	}
	delete(p.pending, auctionID)
	pb.intent.State = state
	pb.intent.Reason = reason
	if pb.intent.Reason == "" && err != nil {
		pb.intent.Reason = reasonCode(err)
	}
	intent := pb.intent
	p.visible[auctionID] = intent
	timer, release := pb.timer, pb.release
	p.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if release != nil {
		release()
	}
	p.clock.AfterFunc(p.grace, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if v, ok := p.visible[auctionID]; ok && v.ID == intent.ID {
			delete(p.visible, auctionID)
		}
	})

	pb.result <- p.finish(Outcome{Intent: intent, Err: err})
	return true
}

func (p *Pipeline) reject(intent Intent, err error, res *eligibility.Result) Outcome {
	intent.State = StateRejected
	intent.Reason = reasonCode(err)
	return p.finish(Outcome{Intent: intent, Err: err, Eligibility: res})
}

// finish records and announces a terminal outcome
func (p *Pipeline) finish(out Outcome) Outcome {
	p.metrics.RecordBidOutcome(string(out.Intent.State), reasonCode(out.Err))

	if out.Acked() {
		log.Info().
			Str("intent_id", out.Intent.ID).
			Str("auction_id", out.Intent.AuctionID).
			Str("amount", out.Intent.Amount.String()).
			Msg("bid accepted")
		p.notifier.Push(notify.KindSuccess, fmt.Sprintf("Your bid of %s was accepted", out.Intent.Amount.StringFixed(2)))
		return out
	}

	log.Info().
		Err(out.Err).
		Str("intent_id", out.Intent.ID).
		Str("auction_id", out.Intent.AuctionID).
		Str("amount", out.Intent.Amount.String()).
		Msg("bid rejected")
	p.notifier.Push(notify.KindError, Message(out))
	return out
}

// Message describes a rejected outcome in user terms
func Message(out Outcome) string {
	switch {
	case out.Err == nil:
		return fmt.Sprintf("Your bid of %s was accepted", out.Intent.Amount.StringFixed(2))
	case errors.Is(out.Err, ErrSubmissionInFlight):
		return "Your previous bid on this auction is still being processed"
	case errors.Is(out.Err, ErrAuctionEnded):
		return "This auction has ended"
	case errors.Is(out.Err, ErrStaleAmount):
		return "Your bid must be higher than the current bid"
	case errors.Is(out.Err, ErrNotEligible):
		if out.Eligibility != nil {
			return out.Eligibility.Message()
		}
		return "We could not confirm your account, please try again"
	case errors.Is(out.Err, ErrServerRejection):
		return fmt.Sprintf("Your bid was rejected: %s", out.Intent.Reason)
	case errors.Is(out.Err, ErrTimeout):
		return "Bid failed: no response from the auction server"
	case errors.Is(out.Err, ErrConnectionLost):
		return "Bid failed: connection to the auction was lost"
	case errors.Is(out.Err, ErrCanceled):
		return "Bid canceled"
	default:
		return "Bid failed"
	}
}
