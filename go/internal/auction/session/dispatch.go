package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/clients/storefront"
	"github.com/mcdev12/livebid/go/internal/auction/cache"
	"github.com/mcdev12/livebid/go/internal/auction/events"
	"github.com/mcdev12/livebid/go/internal/auction/notify"
)

// handleEvent runs on the channel's single consumer goroutine. The cache sees
// every event first so a bid acknowledged by its own bidUpdate is already
// reconciled when the pipeline resolves it.
func (s *Session) handleEvent(env events.Envelope) {
	s.mu.Lock()
	s.processed++
	s.lastEvent = s.clock.Now()
	s.mu.Unlock()

	if cache.Handles(env.Type) {
		s.cache.Apply(env)
	}
	s.pipeline.HandleEvent(env)

	switch env.Type {
	case events.TypeOutbidNotification, events.TypeWinnerNotification, events.TypeError:
	default:
		return
	}

	payload, err := events.ParseEventPayload(env)
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(env.Type)).Msg("dropping malformed notification event")
		return
	}

	switch p := payload.(type) {
	case events.OutbidPayload:
		msg := p.Message
		if msg == "" {
			msg = "You have been outbid"
		}
		s.feed.Push(notify.KindError, msg)

	case events.WinnerPayload:
		msg := p.Message
		if msg == "" {
			msg = fmt.Sprintf("You won the auction with a bid of %s", p.FinalBid.StringFixed(2))
		}
		s.feed.Push(notify.KindSuccess, msg)
		s.placeOrder(p)

	case events.ErrorPayload:
		msg := p.Message
		if msg == "" {
			msg = "The auction server reported an error"
		}
		s.feed.Push(notify.KindError, msg)
	}
}

// placeOrder submits the order for a won auction once, off the consumer
// goroutine. Redelivered winner events are ignored.
func (s *Session) placeOrder(p events.WinnerPayload) {
	if s.storefront == nil || p.AuctionID == "" {
		return
	}

	s.mu.Lock()
	if s.closed || s.ordered[p.AuctionID] {
		s.mu.Unlock()
		return
	}
	s.ordered[p.AuctionID] = true
	s.orders.Add(1)
	s.mu.Unlock()

	order := storefront.Order{
		AuctionID: p.AuctionID,
		UserID:    s.creds.UserID,
		Amount:    p.FinalBid,
	}

	go func() {
		defer s.orders.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.FetchTimeout)
		defer cancel()

		confirmation, err := s.storefront.SubmitOrder(ctx, order)
		if err != nil {
			log.Error().Err(err).Str("auction_id", order.AuctionID).Msg("failed to submit order")
			s.feed.Push(notify.KindError, "We could not place your order, please contact support")
			return
		}

		log.Info().
			Str("auction_id", order.AuctionID).
			Str("order_id", confirmation.OrderID).
			Msg("order submitted for won auction")
		s.feed.Push(notify.KindInfo, fmt.Sprintf("Order %s placed", confirmation.OrderID))
	}()
}
