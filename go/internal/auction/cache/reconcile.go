package cache

import (
	"github.com/mcdev12/livebid/go/internal/auction/events"
)

// rule applies one event payload to a record and reports whether any
// observable field changed. Rules only run against ACTIVE records.
type rule func(rec *Record, payload interface{}) bool

var rules = map[events.Type]rule{
	events.TypeBidUpdate:     applyBidUpdate,
	events.TypeAuctionEnded:  applyAuctionEnded,
	events.TypeWatcherUpdate: applyWatcherUpdate,
}

// Handles reports whether the cache has a reconciliation rule for t
func Handles(t events.Type) bool {
	_, ok := rules[t]
	return ok
}

// applyBidUpdate only moves the current bid upwards so duplicate and
// reordered deliveries cannot regress it.
func applyBidUpdate(rec *Record, payload interface{}) bool {
	p := payload.(events.BidUpdatePayload)
	if !p.BidAmount.GreaterThan(rec.CurrentBid) {
		return false
	}
	rec.CurrentBid = p.BidAmount
	rec.CurrentBidderID = p.UserID
	return true
}

func applyAuctionEnded(rec *Record, payload interface{}) bool {
	p := payload.(events.AuctionEndedPayload)
	rec.Status = StatusEnded
	rec.WinnerID = p.Winner
	return true
}

func applyWatcherUpdate(rec *Record, payload interface{}) bool {
	p := payload.(events.WatcherUpdatePayload)
	if p.Watchers < 0 || p.Watchers == rec.WatcherCount {
		return false
	}
	rec.WatcherCount = p.Watchers
	return true
}

// merge keeps the fetched record except for an ACTIVE bid the cache has
// already moved past. A fetched ENDED always wins.
func merge(cached, fetched Record) Record {
	if cached.Ended() || fetched.Ended() {
		return fetched
	}
	if cached.CurrentBid.GreaterThan(fetched.CurrentBid) {
		fetched.CurrentBid = cached.CurrentBid
		fetched.CurrentBidderID = cached.CurrentBidderID
	}
	return fetched
}
