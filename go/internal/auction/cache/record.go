package cache

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an auction
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// AuctionType distinguishes live-called auctions from timed ones
type AuctionType string

const (
	TypeLive  AuctionType = "LIVE"
	TypeTimed AuctionType = "TIMED"
)

// Record is the last known server-confirmed state of one auction
type Record struct {
	AuctionID       string          `json:"auction_id"`
	Status          Status          `json:"status"`
	Type            AuctionType     `json:"auction_type"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	CurrentBid      decimal.Decimal `json:"current_bid"`
	CurrentBidderID string          `json:"current_bidder_id,omitempty"`
	WatcherCount    int             `json:"watcher_count"`
	WinnerID        string          `json:"winner_id,omitempty"`
}

// NewRecord returns the safe default for an auction id the cache has not seen
func NewRecord(auctionID string) Record {
	return Record{
		AuctionID:  auctionID,
		Status:     StatusActive,
		Type:       TypeLive,
		CurrentBid: decimal.Zero,
	}
}

// Ended reports whether the record reached its terminal state
func (r Record) Ended() bool {
	return r.Status == StatusEnded
}

func (r Record) equal(o Record) bool {
	return r.AuctionID == o.AuctionID &&
		r.Status == o.Status &&
		r.Type == o.Type &&
		timesEqual(r.StartTime, o.StartTime) &&
		timesEqual(r.EndTime, o.EndTime) &&
		r.CurrentBid.Equal(o.CurrentBid) &&
		r.CurrentBidderID == o.CurrentBidderID &&
		r.WatcherCount == o.WatcherCount &&
		r.WinnerID == o.WinnerID
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
