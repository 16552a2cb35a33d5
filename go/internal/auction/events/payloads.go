package events

import (
	"github.com/shopspring/decimal"
)

// Event payload types shared by the channel, cache and bidding packages

// BidUpdatePayload is the payload for a bidUpdate event
type BidUpdatePayload struct {
	AuctionID string          `json:"auctionId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
	UserID    string          `json:"userId"`
}

// AuctionEndedPayload is the payload for an auctionEnded event
type AuctionEndedPayload struct {
	AuctionID string `json:"auctionId"`
	Winner    string `json:"winner"`
}

// WatcherUpdatePayload is the payload for a watcherUpdate event
type WatcherUpdatePayload struct {
	AuctionID string `json:"auctionId"`
	Watchers  int    `json:"watchers"`
}

// OutbidPayload is the payload for an outbidNotification event
type OutbidPayload struct {
	Message   string `json:"message"`
	AuctionID string `json:"auctionId"`
}

// WinnerPayload is the payload for a winnerNotification event
type WinnerPayload struct {
	Message   string          `json:"message"`
	AuctionID string          `json:"auctionId"`
	FinalBid  decimal.Decimal `json:"finalBid"`
}

// ErrorPayload is the payload for a server error event
type ErrorPayload struct {
	Message string `json:"message"`
}

// BidAcceptedPayload acknowledges a placeBid from this session
type BidAcceptedPayload struct {
	AuctionID string          `json:"auctionId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
	UserID    string          `json:"userId"`
}

// BidRejectedPayload rejects a placeBid from this session
type BidRejectedPayload struct {
	AuctionID string          `json:"auctionId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
	Reason    string          `json:"reason"`
}

// JoinAuctionPayload is sent once per watched auction
type JoinAuctionPayload struct {
	AuctionID string `json:"auctionId"`
}

// PlaceBidPayload carries a bid intent to the ledger
type PlaceBidPayload struct {
	AuctionID string          `json:"auctionId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
	UserID    string          `json:"userId"`
}

// AuctionID returns the auction an inbound payload refers to, if any
func AuctionID(payload interface{}) string {
	switch p := payload.(type) {
	case BidUpdatePayload:
		return p.AuctionID
	case AuctionEndedPayload:
		return p.AuctionID
	case WatcherUpdatePayload:
		return p.AuctionID
	case OutbidPayload:
		return p.AuctionID
	case WinnerPayload:
		return p.AuctionID
	case BidAcceptedPayload:
		return p.AuctionID
	case BidRejectedPayload:
		return p.AuctionID
	case JoinAuctionPayload:
		return p.AuctionID
	case PlaceBidPayload:
		return p.AuctionID
	}
	return ""
}
