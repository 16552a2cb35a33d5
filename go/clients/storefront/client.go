package storefront

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcdev12/livebid/go/clients"
	"github.com/mcdev12/livebid/go/internal/auction/cache"
	"github.com/mcdev12/livebid/go/internal/auction/eligibility"
)

// Client talks to the storefront backend on behalf of one session
type Client struct {
	*clients.BaseClient
}

// NewClient creates a client authenticated with the session token
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetBearerToken(token)
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}

// Auction is the storefront's auction detail
type Auction struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Status          string          `json:"status"`
	AuctionType     string          `json:"auction_type"`
	StartTime       *time.Time      `json:"start_time"`
	EndTime         *time.Time      `json:"end_time"`
	CurrentBid      decimal.Decimal `json:"current_bid"`
	CurrentBidderID string          `json:"current_bidder_id"`
	WatcherCount    int             `json:"watcher_count"`
	WinnerID        string          `json:"winner_id"`
}

// ToRecord converts the detail into a cache record
func (a Auction) ToRecord() cache.Record {
	rec := cache.NewRecord(a.ID)
	if a.Status == string(cache.StatusEnded) {
		rec.Status = cache.StatusEnded
	}
	if a.AuctionType == string(cache.TypeTimed) {
		rec.Type = cache.TypeTimed
	}
	rec.StartTime = a.StartTime
	rec.EndTime = a.EndTime
	rec.CurrentBid = a.CurrentBid
	rec.CurrentBidderID = a.CurrentBidderID
	rec.WatcherCount = a.WatcherCount
	rec.WinnerID = a.WinnerID
	return rec
}

type wallet struct {
	Balance decimal.Decimal `json:"balance"`
}

// Order is placed for the winner of an auction
type Order struct {
	AuctionID string          `json:"auction_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderConfirmation is the storefront's reply to an order
type OrderConfirmation struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// FetchAuction returns the auction detail for id
func (c *Client) FetchAuction(ctx context.Context, auctionID string) (Auction, error) {
	var auction Auction
	if err := c.GetJSON(ctx, "/auctions/"+url.PathEscape(auctionID), &auction); err != nil {
		return Auction{}, fmt.Errorf("failed to get auction %s: %w", auctionID, err)
	}
	if auction.ID == "" {
		auction.ID = auctionID
	}
	return auction, nil
}

// FetchProfile implements eligibility.AccountSource
func (c *Client) FetchProfile(ctx context.Context, userID string) (eligibility.Profile, error) {
	var profile eligibility.Profile
	if err := c.GetJSON(ctx, "/users/"+url.PathEscape(userID), &profile); err != nil {
		return eligibility.Profile{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return profile, nil
}

// FetchWalletBalance implements eligibility.AccountSource
func (c *Client) FetchWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var w wallet
	if err := c.GetJSON(ctx, "/users/"+url.PathEscape(userID)+"/wallet", &w); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get wallet for %s: %w", userID, err)
	}
	return w.Balance, nil
}

// FetchBillingStatus implements eligibility.AccountSource
func (c *Client) FetchBillingStatus(ctx context.Context, userID string) (eligibility.BillingStatus, error) {
	var status eligibility.BillingStatus
	if err := c.GetJSON(ctx, "/users/"+url.PathEscape(userID)+"/billing", &status); err != nil {
		return eligibility.BillingStatus{}, fmt.Errorf("failed to get billing for %s: %w", userID, err)
	}
	return status, nil
}

// SubmitOrder places the order for a won auction
func (c *Client) SubmitOrder(ctx context.Context, order Order) (OrderConfirmation, error) {
	var confirmation OrderConfirmation
	if err := c.PostJSON(ctx, "/orders", order, &confirmation); err != nil {
		return OrderConfirmation{}, fmt.Errorf("failed to submit order for auction %s: %w", order.AuctionID, err)
	}
	return confirmation, nil
}

var _ eligibility.AccountSource = (*Client)(nil)
