package eligibility

//go:generate mockgen -source=gate.go -destination=mock_gate.go -package=eligibility

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Profile is the account profile as the storefront reports it
type Profile struct {
	UserID        string `json:"user_id"`
	EmailVerified bool   `json:"email_verified"`
}

// BillingStatus reports what the user has on file
type BillingStatus struct {
	HasBilling       bool `json:"has_billing"`
	HasPaymentMethod bool `json:"has_payment_method"`
}

// AccountSource fetches account facts from the storefront backend
type AccountSource interface {
	FetchProfile(ctx context.Context, userID string) (Profile, error)
	FetchWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	FetchBillingStatus(ctx context.Context, userID string) (BillingStatus, error)
}

// Gate runs the eligibility checks against live account data. Each check
// fetches only what it needs, so a user who fails early never triggers the
// lookups behind it.
type Gate struct {
	source AccountSource
}

// NewGate creates a gate over source
func NewGate(source AccountSource) *Gate {
	return &Gate{source: source}
}

// Evaluate returns the first failed check for session, or Eligible
func (g *Gate) Evaluate(ctx context.Context, session Session, currentBid decimal.Decimal) (Result, error) {
	res, err := evaluate(ctx, g.source, session, currentBid)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("eligibility check failed")
		return Result{}, err
	}
	if !res.Eligible() {
		log.Info().
			Str("user_id", session.UserID).
			Str("result", string(res.Kind)).
			Msg("user not eligible to bid")
	}
	return res, nil
}
