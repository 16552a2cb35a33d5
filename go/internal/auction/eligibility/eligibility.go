package eligibility

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is the outcome of an eligibility check
type Kind string

const (
	Eligible              Kind = "ELIGIBLE"
	NeedsLogin            Kind = "NEEDS_LOGIN"
	NeedsVerification     Kind = "NEEDS_VERIFICATION"
	NeedsBillingOrPayment Kind = "NEEDS_BILLING_OR_PAYMENT"
	InsufficientBalance   Kind = "INSUFFICIENT_BALANCE"
)

// Result is the first failed check, or Eligible
type Result struct {
	Kind     Kind            `json:"kind"`
	Required decimal.Decimal `json:"required,omitempty"` // set for InsufficientBalance
}

// Eligible reports whether the user may open a bidding session
func (r Result) Eligible() bool {
	return r.Kind == Eligible
}

// Message describes the result in user terms
func (r Result) Message() string {
	switch r.Kind {
	case NeedsLogin:
		return "please log in to place a bid"
	case NeedsVerification:
		return "please verify your email before bidding"
	case InsufficientBalance:
		return fmt.Sprintf("wallet balance too low, at least %s required", r.Required.StringFixed(2))
	case NeedsBillingOrPayment:
		return "add billing details and a payment method to bid"
	default:
		return "eligible to bid"
	}
}

// Session is the output of the login flow
type Session struct {
	UserID string
	Token  string
}

// LoggedIn reports whether both the user id and the token are present
func (s Session) LoggedIn() bool {
	return s.UserID != "" && s.Token != ""
}

// User is everything the gate needs to know about the account
type User struct {
	EmailVerified    bool
	WalletBalance    decimal.Decimal
	HasBilling       bool
	HasPaymentMethod bool
}

// Check evaluates a fully loaded user. Checks run login, verification,
// balance, then billing/payment, and stop at the first failure.
func Check(user User, session Session, currentBid decimal.Decimal) Result {
	res, _ := evaluate(context.Background(), staticSource{user: user}, session, currentBid)
	return res
}

type step func(ctx context.Context, src AccountSource, session Session, currentBid decimal.Decimal) (Result, bool, error)

// steps is the fixed check order. Reordering it changes which prompt a user sees.
var steps = []step{
	checkLogin,
	checkVerification,
	checkBalance,
	checkBillingAndPayment,
}

func evaluate(ctx context.Context, src AccountSource, session Session, currentBid decimal.Decimal) (Result, error) {
	for _, s := range steps {
		res, failed, err := s(ctx, src, session, currentBid)
		if err != nil {
			return Result{}, err
		}
		if failed {
			return res, nil
		}
	}
	return Result{Kind: Eligible}, nil
}

func checkLogin(_ context.Context, _ AccountSource, session Session, _ decimal.Decimal) (Result, bool, error) {
	if !session.LoggedIn() {
		return Result{Kind: NeedsLogin}, true, nil
	}
	return Result{}, false, nil
}

func checkVerification(ctx context.Context, src AccountSource, session Session, _ decimal.Decimal) (Result, bool, error) {
	profile, err := src.FetchProfile(ctx, session.UserID)
	if err != nil {
		return Result{}, false, fmt.Errorf("fetch profile: %w", err)
	}
	if !profile.EmailVerified {
		return Result{Kind: NeedsVerification}, true, nil
	}
	return Result{}, false, nil
}

func checkBalance(ctx context.Context, src AccountSource, session Session, currentBid decimal.Decimal) (Result, bool, error) {
	balance, err := src.FetchWalletBalance(ctx, session.UserID)
	if err != nil {
		return Result{}, false, fmt.Errorf("fetch wallet balance: %w", err)
	}
	if balance.LessThan(currentBid) {
		return Result{Kind: InsufficientBalance, Required: currentBid}, true, nil
	}
	return Result{}, false, nil
}

func checkBillingAndPayment(ctx context.Context, src AccountSource, session Session, _ decimal.Decimal) (Result, bool, error) {
	status, err := src.FetchBillingStatus(ctx, session.UserID)
	if err != nil {
		return Result{}, false, fmt.Errorf("fetch billing status: %w", err)
	}
	if !status.HasBilling || !status.HasPaymentMethod {
		return Result{Kind: NeedsBillingOrPayment}, true, nil
	}
	return Result{}, false, nil
}

type staticSource struct {
	user User
}

func (s staticSource) FetchProfile(context.Context, string) (Profile, error) {
	return Profile{EmailVerified: s.user.EmailVerified}, nil
}

func (s staticSource) FetchWalletBalance(context.Context, string) (decimal.Decimal, error) {
	return s.user.WalletBalance, nil
}

func (s staticSource) FetchBillingStatus(context.Context, string) (BillingStatus, error) {
	return BillingStatus{HasBilling: s.user.HasBilling, HasPaymentMethod: s.user.HasPaymentMethod}, nil
}
