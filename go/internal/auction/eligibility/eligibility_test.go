package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests Check
func TestCheck(t *testing.T) {
	loggedIn := Session{UserID: "u1", Token: "tok"}
	good := User{
		EmailVerified:    true,
		WalletBalance:    decimal.NewFromInt(500),
		HasBilling:       true,
		HasPaymentMethod: true,
	}

	tests := []struct {
		name       string
		user       User
		session    Session
		currentBid decimal.Decimal
		want       Result
	}{
		{
			name:       "eligible",
			user:       good,
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: Eligible},
		},
		{
			name:       "missing_token",
			user:       good,
			session:    Session{UserID: "u1"},
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: NeedsLogin},
		},
		{
			name:       "missing_user_id",
			user:       User{},
			session:    Session{Token: "tok"},
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: NeedsLogin},
		},
		{
			name:       "unverified_and_no_payment_method",
			user:       User{WalletBalance: decimal.NewFromInt(500), HasBilling: true},
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: NeedsVerification},
		},
		{
			name:       "low_balance_and_no_billing",
			user:       User{EmailVerified: true, WalletBalance: decimal.NewFromInt(50)},
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: InsufficientBalance, Required: decimal.NewFromInt(100)},
		},
		{
			name:       "balance_equal_to_bid",
			user:       User{EmailVerified: true, WalletBalance: decimal.NewFromInt(100), HasBilling: true, HasPaymentMethod: true},
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: Eligible},
		},
		{
			name:       "billing_without_payment_method",
			user:       User{EmailVerified: true, WalletBalance: decimal.NewFromInt(500), HasBilling: true},
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: NeedsBillingOrPayment},
		},
		{
			name:       "payment_method_without_billing",
			user:       User{EmailVerified: true, WalletBalance: decimal.NewFromInt(500), HasPaymentMethod: true},
			session:    loggedIn,
			currentBid: decimal.NewFromInt(100),
			want:       Result{Kind: NeedsBillingOrPayment},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.user, tt.session, tt.currentBid)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.True(t, tt.want.Required.Equal(got.Required), "required: want %s got %s", tt.want.Required, got.Required)
		})
	}
}

func TestResultMessage(t *testing.T) {
	res := Result{Kind: InsufficientBalance, Required: decimal.NewFromInt(100)}
	assert.Contains(t, res.Message(), "100.00")
	assert.False(t, res.Eligible())
	assert.True(t, Result{Kind: Eligible}.Eligible())
}

// Tests Gate.Evaluate
func TestGate_Evaluate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	session := Session{UserID: "u1", Token: "tok"}
	bid := decimal.NewFromInt(100)

	t.Run("not logged in fetches nothing", func(t *testing.T) {
		src := NewMockAccountSource(ctrl)
		gate := NewGate(src)

		res, err := gate.Evaluate(ctx, Session{}, bid)
		require.NoError(t, err)
		assert.Equal(t, NeedsLogin, res.Kind)
	})

	t.Run("unverified stops before wallet and billing", func(t *testing.T) {
		src := NewMockAccountSource(ctrl)
		src.EXPECT().FetchProfile(gomock.Any(), "u1").Return(Profile{UserID: "u1"}, nil)
		gate := NewGate(src)

		res, err := gate.Evaluate(ctx, session, bid)
		require.NoError(t, err)
		assert.Equal(t, NeedsVerification, res.Kind)
	})

	t.Run("low balance stops before billing", func(t *testing.T) {
		src := NewMockAccountSource(ctrl)
		gomock.InOrder(
			src.EXPECT().FetchProfile(gomock.Any(), "u1").Return(Profile{UserID: "u1", EmailVerified: true}, nil),
			src.EXPECT().FetchWalletBalance(gomock.Any(), "u1").Return(decimal.NewFromInt(50), nil),
		)
		gate := NewGate(src)

		res, err := gate.Evaluate(ctx, session, bid)
		require.NoError(t, err)
		assert.Equal(t, InsufficientBalance, res.Kind)
		assert.True(t, res.Required.Equal(bid))
	})

	t.Run("all checks pass in order", func(t *testing.T) {
		src := NewMockAccountSource(ctrl)
		gomock.InOrder(
			src.EXPECT().FetchProfile(gomock.Any(), "u1").Return(Profile{UserID: "u1", EmailVerified: true}, nil),
			src.EXPECT().FetchWalletBalance(gomock.Any(), "u1").Return(decimal.NewFromInt(1000), nil),
			src.EXPECT().FetchBillingStatus(gomock.Any(), "u1").Return(BillingStatus{HasBilling: true, HasPaymentMethod: true}, nil),
		)
		gate := NewGate(src)

		res, err := gate.Evaluate(ctx, session, bid)
		require.NoError(t, err)
		assert.True(t, res.Eligible())
	})

	t.Run("collaborator failure is returned", func(t *testing.T) {
		src := NewMockAccountSource(ctrl)
		fetchErr := errors.New("storefront unavailable")
		src.EXPECT().FetchProfile(gomock.Any(), "u1").Return(Profile{}, fetchErr)
		gate := NewGate(src)

		_, err := gate.Evaluate(ctx, session, bid)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetchErr)
	})
}
