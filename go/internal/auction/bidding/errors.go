package bidding

import "errors"

// Rejected before anything is sent
var (
	ErrSubmissionInFlight = errors.New("a bid is already pending for this auction")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrStaleAmount        = errors.New("bid amount must exceed the current bid")
	ErrNotEligible        = errors.New("not eligible to bid")
)

// Rejected after the bid was sent
var (
	ErrServerRejection = errors.New("bid rejected by server")
	ErrTimeout         = errors.New("no response from server")
	ErrConnectionLost  = errors.New("connection lost")
	ErrCanceled        = errors.New("submission canceled")
)

// reasonCodes label outcomes for metrics
var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrSubmissionInFlight, "in_flight"},
	{ErrAuctionEnded, "auction_ended"},
	{ErrStaleAmount, "stale_amount"},
	{ErrNotEligible, "not_eligible"},
	{ErrServerRejection, "server_rejection"},
	{ErrTimeout, "timeout"},
	{ErrConnectionLost, "connection_lost"},
	{ErrCanceled, "canceled"},
}

func reasonCode(err error) string {
	if err == nil {
		return "none"
	}
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "unknown"
}
