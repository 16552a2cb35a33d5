package statusapi

//go:generate mockgen -source=handler.go -destination=mock_backend.go -package=statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/livebid/go/internal/auction/bidding"
	"github.com/mcdev12/livebid/go/internal/auction/cache"
	"github.com/mcdev12/livebid/go/internal/auction/channel"
	"github.com/mcdev12/livebid/go/internal/auction/eligibility"
	"github.com/mcdev12/livebid/go/internal/auction/notify"
)

// Backend is the session surface exposed over HTTP
type Backend interface {
	ConnectionState() channel.State
	Record(auctionID string) cache.Record
	Countdown(auctionID string) string
	Intent(auctionID string) (bidding.Intent, bool)
	Notifications() []notify.Notification
	SubmitBid(ctx context.Context, auctionID string, amount decimal.Decimal) bidding.Outcome
}

// AuctionStateResponse is a view of one auction
type AuctionStateResponse struct {
	Record    cache.Record    `json:"record"`
	Countdown string          `json:"countdown"`
	Intent    *bidding.Intent `json:"intent,omitempty"`
}

// ConnectionResponse reports the channel state
type ConnectionResponse struct {
	State channel.State `json:"state"`
}

// BidRequest is the body of a bid submission
type BidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BidResponse is the terminal outcome of a bid submission
type BidResponse struct {
	Intent      bidding.Intent      `json:"intent"`
	Accepted    bool                `json:"accepted"`
	Error       string              `json:"error,omitempty"`
	Message     string              `json:"message"`
	Eligibility *eligibility.Result `json:"eligibility,omitempty"`
}

// Handler serves the local status API
type Handler struct {
	backend  Backend
	health   http.Handler
	gatherer prometheus.Gatherer
}

// NewHandler creates a handler. A nil health handler answers /health with a
// plain OK; a nil gatherer disables /metrics.
func NewHandler(backend Backend, health http.Handler, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		backend:  backend,
		health:   health,
		gatherer: gatherer,
	}
}

// RegisterRoutes registers the status routes on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /api/connection", h.HandleGetConnection)
	mux.HandleFunc("GET /api/auctions/{id}/state", h.HandleGetAuctionState)
	mux.HandleFunc("GET /api/notifications", h.HandleGetNotifications)
	mux.HandleFunc("POST /api/auctions/{id}/bids", h.HandleSubmitBid)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		h.health.ServeHTTP(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

// HandleGetConnection handles GET /api/connection
func (h *Handler) HandleGetConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConnectionResponse{State: h.backend.ConnectionState()})
}

// HandleGetAuctionState handles GET /api/auctions/{id}/state
func (h *Handler) HandleGetAuctionState(w http.ResponseWriter, r *http.Request) {
	auctionID := r.PathValue("id")
	if auctionID == "" {
		http.Error(w, "Auction ID is required", http.StatusBadRequest)
		return
	}

	resp := AuctionStateResponse{
		Record:    h.backend.Record(auctionID),
		Countdown: h.backend.Countdown(auctionID),
	}
	if intent, ok := h.backend.Intent(auctionID); ok {
		resp.Intent = &intent
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetNotifications handles GET /api/notifications
func (h *Handler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	active := h.backend.Notifications()
	if active == nil {
		active = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, active)
}

// HandleSubmitBid handles POST /api/auctions/{id}/bids. It blocks until the
// bid is acknowledged or rejected.
func (h *Handler) HandleSubmitBid(w http.ResponseWriter, r *http.Request) {
	auctionID := r.PathValue("id")
	if auctionID == "" {
		http.Error(w, "Auction ID is required", http.StatusBadRequest)
		return
	}

	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid bid request", http.StatusBadRequest)
		return
	}

	out := h.backend.SubmitBid(r.Context(), auctionID, req.Amount)
	resp := BidResponse{
		Intent:      out.Intent,
		Accepted:    out.Acked(),
		Message:     bidding.Message(out),
		Eligibility: out.Eligibility,
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	writeJSON(w, statusFor(out), resp)
}

// statusFor maps a bid outcome to an HTTP status
func statusFor(out bidding.Outcome) int {
	switch {
	case out.Acked():
		return http.StatusOK
	case errors.Is(out.Err, bidding.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(out.Err, bidding.ErrStaleAmount),
		errors.Is(out.Err, bidding.ErrSubmissionInFlight),
		errors.Is(out.Err, bidding.ErrAuctionEnded):
		return http.StatusConflict
	case errors.Is(out.Err, bidding.ErrServerRejection):
		return http.StatusUnprocessableEntity
	case errors.Is(out.Err, bidding.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(out.Err, bidding.ErrConnectionLost):
		return http.StatusServiceUnavailable
	case errors.Is(out.Err, bidding.ErrCanceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
