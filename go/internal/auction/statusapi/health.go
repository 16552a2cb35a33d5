package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/internal/auction/channel"
)

// DefaultStaleThreshold is how long a session watching auctions may go
// without any inbound event before it is reported unhealthy
const DefaultStaleThreshold = 5 * time.Minute

type HealthStatus struct {
	Healthy         bool          `json:"healthy"`
	ConnectionState channel.State `json:"connection_state"`
	EventsProcessed uint64        `json:"events_processed"`
	LastEventTime   time.Time     `json:"last_event_time"`
	WatchedAuctions int           `json:"watched_auctions"`
	Errors          []string      `json:"errors"`
}

type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthSource is what the checker reads from the session
type HealthSource interface {
	ConnectionState() channel.State
	Stats() (processed uint64, lastEvent time.Time)
	Watched() int
}

type SessionHealthChecker struct {
	source    HealthSource
	clock     clockwork.Clock
	threshold time.Duration
}

func NewSessionHealthChecker(source HealthSource, clock clockwork.Clock, threshold time.Duration) *SessionHealthChecker {
	return &SessionHealthChecker{
		source:    source,
		clock:     clock,
		threshold: threshold,
	}
}

func (h *SessionHealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	status.ConnectionState = h.source.ConnectionState()
	if status.ConnectionState != channel.StateConnected {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("channel %s", status.ConnectionState))
	}

	status.EventsProcessed, status.LastEventTime = h.source.Stats()
	status.WatchedAuctions = h.source.Watched()

	// Silence only matters while something is being watched
	if status.WatchedAuctions > 0 && !status.LastEventTime.IsZero() && h.threshold > 0 {
		since := h.clock.Since(status.LastEventTime)
		if since > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no events received for %s", since.Truncate(time.Second)))
		}
	}

	return status
}

// ServeHTTP handles GET /health
func (h *SessionHealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}
