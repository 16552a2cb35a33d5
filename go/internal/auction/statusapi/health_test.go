package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livebid/go/internal/auction/channel"
)

type stubSource struct {
	state     channel.State
	processed uint64
	lastEvent time.Time
	watched   int
}

func (s stubSource) ConnectionState() channel.State { return s.state }
func (s stubSource) Stats() (uint64, time.Time)     { return s.processed, s.lastEvent }
func (s stubSource) Watched() int                   { return s.watched }

func TestSessionHealthChecker_Check(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()

	tests := []struct {
		name    string
		source  stubSource
		healthy bool
		errors  int
	}{
		{
			name:    "connected_and_fresh",
			source:  stubSource{state: channel.StateConnected, processed: 12, lastEvent: now.Add(-time.Minute), watched: 2},
			healthy: true,
		},
		{
			name:    "connected_idle_nothing_watched",
			source:  stubSource{state: channel.StateConnected, processed: 12, lastEvent: now.Add(-time.Hour)},
			healthy: true,
		},
		{
			name:    "connecting",
			source:  stubSource{state: channel.StateConnecting},
			healthy: false,
			errors:  1,
		},
		{
			name:    "stale_while_watching",
			source:  stubSource{state: channel.StateConnected, processed: 3, lastEvent: now.Add(-10 * time.Minute), watched: 1},
			healthy: false,
			errors:  1,
		},
		{
			name:    "failed_and_stale",
			source:  stubSource{state: channel.StateFailed, processed: 3, lastEvent: now.Add(-10 * time.Minute), watched: 1},
			healthy: false,
			errors:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewSessionHealthChecker(tt.source, clock, DefaultStaleThreshold)
			status := checker.Check(context.Background())

			assert.Equal(t, tt.healthy, status.Healthy)
			assert.Len(t, status.Errors, tt.errors)
			assert.Equal(t, tt.source.state, status.ConnectionState)
			assert.Equal(t, tt.source.processed, status.EventsProcessed)
			assert.Equal(t, tt.source.watched, status.WatchedAuctions)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &stubSource{state: channel.StateConnected, processed: 1, lastEvent: clock.Now(), watched: 1}

	ctrl := gomock.NewController(t)
	handler := NewHandler(NewMockBackend(ctrl), NewSessionHealthChecker(source, clock, DefaultStaleThreshold), nil)
	srv := httptest.NewServer(NewServer(":0", handler).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, status.Healthy)

	clock.Advance(DefaultStaleThreshold + time.Second)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.False(t, status.Healthy)
	assert.Equal(t, []string{"no events received for 5m1s"}, status.Errors)
}
