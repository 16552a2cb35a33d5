package countdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livebid/go/internal/auction/cache"
)

func TestDerive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name   string
		record cache.Record
		want   string
	}{
		{
			name:   "live auction",
			record: cache.Record{Type: cache.TypeLive, EndTime: at(time.Hour)},
			want:   NotApplicable,
		},
		{
			name:   "timed without end time",
			record: cache.Record{Type: cache.TypeTimed},
			want:   NotApplicable,
		},
		{
			name:   "end time in the past",
			record: cache.Record{Type: cache.TypeTimed, EndTime: at(-time.Second)},
			want:   Ended,
		},
		{
			name:   "end time is now",
			record: cache.Record{Type: cache.TypeTimed, EndTime: at(0)},
			want:   Ended,
		},
		{
			name:   "ended early",
			record: cache.Record{Type: cache.TypeTimed, Status: cache.StatusEnded, EndTime: at(time.Hour)},
			want:   Ended,
		},
		{
			name:   "days hours minutes",
			record: cache.Record{Type: cache.TypeTimed, EndTime: at(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 59*time.Second)},
			want:   "2d 3h 4m",
		},
		{
			name:   "under a minute",
			record: cache.Record{Type: cache.TypeTimed, EndTime: at(30 * time.Second)},
			want:   "0d 0h 0m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(now, tt.record))
		})
	}
}

func TestSourceSharesOneTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := NewSource(clock, time.Second)

	var a, b atomic.Int32
	unsubA := src.Subscribe(func(time.Time) { a.Add(1) })
	src.Subscribe(func(time.Time) { b.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = src.Run(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)

	unsubA()
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return b.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, 1, src.Subscribers())

	cancel()
	<-done
}
