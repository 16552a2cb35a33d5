package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_TTLBoundary(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := NewFeed(WithClock(clock))

	id := feed.Push(KindError, "outbid")
	require.NotZero(t, id)

	clock.Advance(4999 * time.Millisecond)
	assert.Empty(t, feed.Tick(clock.Now()))
	require.Len(t, feed.Active(), 1)
	assert.Equal(t, id, feed.Active()[0].ID)

	clock.Advance(2 * time.Millisecond)
	// reads are correct before the eviction tick runs
	assert.Empty(t, feed.Active())
	removed := feed.Tick(clock.Now())
	require.Len(t, removed, 1)
	assert.Equal(t, id, removed[0].ID)
	assert.Equal(t, 0, feed.Len())
}

func TestFeed_TickRemovesAtExactExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := NewFeed(WithClock(clock))
	start := clock.Now()

	feed.Push(KindInfo, "first")
	clock.Advance(500 * time.Millisecond)
	feed.Push(KindInfo, "second")

	removed := feed.Tick(start.Add(DefaultTTL))
	require.Len(t, removed, 1)
	assert.Equal(t, "first", removed[0].Message)
	assert.Equal(t, 1, feed.Len())
}

func TestFeed_ConcurrentPushes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := NewFeed(WithClock(clock))

	const writers, perWriter = 16, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				feed.Push(KindInfo, fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	active := feed.Active()
	require.Len(t, active, writers*perWriter)
	for i := 1; i < len(active); i++ {
		assert.Greater(t, active[i].ID, active[i-1].ID, "ids must follow insertion order")
	}

	clock.Advance(DefaultTTL - time.Millisecond)
	assert.Empty(t, feed.Tick(clock.Now()))
	assert.Len(t, feed.Active(), writers*perWriter)

	clock.Advance(2 * time.Millisecond)
	assert.Len(t, feed.Tick(clock.Now()), writers*perWriter)
	assert.Empty(t, feed.Active())
}

func TestFeed_RunEvicts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := NewFeed(WithClock(clock), WithTTL(500*time.Millisecond))

	changes := make(chan []Notification, 4)
	feed.Subscribe(func(active []Notification) { changes <- active })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = feed.Run(ctx, 500*time.Millisecond) }()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	feed.Push(KindSuccess, "won")
	assert.Len(t, <-changes, 1)

	clock.Advance(500 * time.Millisecond)

	select {
	case active := <-changes:
		assert.Empty(t, active)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for eviction")
	}
	assert.Equal(t, 0, feed.Len())
}

func TestFeed_Close(t *testing.T) {
	feed := NewFeed()
	feed.Push(KindInfo, "a")
	feed.Close()
	feed.Close()

	assert.Empty(t, feed.Active())
	assert.Zero(t, feed.Push(KindInfo, "late"))
	assert.Equal(t, 0, feed.Len())
}
