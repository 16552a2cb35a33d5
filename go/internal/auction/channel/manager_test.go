package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livebid/go/internal/auction/events"
)

var creds = Credentials{UserID: "u1", Token: "tok"}

type fakeConn struct {
	inbound chan []byte
	failed  chan error

	mu      sync.Mutex
	written [][]byte
	closed  bool
	done    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		failed:  make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case err := <-c.failed:
		return nil, err
	case <-c.done:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("use of closed connection")
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// fakeDialer hands out queued results in order
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	calls   int
}

type dialResult struct {
	conn *fakeConn
	err  error
}

func (d *fakeDialer) queue(conn *fakeConn, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, dialResult{conn: conn, err: err})
}

func (d *fakeDialer) Dial(ctx context.Context, _ Credentials) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) == 0 {
		return nil, errors.New("connection refused")
	}
	r := d.results[0]
	d.results = d.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
	errs   []error
}

func (r *stateRecorder) record(s State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	r.errs = append(r.errs, err)
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *stateRecorder) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func frame(t *testing.T, typ events.Type, payload interface{}) []byte {
	t.Helper()
	env, err := events.New(typ, payload)
	require.NoError(t, err)
	data, err := events.Encode(env)
	require.NoError(t, err)
	return data
}

func TestOpen_MissingCredentials(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(dialer, DefaultConfig())

	err := m.Open(context.Background(), Credentials{UserID: "u1"})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.Equal(t, 0, dialer.dialCount())
	assert.Equal(t, StateDisconnected, m.State())
}

func TestOpen_HandshakeFailureGoesToFailed(t *testing.T) {
	dialer := &fakeDialer{}
	dialer.queue(nil, errors.New("401 unauthorized"))
	m := NewManager(dialer, DefaultConfig())
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	require.NoError(t, m.Open(context.Background(), creds))

	assert.Equal(t, StateFailed, m.State())
	assert.Equal(t, []State{StateConnecting, StateFailed}, rec.snapshot())
	assert.ErrorIs(t, rec.lastErr(), ErrTransportFailure)
}

func TestOpen_DispatchesEvents(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(conn, nil)
	m := NewManager(dialer, DefaultConfig())
	defer m.Close()

	received := make(chan events.Envelope, 4)
	m.On(func(env events.Envelope) { received <- env })

	require.NoError(t, m.Open(context.Background(), creds))
	assert.Equal(t, StateConnected, m.State())

	conn.inbound <- []byte("not json")
	conn.inbound <- frame(t, events.TypeWatcherUpdate, events.WatcherUpdatePayload{AuctionID: "A", Watchers: 3})

	select {
	case env := <-received:
		assert.Equal(t, events.TypeWatcherUpdate, env.Type)
	case <-time.After(time.Second):
		t.Fatal("event not dispatched")
	}

	// Opening again is a no-op
	require.NoError(t, m.Open(context.Background(), creds))
	assert.Equal(t, 1, dialer.dialCount())
}

func TestOn_RemoveStopsDelivery(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(conn, nil)
	m := NewManager(dialer, DefaultConfig())
	defer m.Close()

	removed := make(chan events.Envelope, 4)
	kept := make(chan events.Envelope, 4)
	remove := m.On(func(env events.Envelope) { removed <- env })
	m.On(func(env events.Envelope) { kept <- env })
	remove()

	require.NoError(t, m.Open(context.Background(), creds))
	conn.inbound <- frame(t, events.TypeWatcherUpdate, events.WatcherUpdatePayload{AuctionID: "A", Watchers: 1})

	select {
	case <-kept:
	case <-time.After(time.Second):
		t.Fatal("event not dispatched")
	}
	assert.Empty(t, removed)
}

func TestSend(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(conn, nil)
	m := NewManager(dialer, DefaultConfig())
	defer m.Close()

	env, err := events.New(events.TypeJoinAuction, events.JoinAuctionPayload{AuctionID: "A"})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Send(context.Background(), env), ErrNotConnected)

	require.NoError(t, m.Open(context.Background(), creds))
	require.NoError(t, m.Send(context.Background(), env))

	writes := conn.writes()
	require.Len(t, writes, 1)
	decoded, err := events.Decode(writes[0])
	require.NoError(t, err)
	assert.Equal(t, events.TypeJoinAuction, decoded.Type)
}

func TestReconnect_HandlersSurviveAndDeliverOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	first, second := newFakeConn(), newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(first, nil)
	dialer.queue(second, nil)

	m := NewManager(dialer, DefaultConfig(), WithClock(clock))
	defer m.Close()
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	received := make(chan events.Envelope, 4)
	m.On(func(env events.Envelope) { received <- env })

	require.NoError(t, m.Open(context.Background(), creds))
	first.failed <- errors.New("connection reset by peer")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, StateConnecting, m.State())
	assert.True(t, first.isClosed())

	clock.Advance(DefaultConfig().ReconnectWait)
	require.Eventually(t, func() bool { return m.State() == StateConnected }, time.Second, 5*time.Millisecond)

	second.inbound <- frame(t, events.TypeBidUpdate, events.BidUpdatePayload{AuctionID: "A", UserID: "u2"})
	select {
	case env := <-received:
		assert.Equal(t, events.TypeBidUpdate, env.Type)
	case <-time.After(time.Second):
		t.Fatal("event not dispatched after reconnect")
	}
	assert.Empty(t, received)
	assert.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, []State{StateConnecting, StateConnected, StateConnecting, StateConnected}, rec.snapshot())
}

func TestReconnect_GivesUpAfterMaxAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(conn, nil)

	m := NewManager(dialer, Config{MaxReconnects: 1, ReconnectWait: time.Second}, WithClock(clock))
	defer m.Close()
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	require.NoError(t, m.Open(context.Background(), creds))
	conn.failed <- errors.New("EOF")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return m.State() == StateFailed }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, rec.lastErr(), ErrTransportFailure)
	assert.Equal(t, 2, dialer.dialCount())
}

func TestClose(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.queue(conn, nil)
	m := NewManager(dialer, DefaultConfig())
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	require.NoError(t, m.Open(context.Background(), creds))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("manager did not finish")
	}

	assert.True(t, conn.isClosed())
	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, rec.snapshot())

	env, err := events.New(events.TypeJoinAuction, events.JoinAuctionPayload{AuctionID: "A"})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Send(context.Background(), env), ErrNotConnected)
	assert.ErrorIs(t, m.Open(context.Background(), creds), ErrClosed)
	assert.Equal(t, 1, dialer.dialCount())
}

func TestClose_NeverOpened(t *testing.T) {
	m := NewManager(&fakeDialer{}, DefaultConfig())
	require.NoError(t, m.Close())

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("manager did not finish")
	}
}
