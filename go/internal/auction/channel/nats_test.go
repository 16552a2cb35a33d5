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
)

// connDialer hands out any Conn in order
type connDialer struct {
	mu    sync.Mutex
	conns []Conn
}

func (d *connDialer) Dial(ctx context.Context, _ Credentials) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func TestNATSConfig_Subjects(t *testing.T) {
	cfg := DefaultNATSConfig()
	cfg.SubjectPrefix = "shop"

	assert.Equal(t, "shop.users.u1", cfg.InboxSubject("u1"))
	assert.Equal(t, "shop.commands.u1", cfg.CommandSubject("u1"))
}

func TestNATSConn_DisconnectEndsConn(t *testing.T) {
	c := newNATSConn(DefaultNATSConfig(), "u1")

	readErr := make(chan error, 1)
	go func() {
		_, err := c.ReadMessage()
		readErr <- err
	}()

	c.handleDisconnect(nil, errors.New("broker gone"))

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, errNATSDisconnected)
		assert.Contains(t, err.Error(), "broker gone")
	case <-time.After(time.Second):
		t.Fatal("read did not end on disconnect")
	}

	assert.ErrorIs(t, c.WriteMessage([]byte(`{}`)), errNATSDisconnected)
	require.NoError(t, c.Close())

	// The first cause is kept after Close
	_, err := c.ReadMessage()
	assert.ErrorIs(t, err, errNATSDisconnected)
}

func TestNATSConn_DisconnectDropsManager(t *testing.T) {
	clock := clockwork.NewFakeClock()
	first := newNATSConn(DefaultNATSConfig(), "u1")
	second := newFakeConn()
	dialer := &connDialer{conns: []Conn{first, second}}

	m := NewManager(dialer, DefaultConfig(), WithClock(clock))
	defer m.Close()
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	require.NoError(t, m.Open(context.Background(), creds))
	assert.Equal(t, StateConnected, m.State())

	first.handleDisconnect(nil, errors.New("broker gone"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, StateConnecting, m.State())
	assert.ErrorIs(t, rec.lastErr(), ErrTransportFailure)

	clock.Advance(DefaultConfig().ReconnectWait)
	require.Eventually(t, func() bool { return m.State() == StateConnected }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []State{StateConnecting, StateConnected, StateConnecting, StateConnected}, rec.snapshot())
}
