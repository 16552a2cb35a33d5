package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/internal/auction/events"
	"github.com/mcdev12/livebid/go/internal/auction/metrics"
)

// State is the connection state of a session's channel
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateFailed       State = "FAILED"
)

var (
	ErrCredentialsMissing = errors.New("session credentials missing")
	ErrTransportFailure   = errors.New("transport failure")
	ErrNotConnected       = errors.New("channel not connected")
	ErrClosed             = errors.New("channel closed")
)

// Credentials identify the session to the auction server
type Credentials struct {
	UserID string
	Token  string
}

// Valid reports whether both the user id and the token are present
func (c Credentials) Valid() bool {
	return c.UserID != "" && c.Token != ""
}

// Conn is one live bidirectional link to the auction server
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer performs the handshake and returns a live link
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Conn, error)
}

// Handler receives every inbound event, serially
type Handler func(events.Envelope)

// StateFunc receives state transitions. err is set for FAILED and for
// transport drops.
type StateFunc func(state State, err error)

// Config holds reconnection settings
type Config struct {
	MaxReconnects int // -1 for unlimited
	ReconnectWait time.Duration
}

// DefaultConfig returns default reconnection settings
func DefaultConfig() Config {
	return Config{
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Manager owns the single connection of a session. Listeners are registered
// on the manager, not the connection, so they survive reconnects.
type Manager struct {
	id      string
	dialer  Dialer
	config  Config
	clock   clockwork.Clock
	metrics metrics.Collector

	mu        sync.Mutex
	state     State
	creds     Credentials
	conn      Conn
	opened    bool
	closed    bool
	cancel    context.CancelFunc
	runDone   chan struct{}
	handlers  []handlerEntry
	stateFns  []stateEntry
	nextID    uint64
	closeOnce sync.Once
	done      chan struct{}

	writeMu sync.Mutex
}

type handlerEntry struct {
	id uint64
	fn Handler
}

type stateEntry struct {
	id uint64
	fn StateFunc
}

// Option configures a Manager
type Option func(*Manager)

// WithClock sets the clock used for reconnect waits
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithMetrics sets the metrics collector
func WithMetrics(c metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// NewManager creates a disconnected manager
func NewManager(dialer Dialer, config Config, opts ...Option) *Manager {
	m := &Manager{
		id:      uuid.New().String(),
		dialer:  dialer,
		config:  config,
		clock:   clockwork.NewRealClock(),
		metrics: metrics.NoOpCollector{},
		state:   StateDisconnected,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the manager's connection id for logging
func (m *Manager) ID() string {
	return m.id
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the manager has been closed and its consumer exited
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Open performs the handshake. It fails only when credentials are missing;
// handshake errors move the manager to FAILED and are reported to state
// listeners. Opening an open manager is a no-op.
func (m *Manager) Open(ctx context.Context, creds Credentials) error {
	if !creds.Valid() {
		return ErrCredentialsMissing
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.opened {
		m.mu.Unlock()
		return nil
	}
	m.opened = true
	m.creds = creds
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.setState(StateConnecting, nil)

	conn, err := m.dialer.Dial(ctx, creds)
	if err != nil {
		m.mu.Lock()
		m.opened = false
		m.mu.Unlock()
		cancel()
		m.setState(StateFailed, fmt.Errorf("%w: %v", ErrTransportFailure, err))
		return nil
	}
	if !m.attach(conn) {
		conn.Close()
		cancel()
		return nil
	}

	runDone := make(chan struct{})
	m.mu.Lock()
	m.runDone = runDone
	m.mu.Unlock()

	m.setState(StateConnected, nil)
	go m.run(runCtx, conn, runDone)

	log.Info().
		Str("connection_id", m.id).
		Str("user_id", creds.UserID).
		Msg("auction channel connected")
	return nil
}

// On registers an event handler and returns a function that removes it
func (m *Manager) On(fn Handler) (remove func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.handlers = append(m.handlers, handlerEntry{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, h := range m.handlers {
			if h.id == id {
				m.handlers = append(m.handlers[:i], m.handlers[i+1:]...)
				return
			}
		}
	}
}

// OnStateChange registers a state listener and returns a function that removes it
func (m *Manager) OnStateChange(fn StateFunc) (remove func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.stateFns = append(m.stateFns, stateEntry{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.stateFns {
			if s.id == id {
				m.stateFns = append(m.stateFns[:i], m.stateFns[i+1:]...)
				return
			}
		}
	}
}

// Send writes one event to the server
func (m *Manager) Send(ctx context.Context, env events.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	conn, state := m.conn, m.state
	m.mu.Unlock()
	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	data, err := events.Encode(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrTransportFailure, env.Type, err)
	}

	log.Debug().
		Str("connection_id", m.id).
		Str("event_type", string(env.Type)).
		Msg("sent client event")
	return nil
}

// Close releases the connection and every listener. It is idempotent and
// does not wait for the consumer goroutine; use Done for that.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		conn := m.conn
		m.conn = nil
		cancel := m.cancel
		runDone := m.runDone
		m.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			if err := conn.Close(); err != nil {
				log.Debug().Err(err).Str("connection_id", m.id).Msg("error closing connection")
			}
		}

		m.setState(StateDisconnected, nil)

		m.mu.Lock()
		m.handlers = nil
		m.stateFns = nil
		m.mu.Unlock()

		go func() {
			if runDone != nil {
				<-runDone
			}
			close(m.done)
		}()

		log.Info().Str("connection_id", m.id).Msg("auction channel closed")
	})
	return nil
}

// attach installs conn as the live connection unless the manager was closed
func (m *Manager) attach(conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.conn = conn
	return true
}

func (m *Manager) detach(conn Conn) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	conn.Close()
}

// run is the single consumer of inbound events for the manager's lifetime,
// including across reconnects.
func (m *Manager) run(ctx context.Context, conn Conn, runDone chan struct{}) {
	defer close(runDone)

	for {
		err := m.readLoop(conn)
		if ctx.Err() != nil {
			return
		}

		m.detach(conn)
		log.Warn().
			Err(err).
			Str("connection_id", m.id).
			Msg("auction channel dropped, reconnecting")
		m.setState(StateConnecting, fmt.Errorf("%w: %v", ErrTransportFailure, err))

		conn = m.reconnect(ctx)
		if conn == nil {
			return
		}
		m.setState(StateConnected, nil)
		log.Info().Str("connection_id", m.id).Msg("auction channel reconnected")
	}
}

func (m *Manager) readLoop(conn Conn) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		env, err := events.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("connection_id", m.id).Msg("dropping undecodable frame")
			continue
		}
		m.dispatch(env)
	}
}

func (m *Manager) dispatch(env events.Envelope) {
	m.mu.Lock()
	handlers := make([]Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.fn
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(env)
	}
}

// reconnect redials with the session's credentials. It returns nil when the
// manager is closed or the attempts are exhausted.
func (m *Manager) reconnect(ctx context.Context) Conn {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	for attempt := 1; m.config.MaxReconnects < 0 || attempt <= m.config.MaxReconnects; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-m.clock.After(m.config.ReconnectWait):
		}

		conn, err := m.dialer.Dial(ctx, creds)
		if err != nil {
			log.Warn().
				Err(err).
				Str("connection_id", m.id).
				Int("attempt", attempt).
				Msg("reconnect attempt failed")
			continue
		}
		if !m.attach(conn) {
			conn.Close()
			return nil
		}
		return conn
	}

	m.mu.Lock()
	m.opened = false
	m.mu.Unlock()
	m.setState(StateFailed, fmt.Errorf("%w: gave up after %d reconnect attempts", ErrTransportFailure, m.config.MaxReconnects))
	return nil
}

func (m *Manager) setState(state State, err error) {
	m.mu.Lock()
	if m.closed && state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	if m.state == state && err == nil {
		m.mu.Unlock()
		return
	}
	m.state = state
	fns := make([]StateFunc, len(m.stateFns))
	for i, s := range m.stateFns {
		fns[i] = s.fn
	}
	m.mu.Unlock()

	m.metrics.RecordConnectionState(string(state))
	evt := log.Debug()
	if state == StateFailed {
		evt = log.Error().Err(err)
	}
	evt.Str("connection_id", m.id).Str("state", string(state)).Msg("channel state changed")

	for _, fn := range fns {
		fn(state, err)
	}
}
