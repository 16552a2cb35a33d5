package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var (
	errNATSClosed       = errors.New("nats connection closed")
	errNATSDisconnected = errors.New("nats disconnected")
)

// NATSConfig holds NATS transport settings
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "auction"
	ClientName    string
	InboxBuffer   int
}

// DefaultNATSConfig returns default NATS transport configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "auction",
		ClientName:    "livebid",
		InboxBuffer:   256,
	}
}

// InboxSubject is where the server publishes events for userID
func (c NATSConfig) InboxSubject(userID string) string {
	return fmt.Sprintf("%s.users.%s", c.SubjectPrefix, userID)
}

// CommandSubject is where the client publishes its events
func (c NATSConfig) CommandSubject(userID string) string {
	return fmt.Sprintf("%s.commands.%s", c.SubjectPrefix, userID)
}

// NATSDialer connects to the auction server through a NATS broker. The NATS
// client does not reconnect on its own: a broker disconnect ends the conn so
// the manager reports the drop and redials.
type NATSDialer struct {
	config NATSConfig
}

// NewNATSDialer creates a dialer for config
func NewNATSDialer(config NATSConfig) *NATSDialer {
	return &NATSDialer{config: config}
}

// Dial connects with the session token and subscribes to the user's inbox
func (d *NATSDialer) Dial(ctx context.Context, creds Credentials) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := newNATSConn(d.config, creds.UserID)

	opts := []nats.Option{
		nats.Name(d.config.ClientName),
		nats.Token(creds.Token),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			c.fail(errNATSClosed)
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(d.config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	buffer := d.config.InboxBuffer
	if buffer <= 0 {
		buffer = 256
	}
	c.nc = nc
	c.msgs = make(chan *nats.Msg, buffer)

	sub, err := nc.ChanSubscribe(d.config.InboxSubject(creds.UserID), c.msgs)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to inbox: %w", err)
	}
	c.sub = sub

	log.Debug().
		Str("url", nc.ConnectedUrl()).
		Str("subject", sub.Subject).
		Msg("NATS auction inbox subscribed")
	return c, nil
}

type natsConn struct {
	config NATSConfig
	userID string
	nc     *nats.Conn
	sub    *nats.Subscription
	msgs   chan *nats.Msg

	closeOnce sync.Once
	closed    chan struct{}
	err       error
}

func newNATSConn(config NATSConfig, userID string) *natsConn {
	return &natsConn{
		config: config,
		userID: userID,
		closed: make(chan struct{}),
	}
}

// fail ends the conn with err. Only the first cause is kept.
func (c *natsConn) fail(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.closed)
	})
}

func (c *natsConn) handleDisconnect(_ *nats.Conn, err error) {
	log.Error().Err(err).Str("user_id", c.userID).Msg("NATS disconnected")
	if err == nil {
		c.fail(errNATSDisconnected)
		return
	}
	c.fail(fmt.Errorf("%w: %v", errNATSDisconnected, err))
}

// ReadMessage blocks until the next inbox message
func (c *natsConn) ReadMessage() ([]byte, error) {
	select {
	case msg := <-c.msgs:
		return msg.Data, nil
	case <-c.closed:
		return nil, c.err
	}
}

// WriteMessage publishes data on the user's command subject
func (c *natsConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return c.err
	default:
	}

	msg := &nats.Msg{
		Subject: c.config.CommandSubject(c.userID),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("X-User-ID", c.userID)
	if err := c.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Subject, err)
	}
	return nil
}

// Close unsubscribes and closes the broker connection
func (c *natsConn) Close() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			log.Debug().Err(err).Msg("NATS unsubscribe failed")
		}
	}
	if c.nc != nil {
		c.nc.Close()
	}
	c.fail(errNATSClosed)
	return nil
}
