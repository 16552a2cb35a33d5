package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig holds websocket transport settings
type WebSocketConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	ReadBufferSize   int
	WriteBufferSize  int
}

// DefaultWebSocketConfig returns default websocket settings for url
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     54 * time.Second,
		MaxMessageSize:   512 * 1024,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

// WebSocketDialer connects to the auction server over a websocket. The
// session token and user id travel as handshake headers.
type WebSocketDialer struct {
	config WebSocketConfig
	dialer *websocket.Dialer
}

// NewWebSocketDialer creates a dialer for config
func NewWebSocketDialer(config WebSocketConfig) *WebSocketDialer {
	return &WebSocketDialer{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
	}
}

// Dial performs the websocket handshake
func (d *WebSocketDialer) Dial(ctx context.Context, creds Credentials) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)
	header.Set("X-User-ID", creds.UserID)

	ws, resp, err := d.dialer.DialContext(ctx, d.config.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket handshake: %w", err)
	}

	c := &wsConn{
		ws:     ws,
		config: d.config,
		stop:   make(chan struct{}),
	}

	if d.config.MaxMessageSize > 0 {
		ws.SetReadLimit(d.config.MaxMessageSize)
	}
	c.extendReadDeadline()
	ws.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	if d.config.PingInterval > 0 {
		go c.pingLoop()
	}

	log.Debug().Str("url", d.config.URL).Str("user_id", creds.UserID).Msg("websocket handshake complete")
	return c, nil
}

type wsConn struct {
	ws     *websocket.Conn
	config WebSocketConfig

	writeMu   sync.Mutex
	stop      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) extendReadDeadline() {
	if c.config.ReadTimeout > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}

// ReadMessage blocks until the next data frame
func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return nil, err
		}
		c.extendReadDeadline()
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

// WriteMessage writes one text frame
func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.stop:
		return errors.New("websocket closed")
	default:
	}

	if c.config.WriteTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Msg("websocket ping failed")
				return
			}
		}
	}
}

// Close sends a close frame and releases the socket
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		err = c.ws.Close()
	})
	return err
}
