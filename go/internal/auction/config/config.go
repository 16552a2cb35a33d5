package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/livebid/go/internal/auction/channel"
	"github.com/mcdev12/livebid/go/internal/auction/session"
)

const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

type Config struct {
	LogLevel  string `yaml:"log_level"`
	Transport string `yaml:"transport"`

	Session struct {
		UserID string `yaml:"user_id"`
		Token  string `yaml:"token"`
	} `yaml:"session"`

	WebSocket struct {
		URL            string        `yaml:"url"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxMessageSize int64         `yaml:"max_message_size"`
	} `yaml:"websocket"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Channel struct {
		MaxReconnects int           `yaml:"max_reconnects"`
		ReconnectWait time.Duration `yaml:"reconnect_wait"`
	} `yaml:"channel"`

	Storefront struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"storefront"`

	Timings struct {
		CountdownInterval time.Duration `yaml:"countdown_interval"`
		SweepInterval     time.Duration `yaml:"sweep_interval"`
		FeedTickInterval  time.Duration `yaml:"feed_tick_interval"`
		IdleGrace         time.Duration `yaml:"idle_grace"`
		NotificationTTL   time.Duration `yaml:"notification_ttl"`
		BidTimeout        time.Duration `yaml:"bid_timeout"`
		FeedbackGrace     time.Duration `yaml:"feedback_grace"`
	} `yaml:"timings"`

	StatusAPI struct {
		Addr           string        `yaml:"addr"`
		StaleThreshold time.Duration `yaml:"stale_threshold"`
	} `yaml:"status_api"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		LogLevel:  "info",
		Transport: TransportWebSocket,
	}

	ws := channel.DefaultWebSocketConfig("ws://localhost:8081/ws")
	cfg.WebSocket.URL = ws.URL
	cfg.WebSocket.WriteTimeout = ws.WriteTimeout
	cfg.WebSocket.ReadTimeout = ws.ReadTimeout
	cfg.WebSocket.PingInterval = ws.PingInterval
	cfg.WebSocket.MaxMessageSize = ws.MaxMessageSize

	nc := channel.DefaultNATSConfig()
	cfg.NATS.URL = nc.URL
	cfg.NATS.SubjectPrefix = nc.SubjectPrefix

	sc := session.DefaultConfig()
	cfg.Channel.MaxReconnects = sc.Channel.MaxReconnects
	cfg.Channel.ReconnectWait = sc.Channel.ReconnectWait
	cfg.Storefront.BaseURL = "http://localhost:8080"
	cfg.Storefront.Timeout = sc.FetchTimeout
	cfg.Timings.CountdownInterval = sc.CountdownInterval
	cfg.Timings.SweepInterval = sc.SweepInterval
	cfg.Timings.FeedTickInterval = sc.FeedTickInterval
	cfg.Timings.IdleGrace = sc.IdleGrace
	cfg.Timings.NotificationTTL = sc.NotificationTTL
	cfg.Timings.BidTimeout = sc.BidTimeout
	cfg.Timings.FeedbackGrace = sc.FeedbackGrace
	cfg.StatusAPI.Addr = ":9090"
	cfg.StatusAPI.StaleThreshold = 5 * time.Minute
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Transport = getEnv("LIVEBID_TRANSPORT", c.Transport)
	c.Session.UserID = getEnv("LIVEBID_USER_ID", c.Session.UserID)
	c.Session.Token = getEnv("LIVEBID_TOKEN", c.Session.Token)
	c.WebSocket.URL = getEnv("LIVEBID_WS_URL", c.WebSocket.URL)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.Channel.MaxReconnects = getEnvAsInt("LIVEBID_MAX_RECONNECTS", c.Channel.MaxReconnects)
	c.Channel.ReconnectWait = getEnvAsDuration("LIVEBID_RECONNECT_WAIT", c.Channel.ReconnectWait)
	c.Storefront.BaseURL = getEnv("STOREFRONT_URL", c.Storefront.BaseURL)
	c.Timings.BidTimeout = getEnvAsDuration("LIVEBID_BID_TIMEOUT", c.Timings.BidTimeout)
	c.StatusAPI.Addr = getEnv("STATUS_ADDR", c.StatusAPI.Addr)
}

// Validate checks the settings that cannot fall back to a default
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportWebSocket:
		if c.WebSocket.URL == "" {
			errs = append(errs, errors.New("websocket.url is required"))
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			errs = append(errs, errors.New("nats.url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.Timings.NotificationTTL <= 0 {
		errs = append(errs, errors.New("timings.notification_ttl must be positive"))
	}
	if c.Timings.BidTimeout <= 0 {
		errs = append(errs, errors.New("timings.bid_timeout must be positive"))
	}
	if c.Timings.SweepInterval <= 0 {
		errs = append(errs, errors.New("timings.sweep_interval must be positive"))
	}
	if c.Timings.FeedTickInterval <= 0 {
		errs = append(errs, errors.New("timings.feed_tick_interval must be positive"))
	}
	return errors.Join(errs...)
}

// Credentials returns the session credentials
func (c *Config) Credentials() channel.Credentials {
	return channel.Credentials{UserID: c.Session.UserID, Token: c.Session.Token}
}

// SessionConfig returns the per-session timings
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Channel: channel.Config{
			MaxReconnects: c.Channel.MaxReconnects,
			ReconnectWait: c.Channel.ReconnectWait,
		},
		CountdownInterval: c.Timings.CountdownInterval,
		SweepInterval:     c.Timings.SweepInterval,
		FeedTickInterval:  c.Timings.FeedTickInterval,
		IdleGrace:         c.Timings.IdleGrace,
		NotificationTTL:   c.Timings.NotificationTTL,
		BidTimeout:        c.Timings.BidTimeout,
		FeedbackGrace:     c.Timings.FeedbackGrace,
		FetchTimeout:      c.Storefront.Timeout,
	}
}

// Dialer builds the transport selected by Transport
func (c *Config) Dialer() channel.Dialer {
	if c.Transport == TransportNATS {
		nc := channel.DefaultNATSConfig()
		nc.URL = c.NATS.URL
		nc.SubjectPrefix = c.NATS.SubjectPrefix
		return channel.NewNATSDialer(nc)
	}

	ws := channel.DefaultWebSocketConfig(c.WebSocket.URL)
	ws.WriteTimeout = c.WebSocket.WriteTimeout
	ws.ReadTimeout = c.WebSocket.ReadTimeout
	ws.PingInterval = c.WebSocket.PingInterval
	ws.MaxMessageSize = c.WebSocket.MaxMessageSize
	return channel.NewWebSocketDialer(ws)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
