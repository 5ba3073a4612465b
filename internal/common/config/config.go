package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
)

type RelayConfig struct {
	HTTPPort string `env:"RELAY_HTTP_PORT" envDefault:"8082"`
	LogDir   string `env:"LOG_DIR"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	WebSocketWriteWait      time.Duration `env:"RELAY_WS_WRITE_WAIT" envDefault:"10s"`
	WebSocketPongWait       time.Duration `env:"RELAY_WS_PONG_WAIT" envDefault:"60s"`
	WebSocketPingPeriod     time.Duration `env:"RELAY_WS_PING_PERIOD" envDefault:"54s"`
	WebSocketMaxMsgSize     int64         `env:"RELAY_WS_MAX_MSG_SIZE" envDefault:"20971520"`
	WebSocketSendBufSize    int           `env:"RELAY_WS_SEND_BUF_SIZE" envDefault:"256"`
	WebSocketAllowedOrigins []string      `env:"RELAY_WS_ALLOWED_ORIGINS" envSeparator:","`

	SlowConsumerThreshold  int32         `env:"RELAY_WS_SLOW_CONSUMER_THRESHOLD" envDefault:"64"`
	SlowConsumerResetAfter time.Duration `env:"RELAY_WS_SLOW_CONSUMER_RESET" envDefault:"30s"`

	ProcessorWorkers   int           `env:"RELAY_PROCESSOR_WORKERS" envDefault:"10"`
	ProcessorQueueSize int           `env:"RELAY_PROCESSOR_QUEUE_SIZE" envDefault:"1000"`
	IdempotencyTTL     time.Duration `env:"RELAY_IDEMPOTENCY_TTL" envDefault:"5m"`
	DebugSampleRate    float64       `env:"RELAY_DEBUG_SAMPLE_RATE" envDefault:"0.01"`

	NotifyRequestsPerSecond float64       `env:"RELAY_NOTIFY_RPS" envDefault:"20"`
	NotifyBurst             int           `env:"RELAY_NOTIFY_BURST" envDefault:"40"`
	RequestTimeout          time.Duration `env:"RELAY_REQUEST_TIMEOUT" envDefault:"5s"`
}

func LoadRelayConfig() (RelayConfig, error) {
	var cfg RelayConfig
	if err := env.Parse(&cfg); err != nil {
		return RelayConfig{}, commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("parse env: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return RelayConfig{}, err
	}
	return cfg, nil
}

func (c RelayConfig) Validate() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil || port <= 0 || port > 65535 {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("RELAY_HTTP_PORT %q is not a valid port", c.HTTPPort))
	}

	if c.WebSocketPingPeriod >= c.WebSocketPongWait {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf(
			"RELAY_WS_PING_PERIOD (%v) must be shorter than RELAY_WS_PONG_WAIT (%v)",
			c.WebSocketPingPeriod, c.WebSocketPongWait,
		))
	}

	positive := map[string]int64{
		"RELAY_WS_MAX_MSG_SIZE":      c.WebSocketMaxMsgSize,
		"RELAY_WS_SEND_BUF_SIZE":     int64(c.WebSocketSendBufSize),
		"RELAY_PROCESSOR_WORKERS":    int64(c.ProcessorWorkers),
		"RELAY_PROCESSOR_QUEUE_SIZE": int64(c.ProcessorQueueSize),
		"RELAY_NOTIFY_BURST":         int64(c.NotifyBurst),
	}
	for key, v := range positive {
		if v <= 0 {
			return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("%s must be positive, got %d", key, v))
		}
	}

	if c.NotifyRequestsPerSecond <= 0 {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("RELAY_NOTIFY_RPS must be positive, got %v", c.NotifyRequestsPerSecond))
	}

	if c.RequestTimeout <= 0 {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("RELAY_REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout))
	}

	// Zero disables slow-consumer eviction.
	if c.SlowConsumerThreshold < 0 {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf(
			"RELAY_WS_SLOW_CONSUMER_THRESHOLD must not be negative, got %d", c.SlowConsumerThreshold,
		))
	}

	if c.DebugSampleRate < 0 || c.DebugSampleRate > 1 {
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf(
			"RELAY_DEBUG_SAMPLE_RATE must be within [0, 1], got %v", c.DebugSampleRate,
		))
	}
	return nil
}
