package bootstrap

import (
	"fmt"

	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
	"github.com/AlibekovAA/relay-hub/internal/chat/websocket"
	"github.com/AlibekovAA/relay-hub/internal/common/clock"
	"github.com/AlibekovAA/relay-hub/internal/common/config"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	commonhttp "github.com/AlibekovAA/relay-hub/internal/common/http"
	"github.com/AlibekovAA/relay-hub/internal/common/ids"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

type RelayApp struct {
	Log      *logger.Logger
	Config   config.RelayConfig
	Registry *registry.Registry
	Hub      *websocket.Hub
	Limiter  *commonhttp.RateLimiter
}

// NewRelayApp loads the config from the environment and builds the logger
// from it. Errors are returned to the caller, which owns the exit.
func NewRelayApp() (*RelayApp, error) {
	cfg, err := config.LoadRelayConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "relay", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewRelayAppWith(log, cfg), nil
}

// NewRelayAppWith assembles the relay from an already loaded config.
func NewRelayAppWith(log *logger.Logger, cfg config.RelayConfig) *RelayApp {
	reg := registry.New()

	hub := websocket.NewHub(websocket.HubDeps{
		Registry: reg,
		IDs:      ids.NewUUIDGenerator(),
		Clock:    clock.NewRealClock(),
		Log:      log,
	}, websocket.HubConfig{
		Client: websocket.ClientConfig{
			WriteWait:      cfg.WebSocketWriteWait,
			PongWait:       cfg.WebSocketPongWait,
			PingPeriod:     cfg.WebSocketPingPeriod,
			MaxMessageSize: cfg.WebSocketMaxMsgSize,
			SendBufferSize: cfg.WebSocketSendBufSize,

			SlowConsumerThreshold:  cfg.SlowConsumerThreshold,
			SlowConsumerResetAfter: cfg.SlowConsumerResetAfter,
		},
		ProcessorWorkers:   cfg.ProcessorWorkers,
		ProcessorQueueSize: cfg.ProcessorQueueSize,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		DebugSampleRate:    cfg.DebugSampleRate,
		MetricsInterval:    constants.WebSocketMetricsInterval,
	})

	return &RelayApp{
		Log:      log,
		Config:   cfg,
		Registry: reg,
		Hub:      hub,
		Limiter:  commonhttp.NewRateLimiter(cfg.NotifyRequestsPerSecond, cfg.NotifyBurst),
	}
}
