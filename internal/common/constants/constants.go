package constants

import "time"

const (
	DefaultMaxRequestSize = 1 << 20

	IdempotencyTTL = 5 * time.Minute

	WebSocketProcessorWorkers            = 10
	WebSocketProcessorQueueSize          = 1000
	WebSocketProcessorTimeout            = 30 * time.Second
	WebSocketShutdownNotificationTimeout = 5 * time.Second
	WebSocketMetricsInterval             = 15 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	RateLimitCleanupInterval = 5 * time.Minute

	DefaultWebSocketWriteWait   = 10 * time.Second
	DefaultWebSocketPongWait    = 60 * time.Second
	DefaultWebSocketPingPeriod  = 54 * time.Second
	DefaultWebSocketMaxMsgSize  = 20 * 1024 * 1024
	DefaultWebSocketSendBufSize = 256

	DefaultSlowConsumerThreshold  = 64
	DefaultSlowConsumerResetAfter = 30 * time.Second

	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
