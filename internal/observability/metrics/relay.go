package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatWebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	ChatWebSocketConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_websocket_connections_total",
			Help: "Total number of accepted WebSocket connections",
		},
	)

	ChatWebSocketDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_disconnections_total",
			Help: "Total number of WebSocket disconnections",
		},
		[]string{"reason"},
	)

	ChatWebSocketErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_errors_total",
			Help: "Total number of WebSocket errors by type",
		},
		[]string{"error_type"},
	)

	ChatWebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_messages_total",
			Help: "Total number of inbound WebSocket events by type",
		},
		[]string{"message_type"},
	)

	ChatUsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_users_online",
			Help: "Number of users with at least one registered connection",
		},
	)

	ChatPresenceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_presence_transitions_total",
			Help: "Total number of presence transitions by kind",
		},
		[]string{"kind"},
	)

	ChatRelayedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_relayed_events_total",
			Help: "Total number of relayed events by outbound type",
		},
		[]string{"message_type"},
	)

	ChatRelayDeliveries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_relay_deliveries",
			Help:    "Number of connections reached per relayed event",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"message_type"},
	)

	ChatWebSocketDroppedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_dropped_events_total",
			Help: "Total number of inbound events dropped without relay",
		},
		[]string{"reason"},
	)

	ChatWebSocketDroppedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_dropped_messages_total",
			Help: "Total number of outbound frames dropped due to slow or closed clients",
		},
		[]string{"message_type"},
	)

	ChatWebSocketMessageProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_websocket_message_processing_duration_seconds",
			Help:    "Duration of WebSocket message processing in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"message_type"},
	)

	ChatWebSocketMessageProcessorQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_message_processor_queue_size",
			Help: "Current size of WebSocket message processor queues",
		},
	)

	ChatWebSocketIdempotencyDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_websocket_idempotency_duplicates_total",
			Help: "Total number of duplicate messages detected by idempotency",
		},
		[]string{"message_type"},
	)

	ChatWebSocketConnectionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_websocket_connections_rejected_total",
			Help: "Total number of WebSocket upgrades rejected",
		},
	)

	ChatWebSocketSlowConsumerEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_websocket_slow_consumer_evictions_total",
			Help: "Total number of connections closed for repeatedly overflowing their send buffer",
		},
	)
)
