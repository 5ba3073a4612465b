package metrics

import (
	observabilitymetrics "github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

func IncrementActiveWebSocketConnections() {
	observabilitymetrics.ChatWebSocketConnectionsActive.Inc()
	observabilitymetrics.ChatWebSocketConnectionsTotal.Inc()
}

func DecrementActiveWebSocketConnections() {
	observabilitymetrics.ChatWebSocketConnectionsActive.Dec()
}

func IncrementWebSocketError(errorType string) {
	observabilitymetrics.ChatWebSocketErrors.WithLabelValues(errorType).Inc()
}

func IncrementWebSocketMessage(messageType string) {
	observabilitymetrics.ChatWebSocketMessagesTotal.WithLabelValues(messageType).Inc()
}

func IncrementDisconnection(reason string) {
	observabilitymetrics.ChatWebSocketDisconnections.WithLabelValues(reason).Inc()
}

func SetUsersOnline(n int) {
	observabilitymetrics.ChatUsersOnline.Set(float64(n))
}

// RecordPresenceTransition counts "online", "offline", "moved" transitions.
func RecordPresenceTransition(kind string) {
	observabilitymetrics.ChatPresenceTransitionsTotal.WithLabelValues(kind).Inc()
}

func RecordRelay(messageType string, deliveries int) {
	observabilitymetrics.ChatRelayedEventsTotal.WithLabelValues(messageType).Inc()
	observabilitymetrics.ChatRelayDeliveries.WithLabelValues(messageType).Observe(float64(deliveries))
}

func IncrementDroppedEvent(reason string) {
	observabilitymetrics.ChatWebSocketDroppedEvents.WithLabelValues(reason).Inc()
}

func IncrementDroppedFrame(messageType string) {
	observabilitymetrics.ChatWebSocketDroppedMessages.WithLabelValues(messageType).Inc()
}
