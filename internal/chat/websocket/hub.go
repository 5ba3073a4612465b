// Package websocket carries relay events over gorilla WebSocket connections.
// The Hub owns every live socket and is the message.Sender used by the
// presence and relay layers.
package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/presence"
	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
	"github.com/AlibekovAA/relay-hub/internal/chat/relay"
	"github.com/AlibekovAA/relay-hub/internal/common/clock"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/ids"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	observabilitymetrics "github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

type HubConfig struct {
	Client             ClientConfig
	ProcessorWorkers   int
	ProcessorQueueSize int
	IdempotencyTTL     time.Duration
	DebugSampleRate    float64
	MetricsInterval    time.Duration
}

type HubDeps struct {
	Registry *registry.Registry
	IDs      ids.Generator
	Clock    clock.Clock
	Log      *logger.Logger
}

type Hub struct {
	clients     sync.Map
	clientCount atomic.Int64

	registry    *registry.Registry
	ids         ids.Generator
	log         *logger.Logger
	config      HubConfig
	presence    *presence.Broadcaster
	relay       *relay.Engine
	processor   *MessageProcessor
	idempotency *IdempotencyTracker

	closing      atomic.Bool
	shutdownOnce sync.Once
}

func NewHub(deps HubDeps, config HubConfig) *Hub {
	if config.MetricsInterval <= 0 {
		config.MetricsInterval = constants.WebSocketMetricsInterval
	}
	if deps.IDs == nil {
		deps.IDs = ids.NewUUIDGenerator()
	}

	hub := &Hub{
		registry: deps.Registry,
		ids:      deps.IDs,
		log:      deps.Log,
		config:   config,
	}

	hub.presence = presence.NewBroadcaster(presence.Deps{
		Registry: deps.Registry,
		Sender:   hub,
		Log:      deps.Log,
	})
	hub.relay = relay.NewEngine(relay.Deps{
		Registry:        deps.Registry,
		Sender:          hub,
		Log:             deps.Log,
		DebugSampleRate: config.DebugSampleRate,
	})
	hub.idempotency = NewIdempotencyTracker(deps.Clock, config.IdempotencyTTL)

	router := NewRouter(RouterDeps{
		Presence:        hub.presence,
		Relay:           hub.relay,
		Signaling:       relay.NewSignaling(hub.relay),
		Idempotency:     hub.idempotency,
		Log:             deps.Log,
		DebugSampleRate: config.DebugSampleRate,
	})
	hub.processor = NewMessageProcessor(config.ProcessorWorkers, config.ProcessorQueueSize, router, deps.Log)

	return hub
}

func (h *Hub) Presence() *presence.Broadcaster { return h.presence }

func (h *Hub) Relay() *relay.Engine { return h.relay }

// Accept adopts an upgraded connection: it mints a handle, greets the socket
// with it and starts the pumps. ctx should outlive the HTTP request.
func (h *Hub) Accept(ctx context.Context, conn *gorillaWS.Conn) (*Client, error) {
	if h.closing.Load() {
		observabilitymetrics.ChatWebSocketConnectionsRejected.Inc()
		return nil, commonerrors.ErrConnectionClosed
	}

	connID, err := h.ids.NewID()
	if err != nil {
		return nil, commonerrors.ErrInternalError.WithCause(err)
	}

	greeting, err := message.Encode(message.TypeConnected, message.ConnectedEvent{SocketID: connID})
	if err != nil {
		return nil, err
	}

	client := NewClient(ctx, h, conn, connID, h.config.Client, h.log)
	h.clients.Store(connID, client)
	total := h.clientCount.Add(1)
	chatmetrics.IncrementActiveWebSocketConnections()

	client.trySend(greeting)
	client.Start()

	h.log.WithFields(ctx, logger.Fields{
		"conn_id": connID,
		"total":   total,
		"action":  "ws_connect",
	}).Info("websocket client connected")

	return client, nil
}

// HandleMessage parses one inbound frame and queues it for the client's worker.
func (h *Hub) HandleMessage(client *Client, data []byte) {
	env, err := message.ParseEnvelope(data)
	if err != nil {
		reason := "invalid_payload"
		if errors.Is(err, commonerrors.ErrUnknownMessageType) {
			reason = "unknown_type"
		}
		chatmetrics.IncrementDroppedEvent(reason)
		if h.log.ShouldLog(logger.DEBUG) && h.log.ShouldSample(h.config.DebugSampleRate) {
			h.log.WithFields(client.ctx, logger.Fields{
				"conn_id": client.id,
				"reason":  reason,
				"action":  "ws_frame_rejected",
			}).Debugf("websocket frame rejected: %v", err)
		}
		return
	}

	_ = h.processor.Submit(client, env)
}

// disconnect detaches the socket before presence cleanup runs, so the
// departing connection never receives its own offline notice.
func (h *Hub) disconnect(client *Client, reason string) {
	if _, loaded := h.clients.LoadAndDelete(client.id); !loaded {
		return
	}
	client.closeSend()
	total := h.clientCount.Add(-1)
	chatmetrics.DecrementActiveWebSocketConnections()
	chatmetrics.IncrementDisconnection(reason)

	if err := h.processor.SubmitDisconnect(client); err != nil {
		h.log.WithFields(client.ctx, logger.Fields{
			"conn_id": client.id,
			"action":  "ws_disconnect_not_queued",
		}).Debugf("presence cleanup skipped: %v", err)
	}

	h.log.WithFields(client.ctx, logger.Fields{
		"conn_id": client.id,
		"reason":  reason,
		"total":   total,
		"action":  "ws_disconnect",
	}).Info("websocket client disconnected")
}

func (h *Hub) client(connID string) (*Client, error) {
	value, ok := h.clients.Load(connID)
	if !ok {
		return nil, commonerrors.ErrConnectionNotFound
	}
	return value.(*Client), nil
}

func (h *Hub) SendTo(_ context.Context, connID string, frame message.Frame) bool {
	client, err := h.client(connID)
	if err != nil {
		return false
	}
	return client.trySend(frame)
}

func (h *Hub) Broadcast(_ context.Context, frame message.Frame) int {
	delivered := 0
	h.clients.Range(func(_, value any) bool {
		if value.(*Client).trySend(frame) {
			delivered++
		}
		return true
	})
	return delivered
}

func (h *Hub) ConnectionCount() int {
	return int(h.clientCount.Load())
}

func (h *Hub) Stats() map[string]any {
	return map[string]any{
		"connections":  h.ConnectionCount(),
		"users_online": h.registry.Len(),
		"queue_depth":  h.processor.QueueDepth(),
	}
}

func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			observabilitymetrics.ChatWebSocketMessageProcessorQueueSize.Set(float64(h.processor.QueueDepth()))
			chatmetrics.SetUsersOnline(h.registry.Len())
		}
	}
}

// Shutdown tells every socket the server is going away, closes them and
// drains the processor. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(h.shutdown)
}

func (h *Hub) shutdown() {
	h.closing.Store(true)

	notice, err := message.Encode(message.TypeShutdown, nil)
	if err != nil {
		h.log.WithFields(context.Background(), logger.Fields{
			"action": "ws_shutdown_marshal",
		}).Errorf("websocket failed to marshal shutdown message: %v", err)
	}

	notified := 0
	h.clients.Range(func(_, value any) bool {
		client := value.(*Client)
		if err == nil && client.trySend(notice) {
			notified++
		}
		client.closeSend()
		return true
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.WebSocketShutdownNotificationTimeout)
	defer cancel()
	if drainErr := h.processor.Shutdown(ctx); drainErr != nil {
		h.log.WithFields(ctx, logger.Fields{
			"action": "ws_processor_drain",
		}).Warnf("websocket processor drain incomplete: %v", drainErr)
	}
	h.idempotency.Stop()

	h.log.WithFields(ctx, logger.Fields{
		"notified": notified,
		"action":   "ws_hub_shutdown",
	}).Info("websocket hub shutdown completed")
}
