package websocket

import (
	"context"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	"github.com/AlibekovAA/relay-hub/internal/common/resilience"
	observabilitymetrics "github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

type ClientConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int

	// Consecutive dropped frames before the socket is closed as a slow consumer. Zero disables.
	SlowConsumerThreshold  int32
	SlowConsumerResetAfter time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteWait:      constants.DefaultWebSocketWriteWait,
		PongWait:       constants.DefaultWebSocketPongWait,
		PingPeriod:     constants.DefaultWebSocketPingPeriod,
		MaxMessageSize: constants.DefaultWebSocketMaxMsgSize,
		SendBufferSize: constants.DefaultWebSocketSendBufSize,

		SlowConsumerThreshold:  constants.DefaultSlowConsumerThreshold,
		SlowConsumerResetAfter: constants.DefaultSlowConsumerResetAfter,
	}
}

// Client is one live socket. Its id is the connection handle used for
// registry membership and direct addressing.
type Client struct {
	hub  *Hub
	conn *gorillaWS.Conn
	id   string
	ctx  context.Context
	cfg  ClientConfig
	log  *logger.Logger

	breaker   *resilience.CircuitBreaker
	evictOnce sync.Once

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(ctx context.Context, hub *Hub, conn *gorillaWS.Conn, id string, cfg ClientConfig, log *logger.Logger) *Client {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.SlowConsumerThreshold,
		ResetAfter: cfg.SlowConsumerResetAfter,
		Name:       "ws_send",
	})

	return &Client{
		hub:     hub,
		conn:    conn,
		id:      id,
		ctx:     ctx,
		cfg:     cfg,
		log:     log,
		breaker: breaker,
		send:    make(chan []byte, cfg.SendBufferSize),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// trySend queues frame without blocking. A full buffer or a closed client drops it.
func (c *Client) trySend(frame message.Frame) bool {
	err := c.enqueue(frame)
	if err == nil {
		return true
	}
	if c.log.ShouldLog(logger.DEBUG) {
		c.log.WithFields(c.ctx, logger.Fields{
			"conn_id": c.id,
			"type":    frame.Type.String(),
			"action":  "ws_frame_dropped",
		}).Debugf("websocket frame dropped: %v", err)
	}
	return false
}

func (c *Client) enqueue(frame message.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return commonerrors.ErrConnectionClosed
	}

	select {
	case c.send <- frame.Data:
		c.breaker.RecordSuccess()
		return nil
	default:
		chatmetrics.IncrementDroppedFrame(frame.Type.String())
		if c.breaker.RecordFailure() {
			go c.evict()
		}
		return commonerrors.ErrSendBufferFull
	}
}

// evict closes the socket of a client that stopped draining its buffer; the
// read pump then runs the usual disconnect.
func (c *Client) evict() {
	c.evictOnce.Do(func() {
		observabilitymetrics.ChatWebSocketSlowConsumerEvictions.Inc()
		c.log.WithFields(c.ctx, logger.Fields{
			"conn_id": c.id,
			"action":  "ws_slow_consumer_evicted",
		}).Warn("websocket client evicted as slow consumer")
		_ = c.conn.Close()
	})
}

// closeSend stops further sends; writePump drains what is queued and then closes the socket.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	reason := "client_closed"
	defer func() {
		c.hub.disconnect(c, reason)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure, gorillaWS.CloseNoStatusReceived) {
				reason = "read_error"
				chatmetrics.IncrementWebSocketError("read_error")
				c.log.WithFields(c.ctx, logger.Fields{
					"conn_id": c.id,
					"action":  "ws_read_error",
				}).Warnf("websocket read error: %v", err)
			}
			return
		}

		c.hub.HandleMessage(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(gorillaWS.TextMessage, data); err != nil {
				c.writeFailed(err)
				return
			}

			// Flush whatever queued up meanwhile, one envelope per frame.
			for n := len(c.send); n > 0; n-- {
				data, ok := <-c.send
				if !ok {
					break
				}
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
				if err := c.conn.WriteMessage(gorillaWS.TextMessage, data); err != nil {
					c.writeFailed(err)
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFailed(err error) {
	chatmetrics.IncrementWebSocketError("write_error")
	if c.log.ShouldLog(logger.DEBUG) {
		c.log.WithFields(c.ctx, logger.Fields{
			"conn_id": c.id,
			"action":  "ws_write_error",
		}).Debugf("websocket write failed: %v", err)
	}
}
