package http

import (
	"context"
	"net/http"
	"slices"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/websocket"
	"github.com/AlibekovAA/relay-hub/internal/common/config"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	commonhttp "github.com/AlibekovAA/relay-hub/internal/common/http"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

type Handler struct {
	hub      *websocket.Hub
	upgrader gorillaWS.Upgrader
	limiter  *commonhttp.RateLimiter
	errors   *commonhttp.ErrorHandler
	log      *logger.Logger
	cfg      config.RelayConfig
}

type notifyResponse struct {
	Success   bool `json:"success"`
	Delivered int  `json:"delivered"`
}

type onlineUsersResponse struct {
	OnlineUsers []string `json:"onlineUsers"`
	Count       int      `json:"count"`
}

func NewHandler(hub *websocket.Hub, limiter *commonhttp.RateLimiter, cfg config.RelayConfig, log *logger.Logger) *Handler {
	return &Handler{
		hub:     hub,
		limiter: limiter,
		errors:  commonhttp.NewErrorHandler(log),
		log:     log,
		cfg:     cfg,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:    constants.WebSocketReadBufferSize,
			WriteBufferSize:   constants.WebSocketWriteBufferSize,
			EnableCompression: true,
			CheckOrigin:       originChecker(cfg.WebSocketAllowedOrigins),
		},
	}
}

// originChecker accepts listed origins when a list is configured; otherwise
// only same-host or origin-less requests.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) > 0 {
			return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
		}
		if origin == "" {
			return true
		}
		host := r.Host
		if host == "" {
			host = r.URL.Host
		}
		return origin == "http://"+host || origin == "https://"+host
	}
}

// APIRoutes serves the REST side. It is meant to sit behind the base middleware chain.
func (h *Handler) APIRoutes() http.Handler {
	mux := http.NewServeMux()

	notify := commonhttp.RequireMethod(http.MethodPost)(commonhttp.WithTimeout(h.cfg.RequestTimeout)(h.notify))
	mux.Handle("/api/notify", h.limiter.Middleware("notify")(notify))
	mux.HandleFunc("/api/online-users", commonhttp.RequireMethod(http.MethodGet)(h.onlineUsers))

	return mux
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req message.NotifyPayload
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	delivered, err := h.hub.Relay().Notify(ctx, req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.log.WithFields(ctx, logger.Fields{
		"recipient_id": req.RecipientID,
		"delivered":    delivered,
		"action":       "relay_notify_success",
	}).Info("notification relayed")
	commonhttp.WriteJSON(w, http.StatusOK, notifyResponse{Success: true, Delivered: delivered})
}

func (h *Handler) onlineUsers(w http.ResponseWriter, r *http.Request) {
	users := h.hub.Presence().OnlineUsers()
	if users == nil {
		users = []string{}
	}
	commonhttp.WriteJSON(w, http.StatusOK, onlineUsersResponse{OnlineUsers: users, Count: len(users)})
}

// WebSocket upgrades the request and hands the socket to the hub. It must not
// be wrapped in middleware that replaces the ResponseWriter.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"remote_ip": commonhttp.GetClientIP(r),
			"action":    "ws_upgrade_failed",
		}).Warnf("websocket upgrade failed: %v", err)
		return
	}

	if _, err := h.hub.Accept(context.WithoutCancel(ctx), conn); err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"action": "ws_accept_failed",
		}).Warnf("websocket accept failed: %v", err)
		_ = conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseTryAgainLater, "server shutting down"))
		conn.Close()
	}
}
