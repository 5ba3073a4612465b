package websocket

import (
	"context"
	"errors"

	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/presence"
	"github.com/AlibekovAA/relay-hub/internal/chat/relay"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

// Router dispatches one inbound event, or a connection's cleanup, to the
// presence and relay layers.
type Router interface {
	Route(ctx context.Context, client *Client, env message.Envelope) error
	Disconnect(ctx context.Context, client *Client) error
}

type eventRouter struct {
	presence        *presence.Broadcaster
	relay           *relay.Engine
	signaling       *relay.Signaling
	idempotency     *IdempotencyTracker
	log             *logger.Logger
	debugSampleRate float64
}

type RouterDeps struct {
	Presence        *presence.Broadcaster
	Relay           *relay.Engine
	Signaling       *relay.Signaling
	Idempotency     *IdempotencyTracker
	Log             *logger.Logger
	DebugSampleRate float64
}

func NewRouter(deps RouterDeps) Router {
	return &eventRouter{
		presence:        deps.Presence,
		relay:           deps.Relay,
		signaling:       deps.Signaling,
		idempotency:     deps.Idempotency,
		log:             deps.Log,
		debugSampleRate: deps.DebugSampleRate,
	}
}

func (r *eventRouter) Route(ctx context.Context, client *Client, env message.Envelope) error {
	chatmetrics.IncrementWebSocketMessage(env.Type.String())

	var err error
	switch env.Type {
	case message.TypeRegister:
		var p message.RegisterPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			err = r.presence.Register(ctx, p.UserID, client.id)
		}

	case message.TypeRequestOnlineUsers:
		err = r.presence.SendOnlineUsers(ctx, client.id)

	case message.TypeDebugStatus:
		err = r.presence.SendStatus(ctx, client.id)

	case message.TypeTyping, message.TypeStopTyping:
		var p message.TypingPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			if env.Type == message.TypeTyping {
				_, err = r.relay.Typing(ctx, p)
			} else {
				_, err = r.relay.StopTyping(ctx, p)
			}
		}

	case message.TypeSendMessage:
		var p message.SendMessagePayload
		if err = message.Decode(env.Payload, &p); err == nil {
			err = r.once(ctx, client, env, len(p.MessageID) > 0, func() (int, error) {
				return r.relay.SendMessage(ctx, p)
			})
		}

	case message.TypeSendMedia:
		var p message.SendMediaPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			err = r.once(ctx, client, env, len(p.MessageID) > 0, func() (int, error) {
				return r.relay.SendMedia(ctx, p)
			})
		}

	case message.TypeWebRTCOffer:
		var p message.OfferPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			_, err = r.signaling.Offer(ctx, client.id, p)
		}

	case message.TypeWebRTCAnswer:
		var p message.AnswerPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			_, err = r.signaling.Answer(ctx, client.id, p)
		}

	case message.TypeWebRTCICE:
		var p message.ICEPayload
		if err = message.Decode(env.Payload, &p); err == nil {
			_, err = r.signaling.ICE(ctx, p)
		}

	default:
		err = commonerrors.ErrUnknownMessageType
	}

	return r.handleError(ctx, client, env.Type.String(), err)
}

// once runs fn through the idempotency tracker when the client supplied a
// message id; fn reports how many connections the relay reached.
func (r *eventRouter) once(ctx context.Context, client *Client, env message.Envelope, keyed bool, fn func() (int, error)) error {
	if !keyed || r.idempotency == nil {
		_, err := fn()
		return err
	}

	opID := r.idempotency.OperationID(client.id, env.Type.String(), env.Payload)
	duplicate, err := r.idempotency.Execute(opID, env.Type.String(), fn)
	if duplicate && r.log.ShouldLog(logger.DEBUG) {
		r.log.WithFields(ctx, logger.Fields{
			"conn_id": client.id,
			"type":    env.Type.String(),
			"action":  "ws_duplicate_suppressed",
		}).Debug("duplicate message suppressed")
	}
	return err
}

func (r *eventRouter) Disconnect(ctx context.Context, client *Client) error {
	return r.presence.Disconnect(ctx, client.id)
}

// handleError drops malformed events quietly; anything else is returned to the processor.
func (r *eventRouter) handleError(ctx context.Context, client *Client, msgType string, err error) error {
	if err == nil {
		return nil
	}

	fields := logger.Fields{
		"conn_id": client.id,
		"type":    msgType,
	}

	switch {
	case errors.Is(err, commonerrors.ErrInvalidPayload), errors.Is(err, commonerrors.ErrInvalidJSON):
		chatmetrics.IncrementDroppedEvent("invalid_payload")
		if r.log.ShouldLog(logger.DEBUG) && r.log.ShouldSample(r.debugSampleRate) {
			fields["action"] = "ws_invalid_payload"
			r.log.WithFields(ctx, fields).Debugf("websocket invalid payload dropped: %v", err)
		}
		return nil

	case errors.Is(err, commonerrors.ErrUnknownMessageType):
		chatmetrics.IncrementDroppedEvent("unknown_type")
		fields["action"] = "ws_unknown_type"
		r.log.WithFields(ctx, fields).Warn("websocket unknown message type dropped")
		return nil
	}

	chatmetrics.IncrementWebSocketError("route_failed")
	return err
}
