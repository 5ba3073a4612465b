// Package relay forwards payloads between users without storing them.
//
// Delivery is at-most-once: a receiver with no live connections, or a
// connection that cannot take the frame, simply does not get it.
package relay

import (
	"context"

	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	"github.com/AlibekovAA/relay-hub/internal/common/validation"
)

type Engine struct {
	registry        *registry.Registry
	sender          message.Sender
	log             *logger.Logger
	debugSampleRate float64
}

type Deps struct {
	Registry        *registry.Registry
	Sender          message.Sender
	Log             *logger.Logger
	DebugSampleRate float64
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		registry:        deps.Registry,
		sender:          deps.Sender,
		log:             deps.Log,
		debugSampleRate: deps.DebugSampleRate,
	}
}

// RelayToUser delivers frame to every connection userID has right now and
// returns how many accepted it. Each connection is attempted independently.
func (e *Engine) RelayToUser(ctx context.Context, userID string, frame message.Frame) int {
	conns := e.registry.ConnectionsOf(userID)
	if len(conns) == 0 {
		chatmetrics.IncrementDroppedEvent("receiver_offline")
		e.debug(ctx, logger.Fields{
			"receiver_id": userID,
			"type":        frame.Type.String(),
			"action":      "relay_receiver_offline",
		}, "receiver offline, dropping")
		return 0
	}

	delivered := 0
	for _, connID := range conns {
		if e.sender.SendTo(ctx, connID, frame) {
			delivered++
		}
	}

	chatmetrics.RecordRelay(frame.Type.String(), delivered)
	e.debug(ctx, logger.Fields{
		"receiver_id": userID,
		"type":        frame.Type.String(),
		"connections": len(conns),
		"delivered":   delivered,
		"action":      "relay_to_user",
	}, "relayed")
	return delivered
}

// RelayToConnection delivers frame to exactly one connection.
func (e *Engine) RelayToConnection(ctx context.Context, connID string, frame message.Frame) bool {
	if connID == "" || !e.sender.SendTo(ctx, connID, frame) {
		chatmetrics.IncrementDroppedEvent("target_gone")
		e.debug(ctx, logger.Fields{
			"target_conn_id": connID,
			"type":           frame.Type.String(),
			"action":         "relay_target_gone",
		}, "target connection gone, dropping")
		return false
	}

	chatmetrics.RecordRelay(frame.Type.String(), 1)
	return true
}

func (e *Engine) SendMessage(ctx context.Context, p message.SendMessagePayload) (int, error) {
	if err := validation.Struct(p); err != nil {
		return 0, err
	}
	frame, err := message.Encode(message.TypeReceiveMessage, message.ReceiveMessageEvent{
		SenderID:  p.SenderID,
		Content:   p.Content,
		MessageID: p.MessageID,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		return 0, err
	}
	return e.RelayToUser(ctx, p.ReceiverID, frame), nil
}

func (e *Engine) SendMedia(ctx context.Context, p message.SendMediaPayload) (int, error) {
	if err := validation.Struct(p); err != nil {
		return 0, err
	}
	frame, err := message.Encode(message.TypeReceiveMedia, message.ReceiveMediaEvent{
		SenderID:  p.SenderID,
		MediaType: p.MediaType,
		Data:      p.Data,
		Filename:  p.Filename,
		MessageID: p.MessageID,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		return 0, err
	}
	return e.RelayToUser(ctx, p.ReceiverID, frame), nil
}

func (e *Engine) Typing(ctx context.Context, p message.TypingPayload) (int, error) {
	return e.typing(ctx, message.TypeTyping, p)
}

func (e *Engine) StopTyping(ctx context.Context, p message.TypingPayload) (int, error) {
	return e.typing(ctx, message.TypeStopTyping, p)
}

func (e *Engine) typing(ctx context.Context, t message.Type, p message.TypingPayload) (int, error) {
	if err := validation.Struct(p); err != nil {
		return 0, err
	}
	frame, err := message.Encode(t, message.TypingEvent{SenderID: p.SenderID})
	if err != nil {
		return 0, err
	}
	return e.RelayToUser(ctx, p.ReceiverID, frame), nil
}

// Notify pushes an out-of-band notification to every connection of the recipient.
func (e *Engine) Notify(ctx context.Context, p message.NotifyPayload) (int, error) {
	if err := validation.Struct(p); err != nil {
		return 0, err
	}
	frame, err := message.Encode(message.TypeNotification, message.NotificationEvent{Message: p.Message})
	if err != nil {
		return 0, err
	}
	return e.RelayToUser(ctx, p.RecipientID, frame), nil
}

func (e *Engine) debug(ctx context.Context, fields logger.Fields, msg string) {
	if e.log.ShouldLog(logger.DEBUG) && e.log.ShouldSample(e.debugSampleRate) {
		e.log.WithFields(ctx, fields).Debug(msg)
	}
}
