package relay

import (
	"context"
	"errors"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/validation"
)

// Signaling relays WebRTC call setup. Offers are addressed to a user and
// reach all of their connections; answers and ICE candidates go to the single
// connection taking part in the call. No call state is kept.
type Signaling struct {
	engine *Engine
}

func NewSignaling(engine *Engine) *Signaling {
	return &Signaling{engine: engine}
}

// Offer tags the offer with the caller's connection so the callee can answer it.
func (s *Signaling) Offer(ctx context.Context, callerConnID string, p message.OfferPayload) (int, error) {
	if err := validation.Struct(p); err != nil {
		return 0, err
	}
	if p.Offer.SDP == "" {
		return 0, commonerrors.ErrInvalidPayload.WithCause(errors.New("offer sdp is empty"))
	}

	frame, err := message.Encode(message.TypeWebRTCOffer, message.OfferEvent{
		SenderSocketID: callerConnID,
		SenderID:       p.SenderID,
		Offer:          p.Offer,
	})
	if err != nil {
		return 0, err
	}
	return s.engine.RelayToUser(ctx, p.ReceiverID, frame), nil
}

// Answer goes back to the connection that made the offer.
func (s *Signaling) Answer(ctx context.Context, answererConnID string, p message.AnswerPayload) (bool, error) {
	if err := validation.Struct(p); err != nil {
		return false, err
	}
	if p.Answer.SDP == "" {
		return false, commonerrors.ErrInvalidPayload.WithCause(errors.New("answer sdp is empty"))
	}

	frame, err := message.Encode(message.TypeWebRTCAnswer, message.AnswerEvent{
		Answer:           p.Answer,
		ReceiverSocketID: answererConnID,
	})
	if err != nil {
		return false, err
	}
	return s.engine.RelayToConnection(ctx, p.SenderSocketID, frame), nil
}

func (s *Signaling) ICE(ctx context.Context, p message.ICEPayload) (bool, error) {
	if err := validation.Struct(p); err != nil {
		return false, err
	}

	frame, err := message.Encode(message.TypeWebRTCICE, message.ICEEvent{Candidate: p.Candidate})
	if err != nil {
		return false, err
	}
	return s.engine.RelayToConnection(ctx, p.TargetSocketID, frame), nil
}
