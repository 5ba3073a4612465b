package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/message/messagetest"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
)

func TestOffer_TaggedWithCallerConnection(t *testing.T) {
	f := newFixture()

	n, err := f.signaling.Offer(context.Background(), "h1", message.OfferPayload{
		ReceiverID: "bob",
		SenderID:   "alice",
		Offer:      &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
	})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected offer on both of bob's connections, got %d", n)
	}

	var ev message.OfferEvent
	if err := messagetest.DecodePayload(f.recorder.Frames("h3")[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.SenderSocketID != "h1" || ev.SenderID != "alice" {
		t.Errorf("unexpected offer event %+v", ev)
	}
	if ev.Offer == nil || ev.Offer.Type != webrtc.SDPTypeOffer || ev.Offer.SDP != "v=0" {
		t.Errorf("offer body not passed through: %+v", ev.Offer)
	}
}

func TestOffer_EmptySDPDropped(t *testing.T) {
	f := newFixture()

	_, err := f.signaling.Offer(context.Background(), "h1", message.OfferPayload{
		ReceiverID: "bob",
		SenderID:   "alice",
		Offer:      &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer},
	})
	if !errors.Is(err, commonerrors.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if f.recorder.Total(message.TypeWebRTCOffer) != 0 {
		t.Error("expected nothing relayed")
	}
}

func TestAnswer_DirectToCallerConnection(t *testing.T) {
	f := newFixture()

	ok, err := f.signaling.Answer(context.Background(), "h3", message.AnswerPayload{
		SenderSocketID: "h1",
		Answer:         &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"},
	})
	if err != nil || !ok {
		t.Fatalf("expected delivery, got ok=%v err=%v", ok, err)
	}

	var ev message.AnswerEvent
	if err := messagetest.DecodePayload(f.recorder.Frames("h1")[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ReceiverSocketID != "h3" || ev.Answer.Type != webrtc.SDPTypeAnswer {
		t.Errorf("unexpected answer event %+v", ev)
	}
	if len(f.recorder.Frames("h2")) != 0 {
		t.Error("answer must not fan out")
	}
}

func TestAnswer_GoneConnectionIsSilent(t *testing.T) {
	f := newFixture()
	f.recorder.Disconnect("h1")

	ok, err := f.signaling.Answer(context.Background(), "h2", message.AnswerPayload{
		SenderSocketID: "h1",
		Answer:         &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("expected zero deliveries")
	}
}

func TestICE_DirectToTarget(t *testing.T) {
	f := newFixture()
	mid := "0"
	idx := uint16(0)

	ok, err := f.signaling.ICE(context.Background(), message.ICEPayload{
		TargetSocketID: "h2",
		Candidate: &webrtc.ICECandidateInit{
			Candidate:     "candidate:1 1 udp 2122260223 10.0.0.1 5000 typ host",
			SDPMid:        &mid,
			SDPMLineIndex: &idx,
		},
	})
	if err != nil || !ok {
		t.Fatalf("expected delivery, got ok=%v err=%v", ok, err)
	}

	frames := f.recorder.Frames("h2")
	if len(frames) != 1 || frames[0].Type != message.TypeWebRTCICE {
		t.Fatalf("expected one webrtc_ice frame, got %v", f.recorder.Types("h2"))
	}
	var ev message.ICEEvent
	if err := messagetest.DecodePayload(frames[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Candidate == nil || *ev.Candidate.SDPMid != "0" {
		t.Errorf("candidate not passed through: %+v", ev.Candidate)
	}
	if len(f.recorder.Frames("h3")) != 0 {
		t.Error("ICE must not fan out")
	}
}

func TestICE_MissingCandidateDropped(t *testing.T) {
	f := newFixture()

	_, err := f.signaling.ICE(context.Background(), message.ICEPayload{TargetSocketID: "h2"})
	if !errors.Is(err, commonerrors.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
