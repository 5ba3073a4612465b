package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/message/messagetest"
	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

type fixture struct {
	engine    *Engine
	signaling *Signaling
	registry  *registry.Registry
	recorder  *messagetest.Recorder
}

// newFixture registers alice on h1 and bob on h2 and h3.
func newFixture() *fixture {
	reg := registry.New()
	rec := messagetest.NewRecorder("h1", "h2", "h3")
	reg.Register("alice", "h1")
	reg.Register("bob", "h2")
	reg.Register("bob", "h3")

	engine := NewEngine(Deps{
		Registry:        reg,
		Sender:          rec,
		Log:             logger.NewWithWriter(&bytes.Buffer{}, "test", "debug"),
		DebugSampleRate: 1,
	})
	return &fixture{
		engine:    engine,
		signaling: NewSignaling(engine),
		registry:  reg,
		recorder:  rec,
	}
}

func TestSendMessage_FansOutToEveryReceiverConnection(t *testing.T) {
	f := newFixture()

	n, err := f.engine.SendMessage(context.Background(), message.SendMessagePayload{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    json.RawMessage(`"hi"`),
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	want := `{"type":"receive_message","payload":{"senderId":"alice","content":"hi"}}`
	for _, h := range []string{"h2", "h3"} {
		frames := f.recorder.Frames(h)
		if len(frames) != 1 || string(frames[0].Data) != want {
			t.Errorf("%s: expected %s, got %v", h, want, frames)
		}
	}
	if len(f.recorder.Frames("h1")) != 0 {
		t.Error("expected nothing on the sender's own connection")
	}
}

func TestSendMessage_OfflineReceiverDropped(t *testing.T) {
	f := newFixture()

	n, err := f.engine.SendMessage(context.Background(), message.SendMessagePayload{
		SenderID:   "alice",
		ReceiverID: "carol",
		Content:    json.RawMessage(`"hi"`),
	})
	if err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero deliveries, got %d", n)
	}
	if f.recorder.Total(message.TypeReceiveMessage) != 0 {
		t.Error("expected no frames")
	}
}

func TestSendMessage_MissingFieldDropped(t *testing.T) {
	f := newFixture()

	n, err := f.engine.SendMessage(context.Background(), message.SendMessagePayload{
		SenderID:   "alice",
		ReceiverID: "bob",
	})
	if !errors.Is(err, commonerrors.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if n != 0 || f.recorder.Total(message.TypeReceiveMessage) != 0 {
		t.Error("expected nothing relayed")
	}
}

func TestRelayToUser_FailedConnectionDoesNotBlockOthers(t *testing.T) {
	f := newFixture()
	f.recorder.Disconnect("h2")

	frame, _ := message.Encode(message.TypeTyping, message.TypingEvent{SenderID: "alice"})
	n := f.engine.RelayToUser(context.Background(), "bob", frame)

	if n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if len(f.recorder.Frames("h3")) != 1 {
		t.Error("expected h3 to receive the frame")
	}
}

func TestSendMedia_PassesOptionalFields(t *testing.T) {
	f := newFixture()

	_, err := f.engine.SendMedia(context.Background(), message.SendMediaPayload{
		SenderID:   "bob",
		ReceiverID: "alice",
		MediaType:  "image/png",
		Data:       json.RawMessage(`"iVBORw0KGgo="`),
		Filename:   json.RawMessage(`"cat.png"`),
		MessageID:  json.RawMessage(`"m-1"`),
	})
	if err != nil {
		t.Fatalf("send media: %v", err)
	}

	frames := f.recorder.Frames("h1")
	if len(frames) != 1 {
		t.Fatalf("expected one frame on h1, got %d", len(frames))
	}
	var got message.ReceiveMediaEvent
	if err := messagetest.DecodePayload(frames[0], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SenderID != "bob" || got.MediaType != "image/png" || string(got.Filename) != `"cat.png"` || string(got.MessageID) != `"m-1"` {
		t.Errorf("unexpected media event %+v", got)
	}
	if got.CreatedAt != nil {
		t.Errorf("expected createdAt omitted, got %s", got.CreatedAt)
	}
}

func TestTypingAndStopTyping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := message.TypingPayload{SenderID: "alice", ReceiverID: "bob"}

	if _, err := f.engine.Typing(ctx, p); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if _, err := f.engine.StopTyping(ctx, p); err != nil {
		t.Fatalf("stop typing: %v", err)
	}

	got := f.recorder.Types("h2")
	if len(got) != 2 || got[0] != message.TypeTyping || got[1] != message.TypeStopTyping {
		t.Fatalf("expected typing then stop_typing, got %v", got)
	}

	var ev message.TypingEvent
	if err := messagetest.DecodePayload(f.recorder.Frames("h3")[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.SenderID != "alice" {
		t.Errorf("expected senderId alice, got %s", ev.SenderID)
	}
}

func TestNotify(t *testing.T) {
	f := newFixture()

	n, err := f.engine.Notify(context.Background(), message.NotifyPayload{
		RecipientID: "bob",
		Message:     json.RawMessage(`{"title":"deploy finished"}`),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	want := `{"type":"notification","payload":{"message":{"title":"deploy finished"}}}`
	if got := string(f.recorder.Frames("h2")[0].Data); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	n, err = f.engine.Notify(context.Background(), message.NotifyPayload{RecipientID: "nobody", Message: json.RawMessage(`"x"`)})
	if err != nil || n != 0 {
		t.Errorf("expected silent zero-delivery for offline recipient, got n=%d err=%v", n, err)
	}
}
