package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/message/messagetest"
	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
)

// gatedSender holds the first user_offline broadcast until released.
type gatedSender struct {
	*messagetest.Recorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSender) Broadcast(ctx context.Context, frame message.Frame) int {
	if frame.Type == message.TypeUserOffline {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Recorder.Broadcast(ctx, frame)
}

func TestDisconnectAndReregister_AnnouncedInRegistryOrder(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	sender := &gatedSender{
		Recorder: messagetest.NewRecorder("h0", "h1", "h2"),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	b := NewBroadcaster(Deps{Registry: reg, Sender: sender, Log: newTestBroadcasterLogger()})

	if err := b.Register(ctx, "alice", "h0"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := b.Register(ctx, "bob", "h1"); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	sender.Disconnect("h1")
	sender.Reset()

	disconnected := make(chan error, 1)
	go func() { disconnected <- b.Disconnect(ctx, "h1") }()

	select {
	case <-sender.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("offline broadcast never started")
	}

	registered := make(chan error, 1)
	go func() { registered <- b.Register(ctx, "bob", "h2") }()

	select {
	case <-registered:
		t.Fatal("register completed while the offline announcement was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(sender.release)
	if err := <-disconnected; err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if err := <-registered; err != nil {
		t.Fatalf("re-register: %v", err)
	}

	if !reg.IsOnline("bob") {
		t.Fatal("expected bob online in the registry")
	}

	var last message.Type
	for _, f := range sender.Frames("h0") {
		if (f.Type == message.TypeUserOnline || f.Type == message.TypeUserOffline) && presenceUser(t, f) == "bob" {
			last = f.Type
		}
	}
	if last != message.TypeUserOnline {
		t.Errorf("observer's last presence frame for bob = %q, want %q", last, message.TypeUserOnline)
	}
}
