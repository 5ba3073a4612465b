package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
)

// serverConn returns the server side of a fresh WebSocket pair plus the dialed client side.
func serverConn(t *testing.T) (*gorillaWS.Conn, *gorillaWS.Conn) {
	t.Helper()
	conns := make(chan *gorillaWS.Conn, 1)
	upgrader := gorillaWS.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := gorillaWS.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { peer.Close() })

	select {
	case conn := <-conns:
		t.Cleanup(func() { conn.Close() })
		return conn, peer
	case <-time.After(3 * time.Second):
		t.Fatal("server connection not established")
		return nil, nil
	}
}

func TestClient_TrySendAfterCloseFails(t *testing.T) {
	conn, _ := serverConn(t)
	c := NewClient(context.Background(), nil, conn, "h1", DefaultClientConfig(), testLogger())
	frame, _ := message.Encode(message.TypeUserOnline, message.UserPresenceEvent{UserID: "alice"})

	if !c.trySend(frame) {
		t.Fatal("expected send to succeed")
	}
	c.closeSend()
	c.closeSend()
	if c.trySend(frame) {
		t.Error("expected send after close to fail")
	}
	if err := c.enqueue(frame); !errors.Is(err, commonerrors.ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestClient_FullBufferReportsSendBufferFull(t *testing.T) {
	conn, _ := serverConn(t)
	cfg := DefaultClientConfig()
	cfg.SendBufferSize = 1
	c := NewClient(context.Background(), nil, conn, "h1", cfg, testLogger())
	frame, _ := message.Encode(message.TypeUserOnline, message.UserPresenceEvent{UserID: "alice"})

	if err := c.enqueue(frame); err != nil {
		t.Fatalf("expected first frame to fit, got %v", err)
	}
	if err := c.enqueue(frame); !errors.Is(err, commonerrors.ErrSendBufferFull) {
		t.Errorf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestClient_SlowConsumerEvicted(t *testing.T) {
	conn, peer := serverConn(t)
	cfg := DefaultClientConfig()
	cfg.SendBufferSize = 1
	cfg.SlowConsumerThreshold = 3
	c := NewClient(context.Background(), nil, conn, "h1", cfg, testLogger())
	frame, _ := message.Encode(message.TypeUserOnline, message.UserPresenceEvent{UserID: "alice"})

	// The write pump is not running, so the single slot fills and stays full.
	if !c.trySend(frame) {
		t.Fatal("expected first send to fit")
	}
	for i := 0; i < 3; i++ {
		if c.trySend(frame) {
			t.Fatalf("send %d should not fit", i)
		}
	}

	_ = peer.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := peer.ReadMessage(); err == nil {
		t.Error("expected evicted connection to be closed")
	}
}

func TestClient_BelowThresholdStaysOpen(t *testing.T) {
	conn, peer := serverConn(t)
	cfg := DefaultClientConfig()
	cfg.SendBufferSize = 1
	cfg.SlowConsumerThreshold = 3
	c := NewClient(context.Background(), nil, conn, "h1", cfg, testLogger())
	frame, _ := message.Encode(message.TypeUserOnline, message.UserPresenceEvent{UserID: "alice"})

	c.trySend(frame)
	c.trySend(frame)
	c.trySend(frame)

	if err := conn.WriteMessage(gorillaWS.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("expected connection still writable, got %v", err)
	}
	_ = peer.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := peer.ReadMessage(); err != nil {
		t.Errorf("expected connection open, got %v", err)
	}
}
