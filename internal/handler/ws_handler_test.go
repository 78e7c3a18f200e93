package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/examlane/examlane-backend/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// newWSPair dials an in-process WebSocket server and returns both ends.
func newWSPair(t *testing.T) (client, server *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server = <-serverConns
	t.Cleanup(func() { server.Close() })
	return client, server
}

func TestForwardActionsDeliversClientRequests(t *testing.T) {
	client, server := newWSPair(t)

	h := &WSHandler{log: zerolog.Nop()}
	requests := make(chan ws.Action)
	quit := make(chan struct{})
	defer close(quit)
	go h.forwardActions(server, requests, quit, h.log)

	if err := client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionSync}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case action := <-requests:
		if action != ws.ActionSync {
			t.Errorf("action = %q, want %q", action, ws.ActionSync)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request never forwarded")
	}
}

func TestForwardActionsStopsWhenStreamEnds(t *testing.T) {
	client, server := newWSPair(t)

	h := &WSHandler{log: zerolog.Nop()}
	// No receiver on requests: the stream loop has already returned.
	requests := make(chan ws.Action)
	quit := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		defer close(returned)
		h.forwardActions(server, requests, quit, h.log)
	}()

	// The forwarder reads this request and parks on the requests send.
	if err := client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	close(quit)

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder still blocked after the stream ended")
	}
}
