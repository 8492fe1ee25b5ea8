package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/config"
)

func dialURL(t *testing.T, ts *httptest.Server, query string) string {
	t.Helper()
	return strings.Replace(ts.URL, "http://", "ws://", 1) + query
}

func TestSocketRejectsMissingOrBadToken(t *testing.T) {
	tokens := auth.NewTokenManager("relay-secret", 60)
	s := NewServer(config.RelayConfig{Channel: "events"}, tokens, nil, zap.NewNop())

	ts := httptest.NewServer(http.HandlerFunc(s.handleSocket))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: got status %d, want 401", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "?token=garbage")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("invalid token: got status %d, want 401", resp.StatusCode)
	}
}

func TestBroadcastReachesConnectedClient(t *testing.T) {
	tokens := auth.NewTokenManager("relay-secret", 60)
	s := NewServer(config.RelayConfig{Channel: "events"}, tokens, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	ts := httptest.NewServer(http.HandlerFunc(s.handleSocket))
	defer ts.Close()

	token, _, err := tokens.GenerateToken("acct-1", "Student")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(dialURL(t, ts, "?token="+token), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.hub.Broadcast([]byte(`{"type":"ticket.created"}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if string(msg) != `{"type":"ticket.created"}` {
		t.Fatalf("unexpected payload: %s", msg)
	}
}
