package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestWebSocketFeedStreamsMessages(t *testing.T) {
	payload := `{"type":"agent_activity","data":{"agentId":"scout-1","status":"working"}}`
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	feed := NewWebSocketFeed("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	status := waitForMessage(t, feed)
	var env struct {
		Type string `json:"type"`
		Data struct {
			Connected bool `json:"connected"`
			Attempt   int  `json:"attempt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(status, &env); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if env.Type != "connection_status" || !env.Data.Connected || env.Data.Attempt != 0 {
		t.Fatalf("expected connected status, got %s", status)
	}

	if got := waitForMessage(t, feed); string(got) != payload {
		t.Fatalf("expected %s, got %s", payload, got)
	}

	feed.Close()
}

func TestWebSocketFeedReportsDialFailure(t *testing.T) {
	feed := NewWebSocketFeed("ws://127.0.0.1:1/ws", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	status := waitForMessage(t, feed)
	var env struct {
		Type string `json:"type"`
		Data struct {
			Connected bool `json:"connected"`
			Attempt   int  `json:"attempt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(status, &env); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if env.Data.Connected || env.Data.Attempt != 1 {
		t.Fatalf("expected first failed attempt, got %s", status)
	}
}
