package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wtr-service/pkg/models"
)

func TestClientFilters(t *testing.T) {
	client := &Client{filters: map[string]bool{}, matchIDs: map[string]bool{}}
	match := &WSMessage{Type: MessageTypeMatch, MatchID: "m1"}
	history := &WSMessage{Type: MessageTypeHistory, OwnerID: "owner-1"}

	if !client.shouldReceive(match) || !client.shouldReceive(history) {
		t.Error("Expected unfiltered client to receive everything")
	}

	client.handleMessage([]byte(`{"type":"subscribe","message_types":["history"]}`))
	if client.shouldReceive(match) || !client.shouldReceive(history) {
		t.Error("Expected type filter to pass history only")
	}

	client.handleMessage([]byte(`{"type":"subscribe","message_types":["match","history"],"match_ids":["m2"]}`))
	if client.shouldReceive(match) {
		t.Error("Expected match id filter to drop m1")
	}
	if !client.shouldReceive(history) {
		t.Error("Expected history to ignore the match id filter")
	}

	client.handleMessage([]byte(`{"type":"unsubscribe"}`))
	if !client.shouldReceive(match) {
		t.Error("Expected unsubscribe to clear filters")
	}
}

func TestWebSocketPushesMatchUpdates(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.hub.Run(ctx)

	server := httptest.NewServer(app.handler)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Registration is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for app.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	req := httptest.NewRequest("POST", "/api/match", strings.NewReader(`{"homeTeam":"Leinster","awayTeam":"Munster"}`))
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Start failed: %d", rec.Code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var msg struct {
		Type string       `json:"type"`
		Data models.Match `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode %s: %v", data, err)
	}
	if msg.Type != MessageTypeMatch || msg.Data.HomeTeam != "Leinster" {
		t.Errorf("Unexpected message %s", data)
	}
}
