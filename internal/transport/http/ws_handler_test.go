package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pair-quiz-service/internal/domain"
)

func TestWebSocketStreamsGameUpdates(t *testing.T) {
	server, identity := newTestServer(t)
	connectURL := server.URL + "/pair-game-quiz/pairs/connection"

	doJSON(t, http.MethodPost, connectURL, bearerFor(t, identity, "u1", "alice"), nil)
	doJSON(t, http.MethodPost, connectURL, bearerFor(t, identity, "u2", "bob"), nil)

	token, err := identity.IssueToken("u1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	wsURL := "ws" + server.URL[len("http"):] + "/pair-game-quiz/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// First message is the current state.
	typ, payload := readGameMessage(t, conn)
	if typ != "game" {
		t.Fatalf("expected game message, got %s", typ)
	}
	if payload["gameStatus"] != string(domain.StatusActive) {
		t.Fatalf("expected active game, got %v", payload["gameStatus"])
	}

	// An opponent answer triggers another snapshot.
	doJSON(t, http.MethodPost, server.URL+"/pair-game-quiz/pairs/my-current/answers",
		bearerFor(t, identity, "u2", "bob"), map[string]string{"answer": "anything"})

	typ, _ = readGameMessage(t, conn)
	if typ != "game" {
		t.Fatalf("expected game update, got %s", typ)
	}
}

func readGameMessage(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}
