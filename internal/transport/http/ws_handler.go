package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// serveWS streams snapshots of the caller's current game until the game
// finishes or the client disconnects. The first message is the current state.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request, user app.UserClaims) {
	updates, cancel, err := h.service.Watch(r.Context(), user.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.GameSnapshot]{Type: "game", Payload: snapshot}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
			if snapshot.GameStatus == domain.StatusFinished {
				return
			}
		case <-readerDone:
			return
		}
	}
}
