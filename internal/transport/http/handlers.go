package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
)

// Handler exposes the pair-game API over HTTP.
type Handler struct {
	service  *app.QuizService
	identity app.Identity
}

func NewHandler(service *app.QuizService, identity app.Identity) *Handler {
	return &Handler{service: service, identity: identity}
}

// Router wires the API routes.
func (h *Handler) Router() *httprouter.Router {
	router := httprouter.New()
	router.HandlerFunc(http.MethodPost, "/pair-game-quiz/pairs/connection", h.withUser(h.connect))
	router.HandlerFunc(http.MethodGet, "/pair-game-quiz/pairs/my-current", h.withUser(h.myCurrent))
	router.HandlerFunc(http.MethodPost, "/pair-game-quiz/pairs/my-current/answers", h.withUser(h.submitAnswer))
	router.HandlerFunc(http.MethodGet, "/pair-game-quiz/ws", h.withUser(h.serveWS))
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Printf("write response: %v", err)
		}
	})
	return router
}

type userHandler func(w http.ResponseWriter, r *http.Request, user app.UserClaims)

// withUser resolves the bearer credential before any game-scoped work; the
// handlers below trust the resulting user id.
func (h *Handler) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := h.identity.Identify(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, user)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	// Websocket clients cannot always set headers.
	return r.URL.Query().Get("token")
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request, user app.UserClaims) {
	snapshot, err := h.service.JoinQueue(r.Context(), user.UserID, user.Login)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) myCurrent(w http.ResponseWriter, r *http.Request, user app.UserClaims) {
	snapshot, err := h.service.CurrentGame(r.Context(), user.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request, user app.UserClaims) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid answer payload")
		return
	}
	answer, err := h.service.SubmitAnswer(r.Context(), user.UserID, req.Answer)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// writeServiceError maps business rejections to client statuses; anything
// else is an opaque server error.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveGame),
		errors.Is(err, domain.ErrGameOver),
		errors.Is(err, domain.ErrAllQuestionsAnswered),
		errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}
