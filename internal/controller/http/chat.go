package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/charlielabs/charlie/internal/domain/chat"
	"github.com/charlielabs/charlie/internal/httpx/response"
)

// ChatService defines the interface for conversation operations
// Interface is defined by consumer (handler), not provider (service)
type ChatService interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

// ChatHandler handles HTTP requests for the web chat
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(s ChatService) *ChatHandler {
	return &ChatHandler{service: s}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Respond())
}

// ChatRequest represents the request body for a chat turn
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse represents a chat reply
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Respond handles POST /chat
func (h *ChatHandler) Respond() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		// A fresh session gets an ID assigned; clients echo it back to
		// keep conversation context.
		if strings.TrimSpace(req.SessionID) == "" {
			req.SessionID = uuid.New().String()
		}

		reply, err := h.service.Respond(r.Context(), req.SessionID, req.Message)
		if err != nil {
			var rl *chat.RateLimitedError
			switch {
			case errors.As(err, &rl):
				response.TooManyRequests(w, "rate limit exceeded, slow down a little", int(math.Ceil(rl.RetryAfter.Seconds())))
			case errors.Is(err, chat.ErrEmptyMessage),
				errors.Is(err, chat.ErrEmptySessionID),
				errors.Is(err, chat.ErrMessageTooLong):
				response.BadRequest(w, err.Error())
			case errors.Is(err, chat.ErrGeneratorMissing):
				response.Error(w, http.StatusServiceUnavailable, "chat is not available right now")
			default:
				response.InternalError(w, "failed to produce a reply")
			}
			return
		}

		response.OK(w, ChatResponse{SessionID: req.SessionID, Reply: reply})
	}
}
