package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charlielabs/charlie/internal/domain/chat/limiter"
	"github.com/charlielabs/charlie/internal/generator"
	"github.com/charlielabs/charlie/internal/persona"
	"github.com/charlielabs/charlie/internal/platform"
)

// RateLimitedError is returned when the sliding-window limiter denies a
// request. Not a failure: the caller surfaces a 429 with the retry hint.
type RateLimitedError struct {
	RetryAfter time.Duration
	Global     bool
}

func (e *RateLimitedError) Error() string {
	scope := "session"
	if e.Global {
		scope = "global"
	}
	return fmt.Sprintf("rate limited (%s), retry after %s", scope, e.RetryAfter)
}

// Service answers chat messages: rate limit, safety filter, FAQ intents,
// then the persona prompt against the LLM, with both turns recorded.
type Service struct {
	limiter      *limiter.Limiter
	history      HistoryStore
	gen          generator.Generator
	logger       *slog.Logger
	historyLimit int
}

// Config holds chat service configuration
type Config struct {
	HistoryLimit int // conversation turns threaded into the prompt
}

// NewService creates a chat service. gen may be nil when no LLM is
// configured; only FAQ and safety answers work in that mode.
func NewService(lim *limiter.Limiter, history HistoryStore, gen generator.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 12
	}
	return &Service{
		limiter:      lim,
		history:      history,
		gen:          gen,
		logger:       logger,
		historyLimit: cfg.HistoryLimit,
	}
}

// Respond produces Charlie's answer for one chat message
func (s *Service) Respond(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if sessionID == "" {
		return "", ErrEmptySessionID
	}
	if message == "" {
		return "", ErrEmptyMessage
	}
	if len(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}

	if res := s.limiter.Attempt(sessionID); !res.Allowed {
		s.logger.Info("chat request rate limited",
			"session_id", sessionID,
			"global", res.Global,
			"retry_after", res.RetryAfter,
		)
		return "", &RateLimitedError{RetryAfter: res.RetryAfter, Global: res.Global}
	}

	if persona.IsBlocked(message) {
		s.logger.Info("chat message blocked by safety filter", "session_id", sessionID)
		return persona.Refusal, nil
	}

	if answer, ok := persona.MatchFAQ(message, platform.PlatformTelegram); ok {
		s.logger.Info("chat message answered from FAQ", "session_id", sessionID)
		s.record(ctx, sessionID, message, answer)
		return answer, nil
	}

	if s.gen == nil {
		return "", ErrGeneratorMissing
	}

	history, err := s.history.Recent(ctx, sessionID, s.historyLimit)
	if err != nil {
		// Degraded prompt beats a failed request.
		s.logger.Error("loading chat history failed", "session_id", sessionID, "error", err)
		history = nil
	}

	turns := make([]persona.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, persona.Turn{Role: string(msg.Role), Content: msg.Content})
	}

	answer, err := s.gen.Generate(ctx, persona.ChatPrompt(turns, message))
	if err != nil {
		return "", fmt.Errorf("generating chat reply: %w", err)
	}

	s.record(ctx, sessionID, message, answer)
	return answer, nil
}

// record stores both turns; history failures are logged, not surfaced
func (s *Service) record(ctx context.Context, sessionID, userMsg, reply string) {
	now := time.Now()
	for _, msg := range []Message{
		{ID: uuid.New().String(), SessionID: sessionID, Role: RoleUser, Content: userMsg, CreatedAt: now},
		{ID: uuid.New().String(), SessionID: sessionID, Role: RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond)},
	} {
		if err := s.history.Append(ctx, msg); err != nil {
			s.logger.Error("storing chat turn failed", "session_id", sessionID, "error", err)
		}
	}
}
