package chat

import (
	"errors"
	"time"
)

// Role identifies who authored a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Domain errors
var (
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrEmptySessionID   = errors.New("session id is required")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrGeneratorMissing = errors.New("no content generator configured")
)

// MaxMessageLength caps inbound chat messages
const MaxMessageLength = 2000
