package persona

import "strings"

// Refusal is returned for messages the safety filter blocks
const Refusal = "I can't help with that one - but I'm happy to talk about the project, the roadmap, or anything in the docs!"

// blockedPatterns are scanned case-insensitively before any LLM call.
// Financial-advice bait and prompt-injection attempts are the two classes
// Charlie refuses outright.
var blockedPatterns = []string{
	"should i buy",
	"should i sell",
	"price prediction",
	"when moon",
	"financial advice",
	"guaranteed return",
	"ignore your instructions",
	"ignore previous instructions",
	"disregard your system prompt",
	"you are now",
	"pretend you are",
	"seed phrase",
	"private key",
}

// IsBlocked reports whether a message trips the safety filter
func IsBlocked(message string) bool {
	lowered := strings.ToLower(message)
	for _, pattern := range blockedPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
