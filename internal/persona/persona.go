// Package persona holds Charlie's identity: the system prompt, the prompt
// builders for scheduled posts and replies, and the deterministic FAQ
// answers that bypass the LLM for high-value factual questions.
package persona

import (
	"fmt"
	"strings"

	"github.com/charlielabs/charlie/internal/domain/rotation"
	"github.com/charlielabs/charlie/internal/platform"
)

// SystemPrompt is Charlie's identity, shared by the chat endpoint and the
// social scheduler.
const SystemPrompt = `You are Charlie, the upbeat mascot and community voice of the Charlie project.
You write short, warm, confident messages for the community. You never give
financial advice, never promise price movements, and never invent facts
about the project. When unsure, you point people to the docs. You keep a
light sense of humor and you sound like a person, not a press release.`

// ShortenInstruction is appended to a prompt when a previous generation
// exceeded the character budget.
const ShortenInstruction = "Your previous answer was too long. Rewrite it much shorter, it MUST fit the character limit."

// PostPrompt builds the generation prompt for a scheduled post
func PostPrompt(topic rotation.Topic, style rotation.Style, budget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a social media post about the %s side of the Charlie project.\n", topic)
	fmt.Fprintf(&b, "Style: %s.\n", styleDirection(style))
	fmt.Fprintf(&b, "Hard limit: %d characters. Plain text only, no hashtag walls, at most one emoji.\n", budget)
	b.WriteString("Do not mention that you are an AI or that this post is automated.")
	return b.String()
}

// ReplyPrompt builds the generation prompt for replying to an inbound
// interaction, with the platform's link policy and character budget.
func ReplyPrompt(authorHandle, content string, p platform.Platform, budget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Someone on %s wrote to you:\n", p)
	fmt.Fprintf(&b, "@%s: %q\n\n", authorHandle, content)
	fmt.Fprintf(&b, "Write a friendly, helpful reply as Charlie. Hard limit: %d characters.\n", budget)
	if platform.AllowsLinks(p) {
		b.WriteString("You may include one relevant project link if genuinely useful.")
	} else {
		b.WriteString("Do not include any URL; refer to \"our docs\" or \"the link in our bio\" instead.")
	}
	return b.String()
}

// ChatPrompt builds the generation prompt for the chat endpoint, threading
// in recent conversation history.
func ChatPrompt(history []Turn, message string) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User: %s\n", message)
	b.WriteString("Reply as Charlie, in a few sentences at most.")
	return b.String()
}

// Turn is one prior message of a chat conversation
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

func styleDirection(style rotation.Style) string {
	switch style {
	case rotation.StyleEducational:
		return "educational, teach one concrete thing"
	case rotation.StyleOpinion:
		return "a short opinionated take"
	case rotation.StyleNarrative:
		return "a tiny story or anecdote"
	case rotation.StyleAnnouncement:
		return "an upbeat announcement tone"
	case rotation.StyleHumorous:
		return "playful and funny, no forced memes"
	case rotation.StyleQuestion:
		return "an open question to the community"
	case rotation.StyleComparison:
		return "a before/after or this-vs-that comparison"
	}
	return string(style)
}
