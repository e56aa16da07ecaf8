package persona

import (
	"strings"

	"github.com/charlielabs/charlie/internal/platform"
)

// faqIntent is a deterministic canned answer for a high-value factual
// question. Keeping these out of the LLM avoids hallucinated tokenomics
// or links.
type faqIntent struct {
	name     string
	keywords []string
	answer   string // may contain URLs; link policy applied per platform
}

var faqIntents = []faqIntent{
	{
		name:     "tokenomics",
		keywords: []string{"tokenomics", "token supply", "total supply", "max supply", "token distribution"},
		answer:   "Quick facts: fixed supply, no new minting, and the full breakdown lives at https://docs.charlie.community/tokenomics - numbers there are always current.",
	},
	{
		name:     "roadmap",
		keywords: []string{"roadmap", "what's next", "whats next", "upcoming features", "next release"},
		answer:   "The living roadmap is at https://charlie.community/roadmap - we update it every release, so that's the source of truth for what ships next.",
	},
	{
		name:     "links",
		keywords: []string{"official links", "social links", "where can i follow", "telegram link", "discord link"},
		answer:   "All official channels are listed at https://charlie.community - anything not linked from there isn't us, so please double-check before trusting a link.",
	},
}

// MatchFAQ returns a platform-formatted canned answer when the message
// matches a known intent, and false otherwise.
func MatchFAQ(message string, target platform.Platform) (string, bool) {
	lowered := strings.ToLower(message)
	for _, intent := range faqIntents {
		for _, kw := range intent.keywords {
			if strings.Contains(lowered, kw) {
				return platform.Format(intent.answer, target).Text, true
			}
		}
	}
	return "", false
}
