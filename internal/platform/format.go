package platform

import (
	"regexp"
	"strings"
)

// TruncationMarker is appended when text is hard-truncated at a ceiling
const TruncationMarker = "..."

// knownURLReferences maps recognized project URLs to human-readable,
// non-clickable references used on link-restricted platforms.
// Ordered most-specific first: matching is by prefix.
var knownURLReferences = []struct {
	prefix    string
	reference string
}{
	{"docs.charlie.community", "our docs"},
	{"charlie.community/roadmap", "our roadmap"},
	{"charlie.community", "our site"},
	{"t.me/charliecommunity", "our Telegram"},
	{"github.com/charlielabs", "our GitHub"},
}

// genericURLReference replaces URLs that are not in the known set
const genericURLReference = "the link in our bio"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// FormatResult is the outcome of platform-specific formatting
type FormatResult struct {
	Text           string
	CharacterCount int
}

// Format enforces a platform's character ceiling and its link policy.
// Pure and synchronous: no I/O, deterministic for a given input.
func Format(content string, p Platform) FormatResult {
	text := strings.TrimSpace(content)

	if !AllowsLinks(p) {
		text = substituteURLs(text)
	}

	limit := CharacterLimit(p)
	runes := []rune(text)
	if len(runes) > limit {
		text = string(runes[:limit-len(TruncationMarker)]) + TruncationMarker
	}

	return FormatResult{
		Text:           text,
		CharacterCount: len([]rune(text)),
	}
}

// Truncate hard-truncates text to at most limit characters, appending the
// truncation marker when anything was cut. Used as the last resort after
// generation retries are exhausted.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	// a limit the marker alone would not fit leaves no room for content
	if limit <= len(TruncationMarker) {
		return ""
	}
	return string(runes[:limit-len(TruncationMarker)]) + TruncationMarker
}

// substituteURLs replaces recognized URLs with readable references and
// unknown ones with a generic fallback phrase.
func substituteURLs(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(raw string) string {
		stripped := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
		stripped = strings.TrimPrefix(stripped, "www.")
		stripped = strings.TrimRight(stripped, "/.,)!?")
		for _, known := range knownURLReferences {
			if strings.HasPrefix(stripped, known.prefix) {
				return known.reference
			}
		}
		return genericURLReference
	})
}
