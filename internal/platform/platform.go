package platform

// Platform identifies a social platform Charlie posts to
type Platform string

const (
	PlatformBluesky  Platform = "bluesky"
	PlatformTwitter  Platform = "twitter"
	PlatformTelegram Platform = "telegram"
)

// All lists every supported platform
var All = []Platform{PlatformBluesky, PlatformTwitter, PlatformTelegram}

// Character ceilings enforced by each platform
const (
	BlueskyCharacterLimit  = 300
	TwitterCharacterLimit  = 280
	TelegramCharacterLimit = 4096
)

// CharacterLimit returns the hard text ceiling for a platform
func CharacterLimit(p Platform) int {
	switch p {
	case PlatformBluesky:
		return BlueskyCharacterLimit
	case PlatformTwitter:
		return TwitterCharacterLimit
	case PlatformTelegram:
		return TelegramCharacterLimit
	}
	return TwitterCharacterLimit
}

// IsValid checks if a platform is supported
func IsValid(p Platform) bool {
	switch p {
	case PlatformBluesky, PlatformTwitter, PlatformTelegram:
		return true
	}
	return false
}

// AllowsLinks reports whether clickable URLs should be kept in outbound text.
// Twitter downranks automated posts carrying links, so they are substituted.
func AllowsLinks(p Platform) bool {
	return p != PlatformTwitter
}
