package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatKeepsShortTextUnchanged(t *testing.T) {
	t.Parallel()

	res := Format("gm builders, shipping continues", PlatformBluesky)

	assert.Equal(t, "gm builders, shipping continues", res.Text)
	assert.Equal(t, len("gm builders, shipping continues"), res.CharacterCount)
}

func TestFormatTruncatesAtCeiling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform Platform
		limit    int
	}{
		{name: "bluesky", platform: PlatformBluesky, limit: BlueskyCharacterLimit},
		{name: "twitter", platform: PlatformTwitter, limit: TwitterCharacterLimit},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			long := strings.Repeat("a", tc.limit*2)
			res := Format(long, tc.platform)

			assert.Equal(t, tc.limit, res.CharacterCount)
			assert.True(t, strings.HasSuffix(res.Text, TruncationMarker))
		})
	}
}

func TestFormatSubstitutesURLsOnTwitter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "known docs url",
			in:   "read more at https://docs.charlie.community/intro today",
			want: "read more at our docs today",
		},
		{
			name: "roadmap beats site prefix",
			in:   "see https://charlie.community/roadmap for details",
			want: "see our roadmap for details",
		},
		{
			name: "unknown url gets fallback",
			in:   "check https://example.com/post/1",
			want: "check " + genericURLReference,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Format(tc.in, PlatformTwitter)
			assert.Equal(t, tc.want, res.Text)
		})
	}
}

func TestFormatRetainsURLsOnLinkFriendlyPlatforms(t *testing.T) {
	t.Parallel()

	in := "full notes: https://docs.charlie.community/changelog"
	res := Format(in, PlatformBluesky)

	assert.Equal(t, in, res.Text)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	out := Truncate(strings.Repeat("x", 400), 269)
	assert.Len(t, []rune(out), 269)
	assert.True(t, strings.HasSuffix(out, TruncationMarker))

	short := "fits fine"
	assert.Equal(t, short, Truncate(short, 269))
}

func TestTruncateTinyLimit(t *testing.T) {
	t.Parallel()

	// limits at or below the marker length cannot carry any content
	assert.Equal(t, "", Truncate("far too long", 3))
	assert.Equal(t, "", Truncate("far too long", 0))
	assert.Equal(t, "", Truncate("far too long", -23))

	out := Truncate("far too long", 4)
	assert.Len(t, []rune(out), 4)
	assert.Equal(t, "f"+TruncationMarker, out)
}

func TestCharacterLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 300, CharacterLimit(PlatformBluesky))
	assert.Equal(t, 280, CharacterLimit(PlatformTwitter))
	assert.Equal(t, 4096, CharacterLimit(PlatformTelegram))
}
