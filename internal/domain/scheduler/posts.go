package scheduler

import (
	"context"

	"github.com/charlielabs/charlie/internal/persona"
	"github.com/charlielabs/charlie/internal/platform"
)

// RunScheduledPost composes one post and publishes it to every platform
// whose daily quota still admits a post. Content is generated once against
// the tightest eligible character budget and shared across platforms.
func (s *Scheduler) RunScheduledPost(ctx context.Context) {
	if !s.cfg.PostingEnabled {
		s.logger.Info("posting disabled, skipping scheduled post")
		return
	}
	if s.gen == nil {
		s.logger.Warn("no generator configured, skipping scheduled post")
		return
	}
	if !s.quota.CanPost() {
		s.logger.Info("combined daily post ceiling reached, skipping scheduled post")
		return
	}

	sigLen := len([]rune(s.cfg.Signature))
	var eligible []Client
	for _, client := range s.clients {
		if !s.quota.CanPostOn(client.Name()) {
			s.logger.Info("platform post quota exhausted", "platform", client.Name())
			continue
		}
		if platform.CharacterLimit(client.Name())-sigLen <= 0 {
			s.logger.Warn("signature leaves no room for content, skipping platform",
				"platform", client.Name(),
				"signature_chars", sigLen,
			)
			continue
		}
		eligible = append(eligible, client)
	}
	if len(eligible) == 0 {
		s.logger.Info("no platform admits a post, skipping")
		return
	}

	topic := s.rotation.SelectTopic()
	style := s.rotation.SelectStyle()
	budget := s.postBudget(eligible)

	text, ok := s.generateWithinBudget(ctx, persona.PostPrompt(topic, style, budget), budget)
	if !ok {
		return
	}
	s.rotation.LogPost(topic, style)

	mediaURL := s.pickMedia(ctx)
	for _, client := range eligible {
		p := client.Name()
		// re-check right before the mutation: an earlier platform in this
		// loop may have consumed the last combined slot
		if !s.quota.CanPostOn(p) {
			s.logger.Info("post quota exhausted before publish", "platform", p)
			continue
		}

		body := text + s.cfg.Signature
		url := ""
		if p == platform.PlatformTelegram {
			url = mediaURL
		}
		id, err := client.CreatePost(ctx, body, url)
		if err != nil {
			s.logger.Error("publishing post failed", "platform", p, "error", err)
			continue
		}
		s.quota.IncrementPost(p)
		s.logger.Info("post published",
			"platform", p,
			"post_id", id,
			"topic", topic,
			"style", style,
			"chars", len([]rune(body)),
		)
	}
}

// postBudget returns the smallest character budget across the given
// platforms, net of the configured signature.
func (s *Scheduler) postBudget(clients []Client) int {
	budget := 0
	for _, client := range clients {
		limit := platform.CharacterLimit(client.Name()) - len([]rune(s.cfg.Signature))
		if budget == 0 || limit < budget {
			budget = limit
		}
	}
	return budget
}

// generateWithinBudget asks the generator for text fitting budget runes,
// retrying with a shortening instruction, and truncates as a last resort.
func (s *Scheduler) generateWithinBudget(ctx context.Context, prompt string, budget int) (string, bool) {
	current := prompt
	var text string
	for attempt := 0; attempt <= s.cfg.MaxGenerationRetries; attempt++ {
		var err error
		text, err = s.gen.Generate(ctx, current)
		if err != nil {
			s.logger.Error("content generation failed", "error", err, "attempt", attempt)
			return "", false
		}
		if len([]rune(text)) <= budget {
			return text, true
		}
		s.logger.Warn("generated content over budget, retrying",
			"chars", len([]rune(text)),
			"budget", budget,
			"attempt", attempt,
		)
		current = prompt + "\n\n" + persona.ShortenInstruction
	}

	s.logger.Warn("generation retries exhausted, truncating", "budget", budget)
	return platform.Truncate(text, budget), true
}

func (s *Scheduler) pickMedia(ctx context.Context) string {
	if s.media == nil {
		return ""
	}
	url, err := s.media.Random(ctx)
	if err != nil {
		s.logger.Warn("picking promo media failed", "error", err)
		return ""
	}
	return url
}
