package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/persona"
	"github.com/charlielabs/charlie/internal/platform"
)

// RunPoll fetches fresh interactions from one platform, enqueues them and
// answers up to the per-cycle cap of pending ones.
func (s *Scheduler) RunPoll(ctx context.Context, client Client) {
	p := client.Name()

	fetched, err := client.FetchInteractions(ctx)
	if err != nil {
		s.logger.Error("fetching interactions failed", "platform", p, "error", err)
	} else {
		added := 0
		for _, in := range fetched {
			if s.queue.Add(in) {
				added++
			}
		}
		if added > 0 {
			s.logger.Info("interactions enqueued", "platform", p, "new", added, "fetched", len(fetched))
		}
	}

	if !s.cfg.RepliesEnabled {
		return
	}
	s.processPending(ctx, client, s.cfg.MaxRepliesPerCycle)
}

// RunMidnightDrain works through the pending backlog on every platform
// right after the daily quota reset, bounded only by the fresh quotas.
func (s *Scheduler) RunMidnightDrain(ctx context.Context) {
	if !s.cfg.RepliesEnabled {
		return
	}
	for _, client := range s.clients {
		pending := len(s.queue.Pending(client.Name()))
		if pending == 0 {
			continue
		}
		s.logger.Info("draining pending interactions", "platform", client.Name(), "pending", pending)
		s.processPending(ctx, client, pending)
	}
}

// processPending replies to at most max pending interactions on one
// platform. Interactions that cannot be answered this cycle stay queued.
func (s *Scheduler) processPending(ctx context.Context, client Client, max int) {
	p := client.Name()
	replied := 0
	for _, in := range s.queue.Pending(p) {
		if replied >= max {
			break
		}
		if !s.quota.CanReplyOn(p) {
			s.logger.Info("reply quota exhausted, leaving interactions queued",
				"platform", p,
				"pending", len(s.queue.Pending(p)),
			)
			break
		}

		text, ok := s.composeReply(ctx, in)
		if !ok {
			continue
		}
		if _, err := client.ReplyTo(ctx, in, text); err != nil {
			s.logger.Error("sending reply failed",
				"platform", p,
				"interaction_id", in.ID,
				"error", err,
			)
			continue
		}

		s.queue.MarkProcessed(in.ID)
		s.queue.LogReply(interaction.SentReply{
			ID:            uuid.New().String(),
			Platform:      p,
			ReplyToID:     in.ID,
			ReplyToHandle: in.AuthorHandle,
			Content:       text,
			Timestamp:     s.nowFunc(),
			Sent:          true,
		})
		s.quota.IncrementReply(p)
		replied++
		s.logger.Info("reply sent",
			"platform", p,
			"interaction_id", in.ID,
			"author", in.AuthorHandle,
			"type", in.Type,
		)
	}
}

// composeReply builds the reply text for one interaction. FAQ answers win
// over the generator; without a generator only FAQ matches get answered.
func (s *Scheduler) composeReply(ctx context.Context, in interaction.Interaction) (string, bool) {
	if answer, ok := persona.MatchFAQ(in.Content, in.Platform); ok {
		return answer, true
	}
	if s.gen == nil {
		return "", false
	}

	budget := platform.CharacterLimit(in.Platform)
	prompt := persona.ReplyPrompt(in.AuthorHandle, in.Content, in.Platform, budget)
	text, ok := s.generateWithinBudget(ctx, prompt, budget)
	if !ok {
		return "", false
	}
	return platform.Format(text, in.Platform).Text, true
}
