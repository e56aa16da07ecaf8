// Package scheduler owns every time-based trigger of Charlie's social
// automation and sequences quota checks, content rotation, generation and
// platform posting into complete workflows.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/domain/quota"
	"github.com/charlielabs/charlie/internal/domain/rotation"
	"github.com/charlielabs/charlie/internal/generator"
	"github.com/charlielabs/charlie/internal/platform"
)

// Client is the per-platform collaborator contract. All operations are
// fallible; the scheduler logs failures and moves on so one platform's
// outage never blocks another's cycle.
type Client interface {
	Name() platform.Platform
	Authenticate(ctx context.Context) error
	CreatePost(ctx context.Context, text, mediaURL string) (string, error)
	ReplyTo(ctx context.Context, to interaction.Interaction, text string) (string, error)
	FetchInteractions(ctx context.Context) ([]interaction.Interaction, error)
}

// MediaPicker supplies an optional promo image URL for channel posts
type MediaPicker interface {
	Random(ctx context.Context) (string, error)
}

// Config holds all scheduling policy, externally injected
type Config struct {
	Timezone             string
	PostingEnabled       bool
	RepliesEnabled       bool
	MorningPostTime      string   // "HH:MM"
	EveningSlots         []string // "HH:MM" candidates, one picked daily
	PollIntervals        map[platform.Platform]time.Duration
	MaxRepliesPerCycle   int
	Signature            string // suffix appended to every scheduled post
	Retention            time.Duration
	MaxGenerationRetries int
	JobTimeout           time.Duration
}

// DefaultConfig returns scheduling defaults
func DefaultConfig() Config {
	return Config{
		Timezone:        "UTC",
		PostingEnabled:  true,
		RepliesEnabled:  true,
		MorningPostTime: "09:30",
		EveningSlots:    []string{"18:00", "19:30", "21:00"},
		PollIntervals: map[platform.Platform]time.Duration{
			platform.PlatformBluesky:  5 * time.Minute,
			platform.PlatformTwitter:  15 * time.Minute,
			platform.PlatformTelegram: 2 * time.Minute,
		},
		MaxRepliesPerCycle:   3,
		Signature:            "\n\n— Charlie",
		Retention:            7 * 24 * time.Hour,
		MaxGenerationRetries: 2,
		JobTimeout:           10 * time.Minute,
	}
}

// Scheduler fires the recurring jobs and coordinates the in-memory state.
// Job bodies are serialized through one mutex so the shared quota, queue
// and rotation state never see concurrent mutation.
type Scheduler struct {
	cfg      Config
	logger   *slog.Logger
	cron     *cron.Cron
	quota    *quota.Tracker
	queue    *interaction.Queue
	rotation *rotation.Selector
	gen      generator.Generator
	clients  []Client
	media    MediaPicker

	mu          sync.Mutex
	eveningSlot string
	rng         *rand.Rand
	nowFunc     func() time.Time
}

// New creates a scheduler. gen and media may be nil: without a generator
// only FAQ replies go out, and posts are skipped entirely.
func New(
	cfg Config,
	tracker *quota.Tracker,
	queue *interaction.Queue,
	selector *rotation.Selector,
	gen generator.Generator,
	clients []Client,
	media MediaPicker,
	logger *slog.Logger,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.MaxRepliesPerCycle <= 0 {
		cfg.MaxRepliesPerCycle = DefaultConfig().MaxRepliesPerCycle
	}
	if cfg.MaxGenerationRetries <= 0 {
		cfg.MaxGenerationRetries = DefaultConfig().MaxGenerationRetries
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultConfig().Retention
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}

	s := &Scheduler{
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(loc)),
		quota:    tracker,
		queue:    queue,
		rotation: selector,
		gen:      gen,
		clients:  clients,
		media:    media,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFunc:  time.Now,
	}
	s.pickEveningSlot()
	return s, nil
}

// Start registers all jobs and starts the cron runner
func (s *Scheduler) Start() error {
	if err := s.addClockJob("daily-reset", "00:00", s.RunDailyReset); err != nil {
		return err
	}
	if err := s.addClockJob("midnight-drain", "00:10", s.RunMidnightDrain); err != nil {
		return err
	}
	if err := s.addClockJob("cleanup", "03:30", s.RunCleanup); err != nil {
		return err
	}
	if err := s.addClockJob("morning-post", s.cfg.MorningPostTime, s.RunScheduledPost); err != nil {
		return err
	}
	for _, slot := range s.cfg.EveningSlots {
		slot := slot
		job := func(ctx context.Context) {
			if !s.isTodaysEveningSlot(slot) {
				return
			}
			s.RunScheduledPost(ctx)
		}
		if err := s.addClockJob("evening-post-"+slot, slot, job); err != nil {
			return err
		}
	}
	for _, client := range s.clients {
		client := client
		interval, ok := s.cfg.PollIntervals[client.Name()]
		if !ok || interval <= 0 {
			s.logger.Warn("no poll interval for platform, polling disabled", "platform", client.Name())
			continue
		}
		spec := fmt.Sprintf("@every %s", interval)
		name := fmt.Sprintf("poll-%s", client.Name())
		job := func(ctx context.Context) { s.RunPoll(ctx, client) }
		if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
			return fmt.Errorf("scheduling job %s: %w", name, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"platforms", len(s.clients),
		"posting_enabled", s.cfg.PostingEnabled,
		"replies_enabled", s.cfg.RepliesEnabled,
	)
	return nil
}

// Stop halts the cron runner and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// addClockJob registers a job at a fixed daily clock time ("HH:MM")
func (s *Scheduler) addClockJob(name, clock string, job func(ctx context.Context)) error {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return fmt.Errorf("invalid clock time %q for job %s: %w", clock, name, err)
	}
	spec := fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour())
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("scheduling job %s: %w", name, err)
	}
	return nil
}

// wrap serializes a job body, bounds it with a timeout and guarantees that
// nothing escapes it: a failing job degrades a feature, never the process.
func (s *Scheduler) wrap(name string, job func(ctx context.Context)) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked", "job", name, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()

		start := s.nowFunc()
		s.logger.Info("job started", "job", name)
		job(ctx)
		s.logger.Info("job finished", "job", name, "duration", s.nowFunc().Sub(start))
	}
}

// RunDailyReset zeroes today's quotas and picks tonight's posting slot
func (s *Scheduler) RunDailyReset(_ context.Context) {
	s.quota.Reset()
	s.pickEveningSlot()
	s.logger.Info("daily quota reset", "evening_slot", s.eveningSlot)
}

// RunCleanup drops old processed interactions, old sent replies and stale
// quota day records.
func (s *Scheduler) RunCleanup(_ context.Context) {
	droppedInteractions, droppedReplies := s.queue.Cleanup(s.cfg.Retention)
	droppedDays := s.quota.Cleanup(s.cfg.Retention)
	s.logger.Info("cleanup finished",
		"dropped_interactions", droppedInteractions,
		"dropped_replies", droppedReplies,
		"dropped_quota_days", droppedDays,
	)
}

func (s *Scheduler) pickEveningSlot() {
	if len(s.cfg.EveningSlots) == 0 {
		s.eveningSlot = ""
		return
	}
	s.eveningSlot = s.cfg.EveningSlots[s.rng.Intn(len(s.cfg.EveningSlots))]
}

func (s *Scheduler) isTodaysEveningSlot(slot string) bool {
	return slot == s.eveningSlot
}
