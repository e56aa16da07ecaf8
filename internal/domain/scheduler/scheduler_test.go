package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/domain/quota"
	"github.com/charlielabs/charlie/internal/domain/rotation"
	"github.com/charlielabs/charlie/internal/generator"
	"github.com/charlielabs/charlie/internal/platform"
)

type fakeClient struct {
	name     platform.Platform
	posts    []string
	replies  []string
	fetched  []interaction.Interaction
	postErr  error
	replyErr error
	fetchErr error
}

func (f *fakeClient) Name() platform.Platform            { return f.name }
func (f *fakeClient) Authenticate(context.Context) error { return nil }

func (f *fakeClient) CreatePost(_ context.Context, text, _ string) (string, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posts = append(f.posts, text)
	return "post-1", nil
}

func (f *fakeClient) ReplyTo(_ context.Context, _ interaction.Interaction, text string) (string, error) {
	if f.replyErr != nil {
		return "", f.replyErr
	}
	f.replies = append(f.replies, text)
	return "reply-1", nil
}

func (f *fakeClient) FetchInteractions(context.Context) ([]interaction.Interaction, error) {
	return f.fetched, f.fetchErr
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Signature = "\n\n- Charlie"
	return cfg
}

func testLimits() quota.Limits {
	return quota.Limits{
		PostsPerPlatform: map[platform.Platform]int{
			platform.PlatformBluesky:  2,
			platform.PlatformTwitter:  2,
			platform.PlatformTelegram: 2,
		},
		RepliesPerPlatform: map[platform.Platform]int{
			platform.PlatformBluesky:  5,
			platform.PlatformTwitter:  5,
			platform.PlatformTelegram: 5,
		},
		CombinedPosts:   10,
		CombinedReplies: 20,
	}
}

func newTestScheduler(t *testing.T, cfg Config, gen generator.Generator, clients ...Client) (*Scheduler, *quota.Tracker, *interaction.Queue) {
	t.Helper()
	tracker := quota.New(testLimits())
	queue := interaction.NewQueue()
	selector := rotation.New(rotation.DefaultConfig())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(cfg, tracker, queue, selector, gen, clients, nil, logger)
	require.NoError(t, err)
	return s, tracker, queue
}

func mention(id string, p platform.Platform) interaction.Interaction {
	return interaction.Interaction{
		ID:           id,
		Platform:     p,
		Type:         interaction.TypeMention,
		AuthorHandle: "alice",
		AuthorID:     "a1",
		Content:      "hey @charlie what do you think about today's progress",
		PostID:       "p1",
		Timestamp:    time.Now(),
	}
}

func TestScheduledPostStopsAtPlatformQuota(t *testing.T) {
	t.Parallel()

	client := &fakeClient{name: platform.PlatformBluesky}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "a short community update", nil
	})
	s, tracker, _ := newTestScheduler(t, testConfig(), gen, client)

	ctx := context.Background()
	s.RunScheduledPost(ctx)
	s.RunScheduledPost(ctx)
	s.RunScheduledPost(ctx)

	assert.Len(t, client.posts, 2)
	assert.Equal(t, 2, tracker.Today().PostsByPlatform[platform.PlatformBluesky])
}

func TestScheduledPostAppendsSignature(t *testing.T) {
	t.Parallel()

	client := &fakeClient{name: platform.PlatformTwitter}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "shipping continues", nil
	})
	s, _, _ := newTestScheduler(t, testConfig(), gen, client)

	s.RunScheduledPost(context.Background())

	require.Len(t, client.posts, 1)
	assert.Equal(t, "shipping continues\n\n- Charlie", client.posts[0])
}

func TestScheduledPostTruncatesAfterRetries(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 400)
	prompts := 0
	gen := generator.Func(func(_ context.Context, prompt string) (string, error) {
		prompts++
		if prompts > 1 {
			assert.Contains(t, prompt, "Rewrite it much shorter")
		}
		return long, nil
	})
	client := &fakeClient{name: platform.PlatformBluesky}
	s, _, _ := newTestScheduler(t, testConfig(), gen, client)

	s.RunScheduledPost(context.Background())

	// initial attempt plus two shortening retries
	assert.Equal(t, 3, prompts)
	require.Len(t, client.posts, 1)
	body := client.posts[0]
	assert.LessOrEqual(t, len([]rune(body)), platform.CharacterLimit(platform.PlatformBluesky))
	assert.Contains(t, body, platform.TruncationMarker)

	// one scheduled post logs exactly one rotation entry, retries included
	assert.Len(t, s.rotation.History(), 1)
}

func TestScheduledPostGenerationFailureSkipsRotationLog(t *testing.T) {
	t.Parallel()

	gen := generator.Func(func(context.Context, string) (string, error) {
		return "", errors.New("upstream down")
	})
	client := &fakeClient{name: platform.PlatformBluesky}
	s, tracker, _ := newTestScheduler(t, testConfig(), gen, client)

	s.RunScheduledPost(context.Background())

	assert.Empty(t, client.posts)
	assert.Empty(t, s.rotation.History())
	assert.Zero(t, tracker.Today().PostsCount)
}

func TestScheduledPostPlatformFailureIsolated(t *testing.T) {
	t.Parallel()

	broken := &fakeClient{name: platform.PlatformTwitter, postErr: errors.New("403")}
	healthy := &fakeClient{name: platform.PlatformBluesky}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "gm builders", nil
	})
	s, tracker, _ := newTestScheduler(t, testConfig(), gen, broken, healthy)

	s.RunScheduledPost(context.Background())

	assert.Empty(t, broken.posts)
	assert.Len(t, healthy.posts, 1)
	assert.Zero(t, tracker.Today().PostsByPlatform[platform.PlatformTwitter])
	assert.Equal(t, 1, tracker.Today().PostsByPlatform[platform.PlatformBluesky])
}

func TestPostingDisabledSkipsPost(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.PostingEnabled = false
	client := &fakeClient{name: platform.PlatformBluesky}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "should never be asked", nil
	})
	s, _, _ := newTestScheduler(t, cfg, gen, client)

	s.RunScheduledPost(context.Background())

	assert.Empty(t, client.posts)
}

func TestPollDeduplicatesInteractions(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		name:    platform.PlatformBluesky,
		fetched: []interaction.Interaction{mention("x1", platform.PlatformBluesky)},
	}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "thanks for the mention!", nil
	})
	s, tracker, queue := newTestScheduler(t, testConfig(), gen, client)

	ctx := context.Background()
	s.RunPoll(ctx, client)
	s.RunPoll(ctx, client)

	assert.Len(t, client.replies, 1)
	assert.Empty(t, queue.Pending(platform.PlatformBluesky))
	assert.Equal(t, 1, tracker.Today().RepliesCount)
}

func TestPollHonorsPerCycleCap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxRepliesPerCycle = 2
	client := &fakeClient{
		name: platform.PlatformTwitter,
		fetched: []interaction.Interaction{
			mention("m1", platform.PlatformTwitter),
			mention("m2", platform.PlatformTwitter),
			mention("m3", platform.PlatformTwitter),
		},
	}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "appreciate it!", nil
	})
	s, _, queue := newTestScheduler(t, cfg, gen, client)

	s.RunPoll(context.Background(), client)

	assert.Len(t, client.replies, 2)
	assert.Len(t, queue.Pending(platform.PlatformTwitter), 1)
}

func TestReplyFailureLeavesInteractionQueued(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		name:     platform.PlatformBluesky,
		fetched:  []interaction.Interaction{mention("m1", platform.PlatformBluesky)},
		replyErr: errors.New("timeout"),
	}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "hello!", nil
	})
	s, tracker, queue := newTestScheduler(t, testConfig(), gen, client)

	s.RunPoll(context.Background(), client)

	assert.Len(t, queue.Pending(platform.PlatformBluesky), 1)
	assert.Zero(t, tracker.Today().RepliesCount)
}

func TestFAQReplySkipsGenerator(t *testing.T) {
	t.Parallel()

	in := mention("m1", platform.PlatformTelegram)
	in.Content = "where can I read the roadmap?"
	client := &fakeClient{
		name:    platform.PlatformTelegram,
		fetched: []interaction.Interaction{in},
	}
	gen := generator.Func(func(context.Context, string) (string, error) {
		t.Fatal("generator must not be called for an FAQ match")
		return "", nil
	})
	s, _, _ := newTestScheduler(t, testConfig(), gen, client)

	s.RunPoll(context.Background(), client)

	require.Len(t, client.replies, 1)
	assert.Contains(t, strings.ToLower(client.replies[0]), "roadmap")
}

func TestNoGeneratorOnlyFAQGetsAnswered(t *testing.T) {
	t.Parallel()

	faq := mention("m1", platform.PlatformBluesky)
	faq.Content = "what are the tokenomics like?"
	open := mention("m2", platform.PlatformBluesky)
	client := &fakeClient{
		name:    platform.PlatformBluesky,
		fetched: []interaction.Interaction{faq, open},
	}
	s, _, queue := newTestScheduler(t, testConfig(), nil, client)

	s.RunPoll(context.Background(), client)

	assert.Len(t, client.replies, 1)
	assert.Len(t, queue.Pending(platform.PlatformBluesky), 1)
}

func TestMidnightDrainWorksThroughBacklog(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxRepliesPerCycle = 1
	client := &fakeClient{name: platform.PlatformBluesky}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "welcome aboard!", nil
	})
	s, _, queue := newTestScheduler(t, cfg, gen, client)

	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		queue.Add(mention(id, platform.PlatformBluesky))
	}

	s.RunMidnightDrain(context.Background())

	assert.Len(t, client.replies, 4)
	assert.Empty(t, queue.Pending(platform.PlatformBluesky))
}

func TestDailyResetZeroesQuotas(t *testing.T) {
	t.Parallel()

	client := &fakeClient{name: platform.PlatformBluesky}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "gm", nil
	})
	s, tracker, _ := newTestScheduler(t, testConfig(), gen, client)

	ctx := context.Background()
	s.RunScheduledPost(ctx)
	require.Equal(t, 1, tracker.Today().PostsCount)

	s.RunDailyReset(ctx)

	today := tracker.Today()
	assert.Zero(t, today.PostsCount)
	assert.Zero(t, today.RepliesCount)
	assert.Zero(t, today.PostsByPlatform[platform.PlatformBluesky])
}

func TestScheduledPostSkipsPlatformSignatureExhausts(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Signature = strings.Repeat("x", 300) // wider than the Twitter ceiling
	twitterClient := &fakeClient{name: platform.PlatformTwitter}
	telegramClient := &fakeClient{name: platform.PlatformTelegram}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return strings.Repeat("y", 5000), nil
	})
	s, tracker, _ := newTestScheduler(t, cfg, gen, twitterClient, telegramClient)

	s.RunScheduledPost(context.Background())

	assert.Empty(t, twitterClient.posts)
	require.Len(t, telegramClient.posts, 1)
	assert.LessOrEqual(t, len([]rune(telegramClient.posts[0])), platform.CharacterLimit(platform.PlatformTelegram))
	assert.Zero(t, tracker.Today().PostsByPlatform[platform.PlatformTwitter])
}

func TestScheduledPostAllPlatformsSignatureExhausted(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Signature = strings.Repeat("x", 5000)
	client := &fakeClient{name: platform.PlatformTwitter}
	gen := generator.Func(func(context.Context, string) (string, error) {
		t.Fatal("no eligible platform, generator must not be called")
		return "", nil
	})
	s, _, _ := newTestScheduler(t, cfg, gen, client)

	s.RunScheduledPost(context.Background())

	assert.Empty(t, client.posts)
	assert.Empty(t, s.rotation.History())
}

func TestSentReplyTimestampUsesInjectedClock(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		name:    platform.PlatformBluesky,
		fetched: []interaction.Interaction{mention("m1", platform.PlatformBluesky)},
	}
	gen := generator.Func(func(context.Context, string) (string, error) {
		return "hello!", nil
	})
	s, _, queue := newTestScheduler(t, testConfig(), gen, client)
	s.nowFunc = func() time.Time { return time.Now().Add(-10 * 24 * time.Hour) }

	s.RunPoll(context.Background(), client)

	require.Len(t, client.replies, 1)
	// the reply carries the injected clock's time, so a 7-day retention
	// sweep drops it immediately
	_, droppedReplies := queue.Cleanup(7 * 24 * time.Hour)
	assert.Equal(t, 1, droppedReplies)
}

func TestPostBudgetUsesTightestPlatform(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, testConfig(), nil)
	clients := []Client{
		&fakeClient{name: platform.PlatformTelegram},
		&fakeClient{name: platform.PlatformTwitter},
	}

	budget := s.postBudget(clients)

	want := platform.CharacterLimit(platform.PlatformTwitter) - len([]rune(s.cfg.Signature))
	assert.Equal(t, want, budget)
}
