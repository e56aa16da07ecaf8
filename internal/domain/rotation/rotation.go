package rotation

import (
	"math/rand"
	"sync"
	"time"
)

// Topic is a fixed content category for scheduled posts
type Topic string

const (
	TopicCommunity Topic = "community"
	TopicProduct   Topic = "product"
	TopicMarket    Topic = "market"
	TopicSecurity  Topic = "security"
	TopicAdoption  Topic = "adoption"
	TopicEcosystem Topic = "ecosystem"
	TopicCulture   Topic = "culture"
)

// Style is a fixed writing style for scheduled posts
type Style string

const (
	StyleEducational  Style = "educational"
	StyleOpinion      Style = "opinion"
	StyleNarrative    Style = "narrative"
	StyleAnnouncement Style = "announcement"
	StyleHumorous     Style = "humorous"
	StyleQuestion     Style = "question"
	StyleComparison   Style = "comparison"
)

// Topics is the full topic universe
var Topics = []Topic{
	TopicCommunity, TopicProduct, TopicMarket, TopicSecurity,
	TopicAdoption, TopicEcosystem, TopicCulture,
}

// Styles is the full style universe
var Styles = []Style{
	StyleEducational, StyleOpinion, StyleNarrative, StyleAnnouncement,
	StyleHumorous, StyleQuestion, StyleComparison,
}

// LogEntry records the topic and style of one composed post
type LogEntry struct {
	Topic Topic     `json:"topic"`
	Style Style     `json:"style"`
	Date  time.Time `json:"date"`
}

// Config holds rotation policy knobs. The exclusion windows and the history
// cap are empirically chosen policy, not algorithmic requirements.
type Config struct {
	TopicExclusion int // topics used in the last N posts are excluded
	StyleExclusion int // styles used in the last N posts are excluded
	HistoryCap     int // bounded post history, oldest dropped past the cap
}

// DefaultConfig returns the rotation policy defaults
func DefaultConfig() Config {
	return Config{
		TopicExclusion: 5,
		StyleExclusion: 2,
		HistoryCap:     14,
	}
}

// Selector picks topics and styles for scheduled posts, avoiding recent
// repeats so automated output does not look repetitive.
type Selector struct {
	mu      sync.Mutex
	cfg     Config
	history []LogEntry
	rng     *rand.Rand
	nowFunc func() time.Time
}

// New creates a selector with the given policy
func New(cfg Config) *Selector {
	if cfg.TopicExclusion <= 0 {
		cfg.TopicExclusion = DefaultConfig().TopicExclusion
	}
	if cfg.StyleExclusion <= 0 {
		cfg.StyleExclusion = DefaultConfig().StyleExclusion
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = DefaultConfig().HistoryCap
	}
	return &Selector{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFunc: time.Now,
	}
}

// SelectTopic picks a topic uniformly at random from the universe minus the
// topics of the last TopicExclusion posts. Falls back to the full universe
// when the exclusion empties the pool.
func (s *Selector) SelectTopic() Topic {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclude := make(map[Topic]bool)
	for _, e := range s.recent(s.cfg.TopicExclusion) {
		exclude[e.Topic] = true
	}

	pool := make([]Topic, 0, len(Topics))
	for _, t := range Topics {
		if !exclude[t] {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = Topics
	}
	return pool[s.rng.Intn(len(pool))]
}

// SelectStyle picks a style the same way, with a shorter look-back
func (s *Selector) SelectStyle() Style {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclude := make(map[Style]bool)
	for _, e := range s.recent(s.cfg.StyleExclusion) {
		exclude[e.Style] = true
	}

	pool := make([]Style, 0, len(Styles))
	for _, st := range Styles {
		if !exclude[st] {
			pool = append(pool, st)
		}
	}
	if len(pool) == 0 {
		pool = Styles
	}
	return pool[s.rng.Intn(len(pool))]
}

// LogPost appends to the bounded history. Called once per composed post,
// not on generation retries.
func (s *Selector) LogPost(topic Topic, style Style) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, LogEntry{Topic: topic, Style: style, Date: s.nowFunc()})
	if len(s.history) > s.cfg.HistoryCap {
		s.history = s.history[len(s.history)-s.cfg.HistoryCap:]
	}
}

// History returns a copy of the post log, oldest first
func (s *Selector) History() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, len(s.history))
	copy(out, s.history)
	return out
}

// recent returns the last n history entries. Caller holds the lock.
func (s *Selector) recent(n int) []LogEntry {
	if len(s.history) <= n {
		return s.history
	}
	return s.history[len(s.history)-n:]
}
