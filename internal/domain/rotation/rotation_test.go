package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTopicAvoidsRecentTopics(t *testing.T) {
	t.Parallel()

	sel := New(Config{TopicExclusion: 5, StyleExclusion: 2, HistoryCap: 14})

	// With a universe of 7 and an exclusion window of 5, any run of 6
	// consecutive selections must never repeat a topic inside the window.
	var picked []Topic
	for i := 0; i < 6; i++ {
		topic := sel.SelectTopic()
		window := picked
		if len(window) > 5 {
			window = window[len(window)-5:]
		}
		for _, prev := range window {
			assert.NotEqual(t, prev, topic, "topic repeated within exclusion window")
		}
		picked = append(picked, topic)
		sel.LogPost(topic, StyleEducational)
	}
}

func TestSelectTopicFallsBackWhenUniverseExhausted(t *testing.T) {
	t.Parallel()

	// Exclusion window covers the whole universe: the pool empties and the
	// selector must fall back to the full set instead of panicking.
	sel := New(Config{TopicExclusion: len(Topics), StyleExclusion: 2, HistoryCap: 20})
	for _, topic := range Topics {
		sel.LogPost(topic, StyleOpinion)
	}

	topic := sel.SelectTopic()
	assert.Contains(t, Topics, topic)
}

func TestSelectStyleAvoidsLastTwo(t *testing.T) {
	t.Parallel()

	sel := New(DefaultConfig())
	sel.LogPost(TopicCommunity, StyleHumorous)
	sel.LogPost(TopicProduct, StyleQuestion)

	for i := 0; i < 20; i++ {
		style := sel.SelectStyle()
		assert.NotEqual(t, StyleHumorous, style)
		assert.NotEqual(t, StyleQuestion, style)
	}
}

func TestLogPostBoundsHistory(t *testing.T) {
	t.Parallel()

	sel := New(Config{TopicExclusion: 5, StyleExclusion: 2, HistoryCap: 14})
	for i := 0; i < 30; i++ {
		sel.LogPost(Topics[i%len(Topics)], Styles[i%len(Styles)])
	}

	history := sel.History()
	assert.Len(t, history, 14)
	// Oldest entries are dropped: the first remaining entry is post #16.
	assert.Equal(t, Topics[16%len(Topics)], history[0].Topic)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	sel := New(Config{})
	assert.Equal(t, DefaultConfig().TopicExclusion, sel.cfg.TopicExclusion)
	assert.Equal(t, DefaultConfig().HistoryCap, sel.cfg.HistoryCap)
}
