package interaction

import (
	"time"

	"github.com/charlielabs/charlie/internal/platform"
)

// Type classifies an inbound interaction
type Type string

const (
	TypeMention Type = "mention"
	TypeReply   Type = "reply"
	TypeQuote   Type = "quote"
)

// Interaction is an inbound mention/reply awaiting an automated response.
// ID is the platform-native identifier and doubles as the dedup key.
type Interaction struct {
	ID           string            `json:"id"`
	Platform     platform.Platform `json:"platform"`
	Type         Type              `json:"type"`
	AuthorHandle string            `json:"author_handle"`
	AuthorID     string            `json:"author_id"`
	Content      string            `json:"content"`
	PostID       string            `json:"post_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Processed    bool              `json:"processed"`

	// Threading metadata only Bluesky can supply: content identifiers of
	// the post itself and of the thread root, needed to build reply refs.
	CID     string `json:"cid,omitempty"`
	RootID  string `json:"root_id,omitempty"`
	RootCID string `json:"root_cid,omitempty"`
}

// SentReply is one entry of the append-only log of completed replies
type SentReply struct {
	ID            string            `json:"id"`
	Platform      platform.Platform `json:"platform"`
	ReplyToID     string            `json:"reply_to_id"`
	ReplyToHandle string            `json:"reply_to_handle"`
	Content       string            `json:"content"`
	Timestamp     time.Time         `json:"timestamp"`
	Sent          bool              `json:"sent"`
}

// Stats is the queue's observability snapshot
type Stats struct {
	PendingCount          int                       `json:"pending_count"`
	PendingByPlatform     map[platform.Platform]int `json:"pending_by_platform"`
	SentRepliesTodayCount int                       `json:"sent_replies_today_count"`
	TrackedInteractions   int                       `json:"tracked_interactions"`
}
