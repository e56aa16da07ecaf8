package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/platform"
)

const (
	defaultBaseURL = "https://api.x.com"
	defaultTimeout = 30 * time.Second
)

// Client is an X/Twitter API v2 client using an OAuth2 user-context token
type Client struct {
	baseURL     string
	accessToken string
	userID      string
	httpClient  *http.Client

	// sinceID narrows mention polling to tweets newer than the last batch
	sinceID string
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates an X client for the given user token
func New(accessToken, userID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		userID:      userID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the platform this client serves
func (c *Client) Name() platform.Platform {
	return platform.PlatformTwitter
}

// APIError represents an error response from the X API
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter API error: %s (%s, http %d)", e.Detail, e.Title, e.Status)
}

type usersMeResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// Authenticate validates the token and resolves the authenticated user ID
// when it was not configured explicitly.
func (c *Client) Authenticate(ctx context.Context) error {
	var out usersMeResponse
	if err := c.get(ctx, "/2/users/me", nil, &out); err != nil {
		return fmt.Errorf("validating token: %w", err)
	}
	if c.userID == "" {
		c.userID = out.Data.ID
	}
	return nil
}

type createTweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// CreatePost publishes a tweet. Media attachment is not supported on this
// client; the media URL is ignored.
func (c *Client) CreatePost(ctx context.Context, text, _ string) (string, error) {
	var out createTweetResponse
	if err := c.post(ctx, "/2/tweets", createTweetRequest{Text: text}, &out); err != nil {
		return "", fmt.Errorf("creating tweet: %w", err)
	}
	return out.Data.ID, nil
}

// ReplyTo publishes a reply to the interaction's tweet
func (c *Client) ReplyTo(ctx context.Context, to interaction.Interaction, text string) (string, error) {
	req := createTweetRequest{Text: text}
	req.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: to.PostID}

	var out createTweetResponse
	if err := c.post(ctx, "/2/tweets", req, &out); err != nil {
		return "", fmt.Errorf("creating reply tweet: %w", err)
	}
	return out.Data.ID, nil
}

type mentionsResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		AuthorID  string    `json:"author_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		NewestID string `json:"newest_id"`
	} `json:"meta"`
}

// FetchInteractions polls the mentions timeline for tweets newer than the
// previous poll.
func (c *Client) FetchInteractions(ctx context.Context) ([]interaction.Interaction, error) {
	if c.userID == "" {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("tweet.fields", "author_id,created_at")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")
	params.Set("max_results", "50")
	if c.sinceID != "" {
		params.Set("since_id", c.sinceID)
	}

	var out mentionsResponse
	path := fmt.Sprintf("/2/users/%s/mentions", c.userID)
	if err := c.get(ctx, path, params, &out); err != nil {
		return nil, fmt.Errorf("fetching mentions: %w", err)
	}

	usernames := make(map[string]string, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		usernames[u.ID] = u.Username
	}

	var interactions []interaction.Interaction
	for _, tweet := range out.Data {
		interactions = append(interactions, interaction.Interaction{
			ID:           tweet.ID,
			Platform:     platform.PlatformTwitter,
			Type:         interaction.TypeMention,
			AuthorHandle: usernames[tweet.AuthorID],
			AuthorID:     tweet.AuthorID,
			Content:      tweet.Text,
			PostID:       tweet.ID,
			Timestamp:    tweet.CreatedAt,
		})
	}

	if out.Meta.NewestID != "" {
		c.sinceID = out.Meta.NewestID
	}
	return interactions, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Detail = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
