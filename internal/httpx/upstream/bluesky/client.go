package bluesky

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
	defaultBaseURL = "https://bsky.social"
	defaultTimeout = 30 * time.Second

	postCollection = "app.bsky.feed.post"
)

// Client is an AT Protocol (XRPC) client for posting and reading
// notifications as Charlie's Bluesky account.
type Client struct {
	baseURL    string
	identifier string
	password   string
	httpClient *http.Client

	// session state, set by Authenticate
	accessJwt string
	did       string
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom PDS base URL
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

// New creates a Bluesky client for the given handle and app password
func New(identifier, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		identifier: identifier,
		password:   password,
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
	return platform.PlatformBluesky
}

// APIError represents an error response from the XRPC endpoint
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bluesky API error: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

// Authenticate creates an XRPC session with the configured app password
func (c *Client) Authenticate(ctx context.Context) error {
	body := map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	}

	var session createSessionResponse
	if err := c.post(ctx, "com.atproto.server.createSession", body, &session, false); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	c.accessJwt = session.AccessJwt
	c.did = session.Did
	return nil
}

type postRecord struct {
	Type      string     `json:"$type"`
	Text      string     `json:"text"`
	CreatedAt string     `json:"createdAt"`
	Reply     *replyRefs `json:"reply,omitempty"`
	Langs     []string   `json:"langs,omitempty"`
}

type replyRefs struct {
	Root   recordRef `json:"root"`
	Parent recordRef `json:"parent"`
}

type recordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// CreatePost publishes a top-level post. The media URL is ignored: image
// embeds require a separate blob upload flow this client does not do.
func (c *Client) CreatePost(ctx context.Context, text, _ string) (string, error) {
	return c.createRecord(ctx, postRecord{
		Type:      postCollection,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     []string{"en"},
	})
}

// ReplyTo publishes a reply threaded under the given interaction
func (c *Client) ReplyTo(ctx context.Context, to interaction.Interaction, text string) (string, error) {
	root := recordRef{URI: to.RootID, CID: to.RootCID}
	if root.URI == "" {
		root = recordRef{URI: to.PostID, CID: to.CID}
	}

	return c.createRecord(ctx, postRecord{
		Type:      postCollection,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Reply: &replyRefs{
			Root:   root,
			Parent: recordRef{URI: to.PostID, CID: to.CID},
		},
	})
}

func (c *Client) createRecord(ctx context.Context, record postRecord) (string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return "", err
	}

	body := map[string]any{
		"repo":       c.did,
		"collection": postCollection,
		"record":     record,
	}

	var out createRecordResponse
	if err := c.post(ctx, "com.atproto.repo.createRecord", body, &out, true); err != nil {
		return "", fmt.Errorf("creating record: %w", err)
	}
	return out.URI, nil
}

type listNotificationsResponse struct {
	Notifications []struct {
		URI    string `json:"uri"`
		CID    string `json:"cid"`
		Reason string `json:"reason"`
		Author struct {
			Did    string `json:"did"`
			Handle string `json:"handle"`
		} `json:"author"`
		Record struct {
			Text  string `json:"text"`
			Reply *struct {
				Root recordRef `json:"root"`
			} `json:"reply"`
		} `json:"record"`
		IndexedAt time.Time `json:"indexedAt"`
	} `json:"notifications"`
}

// FetchInteractions lists recent notifications and maps mentions, replies
// and quotes into pending interactions. Other reasons (likes, follows,
// reposts) are dropped.
func (c *Client) FetchInteractions(ctx context.Context) ([]interaction.Interaction, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", "50")

	var out listNotificationsResponse
	if err := c.get(ctx, "app.bsky.notification.listNotifications", params, &out); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	var interactions []interaction.Interaction
	for _, n := range out.Notifications {
		var kind interaction.Type
		switch n.Reason {
		case "mention":
			kind = interaction.TypeMention
		case "reply":
			kind = interaction.TypeReply
		case "quote":
			kind = interaction.TypeQuote
		default:
			continue
		}

		in := interaction.Interaction{
			ID:           n.URI,
			Platform:     platform.PlatformBluesky,
			Type:         kind,
			AuthorHandle: n.Author.Handle,
			AuthorID:     n.Author.Did,
			Content:      n.Record.Text,
			PostID:       n.URI,
			CID:          n.CID,
			Timestamp:    n.IndexedAt,
		}
		if n.Record.Reply != nil {
			in.RootID = n.Record.Reply.Root.URI
			in.RootCID = n.Record.Reply.Root.CID
		}
		interactions = append(interactions, in)
	}
	return interactions, nil
}

// ensureSession authenticates lazily on first use
func (c *Client) ensureSession(ctx context.Context) error {
	if c.accessJwt != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) post(ctx context.Context, method string, body, out any, authed bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/xrpc/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/xrpc/%s?%s", c.baseURL, method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
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
			apiErr.Message = string(data)
		}
		// Session expiry: drop the token so the next call re-authenticates.
		if resp.StatusCode == http.StatusUnauthorized {
			c.accessJwt = ""
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
