package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"
)

const baseURL = "http://localhost:8080/api/v1"

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type StatusResponse struct {
	Platforms []string `json:"platforms"`
	Quota     struct {
		Date         string `json:"date"`
		PostsCount   int    `json:"posts_count"`
		RepliesCount int    `json:"replies_count"`
		PostsLimit   int    `json:"posts_limit"`
		RepliesLimit int    `json:"replies_limit"`
	} `json:"quota"`
	Interactions struct {
		PendingCount int `json:"pending_count"`
	} `json:"interactions"`
}

func client() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func TestStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	resp, err := client().Get(baseURL + "/status")
	if err != nil {
		t.Fatalf("requesting status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}

	if status.Quota.Date == "" {
		t.Error("expected a quota date in the snapshot")
	}
	if status.Quota.PostsCount > status.Quota.PostsLimit {
		t.Errorf("posts count %d exceeds limit %d", status.Quota.PostsCount, status.Quota.PostsLimit)
	}
	t.Logf("connected platforms: %v", status.Platforms)
}

func TestChatConversation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	// First turn creates the session
	first := postChat(t, ChatRequest{Message: "what's on the roadmap?"})
	if first.SessionID == "" {
		t.Fatal("expected an assigned session id")
	}
	if first.Reply == "" {
		t.Fatal("expected a non-empty reply")
	}

	// Second turn reuses it
	second := postChat(t, ChatRequest{SessionID: first.SessionID, Message: "thanks! and the docs?"})
	if second.SessionID != first.SessionID {
		t.Errorf("session id changed between turns: %s -> %s", first.SessionID, second.SessionID)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	body, _ := json.Marshal(ChatRequest{Message: "   "})
	resp, err := client().Post(baseURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("posting chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", resp.StatusCode)
	}
}

func postChat(t *testing.T, req ChatRequest) ChatResponse {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	resp, err := client().Post(baseURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("posting chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	fmt.Println("reply:", out.Reply)
	return out
}
