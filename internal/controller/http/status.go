package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/domain/quota"
	"github.com/charlielabs/charlie/internal/domain/rotation"
	"github.com/charlielabs/charlie/internal/httpx/response"
	"github.com/charlielabs/charlie/internal/platform"
)

// QuotaReader exposes the current day's quota snapshot
type QuotaReader interface {
	Today() quota.DailyQuota
}

// QueueReader exposes interaction queue statistics
type QueueReader interface {
	Stats() interaction.Stats
}

// RotationReader exposes the recent content rotation history
type RotationReader interface {
	History() []rotation.LogEntry
}

// StatusHandler exposes the operational snapshot of the automation
type StatusHandler struct {
	quota     QuotaReader
	queue     QueueReader
	rotation  RotationReader
	platforms []platform.Platform
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(q QuotaReader, iq QueueReader, rot RotationReader, platforms []platform.Platform) *StatusHandler {
	return &StatusHandler{quota: q, queue: iq, rotation: rot, platforms: platforms}
}

// RegisterRoutes registers status routes
func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.Status())
}

// StatusResponse represents the operational snapshot
type StatusResponse struct {
	Platforms    []platform.Platform `json:"platforms"`
	Quota        quota.DailyQuota    `json:"quota"`
	Interactions interaction.Stats   `json:"interactions"`
	Rotation     []rotation.LogEntry `json:"rotation"`
}

// Status handles GET /status
func (h *StatusHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, StatusResponse{
			Platforms:    h.platforms,
			Quota:        h.quota.Today(),
			Interactions: h.queue.Stats(),
			Rotation:     h.rotation.History(),
		})
	}
}
