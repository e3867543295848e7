package handler

import (
	"encoding/json"
	"net/http"

	"regwatch/internal/cache"
	"regwatch/internal/domain"
	"regwatch/internal/observability"
)

// AnnouncementHandler handles the announcements listing endpoint
type AnnouncementHandler struct {
	fetcher domain.AnnouncementFetcher
	cache   *cache.SummaryCache
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(fetcher domain.AnnouncementFetcher, summaryCache *cache.SummaryCache) *AnnouncementHandler {
	return &AnnouncementHandler{
		fetcher: fetcher,
		cache:   summaryCache,
	}
}

// List scrapes the announcements page and annotates each record with its
// summary-cache state
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("announcements fetch failed",
			"error", err.Error())
		http.Error(w, `{"error":"Failed to fetch announcements"}`, http.StatusInternalServerError)
		return
	}

	for _, a := range announcements {
		if a.Link == "" {
			continue
		}
		if entry, ok := h.cache.Get(a.Link); ok {
			a.HasSummary = true
			a.CachedImportance = string(entry.Importance)
		}
	}

	if announcements == nil {
		announcements = []*domain.Announcement{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(announcements)
}
