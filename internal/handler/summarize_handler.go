package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"regwatch/internal/cache"
	"regwatch/internal/domain"
)

// SummarizeHandler handles the summarize endpoint
type SummarizeHandler struct {
	cache *cache.SummaryCache
}

// NewSummarizeHandler creates a new summarize handler
func NewSummarizeHandler(summaryCache *cache.SummaryCache) *SummarizeHandler {
	return &SummarizeHandler{cache: summaryCache}
}

// SummarizeRequest represents a summarize request
type SummarizeRequest struct {
	URL           string `json:"url"`
	ForceRefresh  bool   `json:"forceRefresh"`
	SelectedModel string `json:"selectedModel"`
}

// Summarize returns a summary for the requested announcement page.
// Upstream failures and unsupported formats come back as 200 with a
// LOW-importance placeholder so the client stays functional.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	result, err := h.cache.Summarize(r.Context(), req.URL, req.ForceRefresh, req.SelectedModel)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, `{"error":"Missing url"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"Failed to summarize"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
