package domain

import (
	"context"
	"errors"
)

var ErrUpstreamFetch = errors.New("upstream fetch failed")

// Announcement is one row scraped from the third-party announcements page
type Announcement struct {
	ID               string `json:"id"`
	Details          string `json:"details"`
	Link             string `json:"link"`
	Type             string `json:"type"`
	AnnouncedDate    string `json:"announcedDate"`
	EffectiveDate    string `json:"effectiveDate"`
	HasSummary       bool   `json:"hasSummary"`
	CachedImportance string `json:"cachedImportance,omitempty"`
}

// AnnouncementFetcher defines the interface for the announcements page scraper
type AnnouncementFetcher interface {
	Fetch(ctx context.Context) ([]*Announcement, error)
}
