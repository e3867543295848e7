// Package cache holds the in-memory, TTL-bounded store of announcement
// summaries keyed by source URL.
package cache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
)

const pdfPlaceholder = "This announcement links to a PDF document, which cannot be summarized automatically. Open the linked document to read it."

// Entry is one cached summary
type Entry struct {
	URL        string            `json:"url"`
	Summary    string            `json:"summary"`
	Importance domain.Importance `json:"importance"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

// Result is the outcome of a Summarize call
type Result struct {
	Summary    string            `json:"summary"`
	Importance domain.Importance `json:"importance"`
	FromCache  bool              `json:"fromCache"`
}

// SummaryCache caches model-generated summaries per URL. Entries expire
// after the TTL, lazily on read and proactively via Sweep. Concurrent
// Summarize calls for the same uncached URL share a single upstream
// fetch-and-summarize via singleflight.
type SummaryCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	summarizer domain.Summarizer
	sf         singleflight.Group

	// now is swappable for tests
	now func() time.Time
}

// NewSummaryCache creates a summary cache with the given TTL and upstream
// summarizer collaborator
func NewSummaryCache(ttl time.Duration, summarizer domain.Summarizer) *SummaryCache {
	return &SummaryCache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// Get returns the cached entry for url if present and within TTL. An
// expired entry is dropped on the read that observes it.
func (c *SummaryCache) Get(url string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	if c.now().Sub(entry.FetchedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed
		if current, ok := c.entries[url]; ok && c.now().Sub(current.FetchedAt) > c.ttl {
			delete(c.entries, url)
			observability.SummaryCacheEntries.Set(float64(len(c.entries)))
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Put atomically replaces any prior entry for url, stamping FetchedAt
func (c *SummaryCache) Put(url, summary string, importance domain.Importance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = Entry{
		URL:        url,
		Summary:    summary,
		Importance: importance,
		FetchedAt:  c.now(),
	}
	observability.SummaryCacheEntries.Set(float64(len(c.entries)))
}

// Summarize returns a summary for url, from cache when possible. Upstream
// failures never escape: they come back as a LOW-importance placeholder
// that is not cached. forceRefresh bypasses the cache read but the fresh
// result is still stored.
func (c *SummaryCache) Summarize(ctx context.Context, pageURL string, forceRefresh bool, modelHint string) (*Result, error) {
	if pageURL == "" {
		return nil, domain.ErrInvalidInput
	}

	if isPDF(pageURL) {
		return &Result{
			Summary:    pdfPlaceholder,
			Importance: domain.ImportanceLow,
			FromCache:  false,
		}, nil
	}

	if !forceRefresh {
		if entry, ok := c.Get(pageURL); ok {
			observability.SummaryCacheHits.Inc()
			return &Result{
				Summary:    entry.Summary,
				Importance: entry.Importance,
				FromCache:  true,
			}, nil
		}
	}
	observability.SummaryCacheMisses.Inc()

	// Collapse concurrent misses for the same URL into one upstream call
	v, err, _ := c.sf.Do(pageURL, func() (any, error) {
		if !forceRefresh {
			// A concurrent flight may have filled the cache while we waited
			if entry, ok := c.Get(pageURL); ok {
				return &Result{
					Summary:    entry.Summary,
					Importance: entry.Importance,
					FromCache:  true,
				}, nil
			}
		}

		summary, err := c.summarizer.Summarize(ctx, pageURL, modelHint)
		if err != nil {
			observability.SummarizerFailures.Inc()
			observability.FromContext(ctx).Error("summarize failed",
				"url", pageURL,
				"error", err.Error())
			return &Result{
				Summary:    "Summary unavailable: " + err.Error(),
				Importance: domain.ImportanceLow,
				FromCache:  false,
			}, nil
		}

		c.Put(pageURL, summary.Summary, summary.Importance)
		return &Result{
			Summary:    summary.Summary,
			Importance: summary.Importance,
			FromCache:  false,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Sweep drops every expired entry and reports how many were removed
func (c *SummaryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for url, entry := range c.entries {
		if now.Sub(entry.FetchedAt) > c.ttl {
			delete(c.entries, url)
			removed++
		}
	}
	if removed > 0 {
		observability.SummaryCacheEvictions.Add(float64(removed))
		observability.SummaryCacheEntries.Set(float64(len(c.entries)))
	}
	return removed
}

// Len reports the current number of entries, expired or not
func (c *SummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// isPDF reports whether the URL path identifies a PDF resource
func isPDF(raw string) bool {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(raw), ".pdf")
}
