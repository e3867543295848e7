// Package announce scrapes the third-party announcements page into
// structured records.
package announce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
)

// Client fetches and parses the announcements page. It implements
// domain.AnnouncementFetcher.
type Client struct {
	pageURL    string
	httpClient *http.Client
}

// NewClient creates an announcements page client
func NewClient(pageURL string) *Client {
	return &Client{
		pageURL: pageURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch downloads the announcements page and parses its table
func (c *Client) Fetch(ctx context.Context) ([]*domain.Announcement, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Retry logic with exponential backoff
	var resp *http.Response
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	if lastErr != nil {
		observability.AnnouncementFetchFailures.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, lastErr)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		observability.AnnouncementFetchFailures.Inc()
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}
	defer resp.Body.Close()

	base, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse page: %v", domain.ErrUpstreamFetch, err)
	}

	return parseTable(doc, base), nil
}

// parseTable extracts announcement rows. Expected layout: a table whose
// body rows are [details+link, type, announced date, effective date].
// Rows with fewer cells are skipped.
func parseTable(doc *goquery.Document, base *url.URL) []*domain.Announcement {
	var announcements []*domain.Announcement

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			// Header or malformed row
			return
		}

		detailsCell := cells.Eq(0)
		details := cleanText(detailsCell.Text())
		if details == "" {
			return
		}

		link := ""
		if href, ok := detailsCell.Find("a").First().Attr("href"); ok {
			link = resolveLink(base, href)
		}

		announcements = append(announcements, &domain.Announcement{
			ID:            rowID(row, link),
			Details:       details,
			Link:          link,
			Type:          cleanText(cells.Eq(1).Text()),
			AnnouncedDate: cleanText(cells.Eq(2).Text()),
			EffectiveDate: cleanText(cells.Eq(3).Text()),
		})
	})

	return announcements
}

// rowID prefers an explicit row identifier, then the link's id parameter,
// and falls back to a generated one so every record stays addressable
func rowID(row *goquery.Selection, link string) string {
	if id, ok := row.Attr("data-id"); ok && id != "" {
		return id
	}
	if link != "" {
		if u, err := url.Parse(link); err == nil {
			if id := u.Query().Get("id"); id != "" {
				return id
			}
		}
	}
	return uuid.NewString()
}

// resolveLink makes relative hrefs absolute against the page URL
func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cleanText collapses the whitespace runs that HTML tables are full of
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
