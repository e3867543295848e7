package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"regwatch/internal/domain"
)

// mockSummarizer implements domain.Summarizer for testing
type mockSummarizer struct {
	calls     atomic.Int64
	summarize func(ctx context.Context, url, modelHint string) (*domain.SummaryResult, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, url, modelHint string) (*domain.SummaryResult, error) {
	m.calls.Add(1)
	if m.summarize != nil {
		return m.summarize(ctx, url, modelHint)
	}
	return &domain.SummaryResult{Summary: "a summary", Importance: domain.ImportanceHigh}, nil
}

func TestSummaryCache_Summarize_CachesSecondCall(t *testing.T) {
	summarizer := &mockSummarizer{}
	c := NewSummaryCache(time.Hour, summarizer)
	ctx := context.Background()

	first, err := c.Summarize(ctx, "https://example.com/notice/1", false, "")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if first.FromCache {
		t.Error("first call should not come from cache")
	}

	second, err := c.Summarize(ctx, "https://example.com/notice/1", false, "")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !second.FromCache {
		t.Error("second call should come from cache")
	}
	if second.Summary != first.Summary || second.Importance != first.Importance {
		t.Error("cached result should match the original")
	}
	if got := summarizer.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", got)
	}
}

func TestSummaryCache_ForceRefresh_AlwaysCallsUpstream(t *testing.T) {
	summarizer := &mockSummarizer{}
	c := NewSummaryCache(time.Hour, summarizer)
	ctx := context.Background()

	if _, err := c.Summarize(ctx, "https://example.com/notice/1", false, ""); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	res, err := c.Summarize(ctx, "https://example.com/notice/1", true, "")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if res.FromCache {
		t.Error("forceRefresh result must not come from cache")
	}
	if got := summarizer.calls.Load(); got != 2 {
		t.Errorf("expected 2 upstream calls, got %d", got)
	}
}

func TestSummaryCache_PDFNeverCallsUpstream(t *testing.T) {
	summarizer := &mockSummarizer{}
	c := NewSummaryCache(time.Hour, summarizer)

	tests := []string{
		"https://example.com/docs/notice.pdf",
		"https://example.com/docs/NOTICE.PDF",
		"https://example.com/docs/notice.pdf?version=2",
	}
	for _, url := range tests {
		res, err := c.Summarize(context.Background(), url, false, "")
		if err != nil {
			t.Fatalf("Summarize(%s) failed: %v", url, err)
		}
		if res.Importance != domain.ImportanceLow {
			t.Errorf("Summarize(%s): expected LOW importance, got %s", url, res.Importance)
		}
		if res.Summary == "" {
			t.Errorf("Summarize(%s): expected explanatory placeholder", url)
		}
	}

	if got := summarizer.calls.Load(); got != 0 {
		t.Errorf("summarizer must never be called for PDFs, got %d calls", got)
	}
	if c.Len() != 0 {
		t.Error("PDF placeholders must not be cached")
	}
}

func TestSummaryCache_MissingURL(t *testing.T) {
	c := NewSummaryCache(time.Hour, &mockSummarizer{})

	_, err := c.Summarize(context.Background(), "", false, "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSummaryCache_UpstreamFailure_PlaceholderNotCached(t *testing.T) {
	summarizer := &mockSummarizer{
		summarize: func(ctx context.Context, url, modelHint string) (*domain.SummaryResult, error) {
			return nil, errors.New("model timeout")
		},
	}
	c := NewSummaryCache(time.Hour, summarizer)
	ctx := context.Background()

	res, err := c.Summarize(ctx, "https://example.com/notice/1", false, "")
	if err != nil {
		t.Fatalf("upstream failures must not escape as errors: %v", err)
	}
	if res.Importance != domain.ImportanceLow {
		t.Errorf("expected LOW importance placeholder, got %s", res.Importance)
	}
	if c.Len() != 0 {
		t.Error("failed results must not be cached")
	}

	// The next call pays the upstream cost again
	c.Summarize(ctx, "https://example.com/notice/1", false, "")
	if got := summarizer.calls.Load(); got != 2 {
		t.Errorf("expected 2 upstream calls after a failure, got %d", got)
	}
}

func TestSummaryCache_ExpiredEntryIsMiss(t *testing.T) {
	summarizer := &mockSummarizer{}
	c := NewSummaryCache(time.Hour, summarizer)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	if _, err := c.Summarize(ctx, "https://example.com/notice/1", false, ""); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	current = current.Add(2 * time.Hour)

	res, err := c.Summarize(ctx, "https://example.com/notice/1", false, "")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if res.FromCache {
		t.Error("expired entry must be treated as a miss")
	}
	if got := summarizer.calls.Load(); got != 2 {
		t.Errorf("expected 2 upstream calls, got %d", got)
	}
}

func TestSummaryCache_Sweep(t *testing.T) {
	c := NewSummaryCache(time.Hour, &mockSummarizer{})

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Put("https://example.com/old", "old summary", domain.ImportanceLow)
	current = current.Add(30 * time.Minute)
	c.Put("https://example.com/fresh", "fresh summary", domain.ImportanceHigh)
	current = current.Add(45 * time.Minute)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("expected 1 entry swept, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry remaining, got %d", c.Len())
	}
	if _, ok := c.Get("https://example.com/fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestSummaryCache_Put_Replaces(t *testing.T) {
	c := NewSummaryCache(time.Hour, &mockSummarizer{})

	c.Put("https://example.com/notice/1", "v1", domain.ImportanceLow)
	c.Put("https://example.com/notice/1", "v2", domain.ImportanceHigh)

	entry, ok := c.Get("https://example.com/notice/1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.Summary != "v2" || entry.Importance != domain.ImportanceHigh {
		t.Errorf("expected replaced entry, got %+v", entry)
	}
	if c.Len() != 1 {
		t.Errorf("expected a single entry per key, got %d", c.Len())
	}
}

func TestSummaryCache_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	summarizer := &mockSummarizer{
		summarize: func(ctx context.Context, url, modelHint string) (*domain.SummaryResult, error) {
			<-release
			return &domain.SummaryResult{Summary: "shared", Importance: domain.ImportanceMedium}, nil
		},
	}
	c := NewSummaryCache(time.Hour, summarizer)

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)
	results := make([]*Result, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			res, err := c.Summarize(context.Background(), "https://example.com/notice/1", false, "")
			if err != nil {
				t.Errorf("Summarize failed: %v", err)
				return
			}
			results[i] = res
		}(i)
	}

	// Give the goroutines time to pile onto the same flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := summarizer.calls.Load(); got != 1 {
		t.Errorf("expected concurrent callers to share 1 upstream call, got %d", got)
	}
	for i, res := range results {
		if res == nil || res.Summary != "shared" {
			t.Errorf("caller %d got unexpected result: %+v", i, res)
		}
	}
}
