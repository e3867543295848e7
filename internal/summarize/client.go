// Package summarize calls a generative-language model to condense an
// announcement page into a tagged summary.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
)

const (
	// Upstream calls are bounded; a timeout is an ordinary failure
	requestTimeout = 30 * time.Second

	// maxPromptChars caps how much page text goes into the prompt
	maxPromptChars = 12000

	promptTemplate = "You are summarizing a regulatory announcement for busy operators. " +
		"Start your reply with exactly one importance tag on the first line: [HIGH], [MEDIUM] or [LOW]. " +
		"Then give a plain-language summary in at most three sentences, covering what changes and when it takes effect.\n\n" +
		"Announcement page content:\n%s"
)

// importanceTag matches a leading [HIGH] / HIGH: style tag
var importanceTag = regexp.MustCompile(`(?i)^\s*\[?\s*(HIGH|MEDIUM|LOW)\s*\]?\s*[:\-]?\s*`)

// Client implements domain.Summarizer against a generative-language REST
// API (generateContent shape).
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

// NewClient creates a summarizer client
func NewClient(baseURL, apiKey, defaultModel string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error"`
}

// Summarize fetches the announcement page, sends its text to the model
// and parses the tagged response
func (c *Client) Summarize(ctx context.Context, pageURL, modelHint string) (*domain.SummaryResult, error) {
	text, err := c.fetchPageText(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	model := c.defaultModel
	if modelHint != "" {
		model = modelHint
	}

	start := time.Now()
	raw, err := c.generate(ctx, model, fmt.Sprintf(promptTemplate, text))
	observability.SummarizerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	importance, summary := ParseTaggedSummary(raw)
	return &domain.SummaryResult{
		Summary:    summary,
		Importance: importance,
	}, nil
}

// fetchPageText downloads the page and strips it down to readable text
func (c *Client) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	// Some announcement links serve binary documents despite an HTML-looking URL
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		return "", errors.New("page has no readable text")
	}
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return text, nil
}

// generate calls the model endpoint and returns the raw response text
func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("summarizer API key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no candidates")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("model returned empty text")
	}
	return text, nil
}

// ParseTaggedSummary splits a model response into importance and summary.
// A missing or unrecognized leading tag defaults to MEDIUM with the whole
// response as the summary body.
func ParseTaggedSummary(raw string) (domain.Importance, string) {
	raw = strings.TrimSpace(raw)

	match := importanceTag.FindStringSubmatch(raw)
	if match == nil {
		return domain.ImportanceMedium, raw
	}

	importance, ok := domain.ParseImportance(match[1])
	if !ok {
		return domain.ImportanceMedium, raw
	}

	summary := strings.TrimSpace(raw[len(match[0]):])
	if summary == "" {
		// A tag with no body is useless; keep the raw text
		return importance, raw
	}
	return importance, summary
}
