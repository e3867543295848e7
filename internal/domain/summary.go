package domain

import (
	"context"
	"errors"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// Importance classifies how urgent an announcement is
type Importance string

const (
	ImportanceHigh   Importance = "HIGH"
	ImportanceMedium Importance = "MEDIUM"
	ImportanceLow    Importance = "LOW"
)

// ParseImportance maps a raw tag to an Importance, reporting whether it
// was recognized
func ParseImportance(s string) (Importance, bool) {
	switch Importance(strings.ToUpper(strings.TrimSpace(s))) {
	case ImportanceHigh:
		return ImportanceHigh, true
	case ImportanceMedium:
		return ImportanceMedium, true
	case ImportanceLow:
		return ImportanceLow, true
	}
	return ImportanceMedium, false
}

// SummaryResult is the outcome of summarizing one announcement page
type SummaryResult struct {
	Summary    string     `json:"summary"`
	Importance Importance `json:"importance"`
}

// Summarizer defines the interface for the generative-model collaborator.
// modelHint may be empty, in which case the implementation's default
// model is used.
type Summarizer interface {
	Summarize(ctx context.Context, url, modelHint string) (*SummaryResult, error)
}
