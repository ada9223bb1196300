package output

import (
	"fmt"
	"strings"

	"github.com/domainscout/domainscout/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Report bundles resolved results with an optional batch summary.
type Report struct {
	Results []core.AvailabilityResult `json:"results"`
	Summary *core.BatchSummary        `json:"summary,omitempty"`
}

// Formatter renders an availability report.
type Formatter interface {
	FormatReport(report *Report) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func statusLabel(result core.AvailabilityResult) string {
	if result.Error != "" && !result.Available {
		return "unknown"
	}
	if result.Available {
		return "available"
	}
	return "taken"
}

func premiumLabel(result core.AvailabilityResult) string {
	if result.Premium == nil || !*result.Premium {
		return ""
	}
	if result.PremiumPrice != nil && *result.PremiumPrice > 0 {
		return fmt.Sprintf("premium ($%.2f)", *result.PremiumPrice)
	}
	return "premium"
}

func formatNotes(result core.AvailabilityResult) string {
	var notes []string

	if premium := premiumLabel(result); premium != "" {
		notes = append(notes, premium)
	}
	if result.Error != "" {
		notes = append(notes, result.Error)
	}

	return strings.Join(notes, "; ")
}

func sourceLabel(result core.AvailabilityResult) string {
	source := result.Provenance.Source
	if source == "" {
		source = "-"
	}
	if result.Provenance.FromCache {
		return source + " (cached)"
	}
	return source
}

func summaryLine(report *Report) string {
	available := 0
	for _, r := range report.Results {
		if r.Available {
			available++
		}
	}

	line := fmt.Sprintf("%d/%d available", available, len(report.Results))
	if report.Summary != nil && report.Summary.Terminated {
		line += " (stopped at target)"
	}
	return line
}
