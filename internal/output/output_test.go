package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/core"
)

func sampleReport() *Report {
	return &Report{
		Results: []core.AvailabilityResult{
			{
				Domain:    "nexify.com",
				Available: false,
				Provenance: core.Provenance{
					Source: "dns",
				},
			},
			{
				Domain:    "nexify.io",
				Available: true,
				Provenance: core.Provenance{
					Source:    "rdap",
					FromCache: true,
				},
			},
			{
				Domain:       "brandly.com",
				Available:    true,
				Premium:      core.BoolPtr(true),
				PremiumPrice: func() *float64 { v := 2499.99; return &v }(),
				Provenance: core.Provenance{
					Source: "provider",
				},
			},
			{
				Domain:    "nexify.xyz",
				Available: false,
				Error:     "rdap timeout",
				Provenance: core.Provenance{
					Source: "rdap",
				},
			},
		},
		Summary: &core.BatchSummary{
			Terminated:     true,
			AvailableFound: 2,
			Resolved:       4,
		},
	}
}

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		" JSON ":   FormatJSON,
		"markdown": FormatMarkdown,
	} {
		format, err := ParseFormat(input)
		require.NoError(t, err)
		require.Equal(t, expected, format)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatReport(sampleReport())
	require.NoError(t, err)

	require.Contains(t, rendered, "nexify.com")
	require.Contains(t, rendered, "taken")
	require.Contains(t, rendered, "available")
	require.Contains(t, rendered, "rdap (cached)")
	require.Contains(t, rendered, "premium ($2499.99)")
	require.Contains(t, rendered, "rdap timeout")
	require.Contains(t, rendered, "2/4 available (stopped at target)")
}

func TestTableFormatterEmpty(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatReport(&Report{})
	require.NoError(t, err)
	require.Empty(t, rendered)
}

func TestJSONFormatterRoundTrip(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}

	rendered, err := formatter.FormatReport(sampleReport())
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded.Results, 4)
	require.NotNil(t, decoded.Summary)
	require.True(t, decoded.Summary.Terminated)
	require.Equal(t, "nexify.io", decoded.Results[1].Domain)
	require.True(t, decoded.Results[1].Provenance.FromCache)
}

func TestMarkdownFormatter(t *testing.T) {
	formatter := &MarkdownFormatter{}

	rendered, err := formatter.FormatReport(sampleReport())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(rendered, "## Domain availability"))
	require.Contains(t, rendered, "| nexify.io | available | rdap (cached) |")
	require.Contains(t, rendered, "**Summary**: 2/4 available (stopped at target)")
}

func TestStatusLabelUnknownOnError(t *testing.T) {
	result := core.AvailabilityResult{Domain: "x.com", Available: false, Error: "dns servfail"}
	require.Equal(t, "unknown", statusLabel(result))

	result.Error = ""
	require.Equal(t, "taken", statusLabel(result))
}
