package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatReport renders an availability report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *Report) (string, error) {
	if report == nil || len(report.Results) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Domain availability\n\n")
	sb.WriteString("| Domain | Status | Source | Notes |\n")
	sb.WriteString("|--------|--------|--------|-------|\n")

	for _, r := range report.Results {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.Domain),
			escapeMarkdownCell(statusLabel(r)),
			escapeMarkdownCell(sourceLabel(r)),
			escapeMarkdownCell(formatNotes(r)),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", summaryLine(report)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
