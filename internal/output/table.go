package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatReport renders an availability report as a table.
func (f *TableFormatter) FormatReport(report *Report) (string, error) {
	if report == nil || len(report.Results) == 0 {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Domain", "Status", "Source", "Notes"})

	for _, r := range report.Results {
		t.AppendRow(table.Row{
			r.Domain,
			statusLabel(r),
			sourceLabel(r),
			formatNotes(r),
		})
	}

	t.AppendFooter(table.Row{
		"",
		summaryLine(report),
		"",
		"",
	})

	return t.Render(), nil
}
