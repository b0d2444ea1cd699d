package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders reports as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a diagnostic report as a table.
func (f *TableFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// The footer carries the aggregate status, which must render verbatim
	// (the default style would uppercase "degraded" to "DEGRADED").
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})

	for _, c := range report.Checks {
		t.AppendRow(table.Row{c.Name, statusLabel(c.Status), c.Detail})
	}

	t.AppendFooter(table.Row{
		"",
		report.Summary(),
		fmt.Sprintf("%s %s", report.Service, report.Version),
	})

	return t.Render(), nil
}

func statusLabel(status CheckStatus) string {
	switch status {
	case StatusPass:
		return "✅ pass"
	case StatusWarn:
		return "⚠️  warn"
	case StatusFail:
		return "❌ fail"
	case StatusSkip:
		return "⏭  skip"
	default:
		return string(status)
	}
}
