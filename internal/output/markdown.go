package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders reports as a markdown table.
type MarkdownFormatter struct{}

// FormatReport renders a diagnostic report as markdown.
func (f *MarkdownFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s %s — %s\n\n", report.Service, report.Version, report.Summary())
	b.WriteString("| Check | Status | Detail |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, c := range report.Checks {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Name, c.Status, escapePipes(c.Detail))
	}
	return b.String(), nil
}

func escapePipes(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
