// Package render turns a batch of rows into the markdown preview spec.md
// §6 promises callers of Export, optionally styled for a terminal with
// glamour, grounded on untoldecay-BeadsLog's use of that library.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/accented-ai/spellstore/internal/dataframe"
)

// MarkdownTable renders columns/rows as a GitHub-flavored markdown table.
func MarkdownTable(columns []string, rows [][]any) string {
	var b strings.Builder

	b.WriteString("| ")
	b.WriteString(strings.Join(columns, " | "))
	b.WriteString(" |\n|")
	b.WriteString(strings.Repeat(" --- |", len(columns)))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = dataframe.FormatCell(v)
		}

		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	return b.String()
}

// Pretty renders markdown for terminal display. If glamour can't render
// (e.g. an unrecognized style name), the raw markdown is returned instead
// of failing the whole export.
func Pretty(markdown string) string {
	out, err := glamour.Render(markdown, "notty")
	if err != nil {
		return markdown
	}

	return out
}
