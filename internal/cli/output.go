// Package cli formats paperbox results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// FormatFor returns OutputJSON when asJSON is set.
func FormatFor(asJSON bool) OutputFormat {
	if asJSON {
		return OutputJSON
	}
	return OutputText
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// write renders v as JSON, or calls text when format is OutputText.
func write(w io.Writer, format OutputFormat, v interface{}, text func() string) error {
	if format == OutputJSON {
		return WriteJSON(w, v)
	}
	_, err := fmt.Fprintln(w, text())
	return err
}

// newTable returns a bordered table with padded cells. Columns listed in right are right-aligned.
func newTable(headers []string, right ...int) *table.Table {
	align := map[int]bool{}
	for _, c := range right {
		align[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := cellStyle
			if row == table.HeaderRow {
				s = headerStyle
			}
			if align[col] {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}

func titled(title, body string) string {
	return titleStyle.Render(title) + "\n" + body
}

func panel(title, body, footer string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if strings.TrimSpace(body) == "" {
		body = "(empty)"
	}
	b.WriteString(panelStyle.Render(body))
	if footer != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(footer))
	}
	return b.String()
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}
