package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for CLI output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Table renders rows of string cells under a header row, with box
// drawing borders.
type Table struct {
	Styles  Styles
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the default theme.
func NewTable(headers ...string) *Table {
	return &Table{Styles: NewStyles(DefaultTheme), Headers: headers}
}

// AddRow appends one row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render returns the table as a string.
func (t *Table) Render() string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	widths := make([]int, cols)
	for i := 0; i < cols; i++ {
		widths[i] = lipgloss.Width(t.Styles.Header.Render(cell(t.Headers, i)))
		for _, row := range t.Rows {
			if w := lipgloss.Width(t.Styles.Cell.Render(cell(row, i))); w > widths[i] {
				widths[i] = w
			}
		}
	}

	bc := t.Styles.Border
	rule := func(left, mid, right string) string {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w)
		}
		return bc.Render(left + strings.Join(parts, mid) + right)
	}
	line := func(row []string, style lipgloss.Style) string {
		parts := make([]string, cols)
		for i := 0; i < cols; i++ {
			s := style.Render(cell(row, i))
			parts[i] = s + strings.Repeat(" ", widths[i]-lipgloss.Width(s))
		}
		sep := bc.Render("│")
		return sep + strings.Join(parts, sep) + sep
	}

	var lines []string
	lines = append(lines, rule("╭", "┬", "╮"))
	lines = append(lines, line(t.Headers, t.Styles.Header))
	lines = append(lines, rule("├", "┼", "┤"))
	for _, row := range t.Rows {
		lines = append(lines, line(row, t.Styles.Cell))
	}
	lines = append(lines, rule("╰", "┴", "╯"))
	return strings.Join(lines, "\n")
}
