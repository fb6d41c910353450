package output

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// Colors shared by git-meta output.
var (
	Success = lipgloss.Color("82")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("214")
	Muted   = lipgloss.Color("240")
)

var (
	// SuccessStyle applies the success color
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)

	// ErrorStyle applies the error color with bold
	ErrorStyle = lipgloss.NewStyle().Foreground(Error).Bold(true)

	// WarningStyle applies the warning color
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)

	// MutedStyle applies the muted color
	MutedStyle = lipgloss.NewStyle().Foreground(Muted)

	// HeadingStyle applies bold formatting
	HeadingStyle = lipgloss.NewStyle().Bold(true)
)

// RenderTable creates a formatted table with proper column alignment.
// No borders are rendered. Returns "" when there are no rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var out strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	out.WriteString(t.String())
	out.WriteString("\n")

	return out.String()
}
