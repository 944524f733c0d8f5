// Package termview renders report aggregations for the terminal.
package termview

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pbaille/timecsv/internal/report"
)

var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	labelStyle  = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Table renders the aggregation as a bordered grid with a total column and
// a total row. Dates are shown as day-of-month to keep columns narrow.
func Table(a *report.Aggregation) string {
	headers := make([]string, 0, len(a.Dates)+2)
	headers = append(headers, "Description")
	for _, d := range a.Dates {
		headers = append(headers, dayLabel(d))
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(a.Descriptions)+1)
	for _, desc := range a.Descriptions {
		row := make([]string, 0, len(headers))
		row = append(row, desc)
		for _, d := range a.Dates {
			row = append(row, report.FormatHours(a.Hours(desc, d)))
		}
		row = append(row, formatTotal(a.DescriptionTotal(desc)))
		rows = append(rows, row)
	}

	totals := make([]string, 0, len(headers))
	totals = append(totals, "Total")
	for _, d := range a.Dates {
		totals = append(totals, report.FormatHours(a.DateTotal(d)))
	}
	totals = append(totals, formatTotal(a.Total()))
	rows = append(rows, totals)

	lastRow := len(rows) - 1
	lastCol := len(headers) - 1

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == lastRow || col == lastCol:
				if col == 0 {
					return totalStyle.Align(lipgloss.Left)
				}
				return totalStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}

// dayLabel turns "2024-01-05" into "05"
func dayLabel(date string) string {
	if len(date) == len(report.DateLayout) {
		return date[8:]
	}
	return date
}

func formatTotal(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
