package stats

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// modeColumn is one column of the per-mode report table.
type modeColumn struct {
	title string
	right bool
	cell  func(ModeSummary) string
}

// modeColumns lists the report columns; trial times are smoothed over curveWindow.
func modeColumns(curveWindow int) []modeColumn {
	return []modeColumn{
		{title: "Mode", cell: func(m ModeSummary) string { return string(m.Mode) }},
		{title: "Trials", right: true, cell: func(m ModeSummary) string { return fmt.Sprintf("%d", m.Trials) }},
		{title: "Mean (s)", right: true, cell: func(m ModeSummary) string { return fmt.Sprintf("%.2f", m.MeanTime().Seconds()) }},
		{title: "WPM", right: true, cell: func(m ModeSummary) string { return fmt.Sprintf("%.1f", m.WPM) }},
		{title: "Test WPM", right: true, cell: func(m ModeSummary) string { return fmt.Sprintf("%.1f", m.TestWPM) }},
		{title: "Predictions", right: true, cell: func(m ModeSummary) string { return fmt.Sprintf("%d", m.Predictions) }},
		{title: "Trial times", cell: func(m ModeSummary) string { return Sparkline(MovingAverage(m.TrialTimes, curveWindow)) }},
	}
}

// modeTable lays out a header and one row per mode. Widths are terminal cells,
// columns are separated by two spaces and the last column is never padded.
func modeTable(modes []ModeSummary, cols []modeColumn) []string {
	if len(cols) == 0 {
		return nil
	}
	grid := make([][]string, 0, len(modes)+1)
	widths := make([]int, len(cols))
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
		widths[i] = runewidth.StringWidth(c.title)
	}
	grid = append(grid, header)
	for _, m := range modes {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.cell(m)
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
		grid = append(grid, row)
	}

	lines := make([]string, 0, len(grid))
	last := len(cols) - 1
	for _, row := range grid {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			switch {
			case cols[i].right:
				b.WriteString(runewidth.FillLeft(cell, widths[i]))
			case i == last:
				b.WriteString(cell)
			default:
				b.WriteString(runewidth.FillRight(cell, widths[i]))
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}
