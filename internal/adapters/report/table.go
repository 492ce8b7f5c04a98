package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/okian/attendance/internal/domain/attendance"
)

var (
	safeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// statusColumn is the index of the Status column in Header.
const statusColumn = 4

// rightAligned marks the numeric columns.
var rightAligned = map[int]bool{1: true, 2: true, 3: true, 5: true, 6: true} //nolint:gochecknoglobals // fixed layout

// TableOptions controls WriteTable.
type TableOptions struct {
	// Color renders the status column in colour.
	Color bool
}

// WriteTable writes ev as an aligned text table followed by the threshold line.
func WriteTable(w io.Writer, ev attendance.Evaluation, opts TableOptions) error {
	rows := make([][]string, 0, len(ev.Subjects)+1)
	statuses := make([]attendance.Status, 0, len(ev.Subjects)+1)
	for _, s := range ev.Subjects {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Present),
			strconv.Itoa(s.Total),
			formatPercent(s.Percentage),
			string(s.Status),
			countText(s.ClassesNeeded),
			countText(s.CanSkip),
		})
		statuses = append(statuses, s.Status)
	}
	a := ev.Aggregate
	rows = append(rows, []string{
		overallLabel,
		strconv.Itoa(a.TotalPresent),
		strconv.Itoa(a.TotalLectures),
		formatPercent(a.Percentage),
		string(a.Status),
		countText(a.ClassesNeeded),
		countText(a.CanSkip),
	})
	statuses = append(statuses, a.Status)

	widths := columnWidths(Header, rows)
	lines := make([]string, 0, len(rows)+3)
	lines = append(lines, formatRow(Header, widths, nil, opts))
	lines = append(lines, separator(widths))
	for i, row := range rows {
		if i == len(rows)-1 {
			lines = append(lines, separator(widths))
		}
		st := statuses[i]
		lines = append(lines, formatRow(row, widths, &st, opts))
	}
	threshold := fmt.Sprintf("%s: %d%%", thresholdLabel, ev.Threshold)
	if opts.Color {
		threshold = mutedStyle.Render(threshold)
	}
	lines = append(lines, "", threshold)

	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// formatRow pads before styling so escape sequences do not skew the widths.
func formatRow(row []string, widths []int, status *attendance.Status, opts TableOptions) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		padded := padCell(cell, width, rightAligned[i])
		if i == len(widths)-1 {
			padded = strings.TrimRight(padded, " ")
		}
		if opts.Color && status != nil && i == statusColumn {
			padded = styleFor(*status).Render(padded)
		}
		b.WriteString(padded)
	}
	return b.String()
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := runewidth.StringWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := strings.Repeat(" ", width-valueWidth)
	if rightAlign {
		return padding + value
	}
	return value + padding
}

func separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "  ")
}

func styleFor(s attendance.Status) lipgloss.Style {
	if s == attendance.StatusDanger {
		return dangerStyle
	}
	return safeStyle
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

func countText(c *attendance.Count) string {
	if c == nil {
		return "-"
	}
	return c.String()
}
