// Package report renders attendance evaluations for people: an XLSX workbook
// for download and an aligned text table for terminals.
package report

import (
	"fmt"
	"io"

	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the evaluation.
const SheetName = "Attendance"

// ContentTypeXLSX is the media type of WriteXLSX output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the column layout shared by both renderers.
var Header = []string{"Subject", "Present", "Total", "Percentage", "Status", "Classes needed", "Can skip"} //nolint:gochecknoglobals // fixed layout

const (
	overallLabel   = "Overall"
	thresholdLabel = "Threshold"
	dangerFill     = "FFC7CE"
	safeFill       = "C6EFCE"
)

// WriteXLSX writes ev as a single-sheet workbook.
func WriteXLSX(w io.Writer, ev attendance.Evaluation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := setRow(f, 1, header, styles.bold); err != nil {
		return err
	}

	row := 2
	for _, s := range ev.Subjects {
		cells := []interface{}{s.Name, s.Present, s.Total, s.Percentage, string(s.Status), countCell(s.ClassesNeeded), countCell(s.CanSkip)}
		if err := setRow(f, row, cells, styles.forStatus(s.Status)); err != nil {
			return err
		}
		row++
	}

	a := ev.Aggregate
	overall := []interface{}{overallLabel, a.TotalPresent, a.TotalLectures, a.Percentage, string(a.Status), countCell(a.ClassesNeeded), countCell(a.CanSkip)}
	if err := setRow(f, row, overall, styles.boldFor(a.Status)); err != nil {
		return err
	}

	if err := setRow(f, row+2, []interface{}{thresholdLabel, ev.Threshold}, styles.bold); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.SetColWidth(SheetName, "B", "G", 14); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

type styles struct {
	bold, danger, safe, boldDanger, boldSafe int
}

func (s styles) forStatus(st attendance.Status) int {
	if st == attendance.StatusDanger {
		return s.danger
	}
	return s.safe
}

func (s styles) boldFor(st attendance.Status) int {
	if st == attendance.StatusDanger {
		return s.boldDanger
	}
	return s.boldSafe
}

func newStyles(f *excelize.File) (styles, error) {
	var out styles
	defs := []struct {
		dst  *int
		bold bool
		fill string
	}{
		{&out.bold, true, ""},
		{&out.danger, false, dangerFill},
		{&out.safe, false, safeFill},
		{&out.boldDanger, true, dangerFill},
		{&out.boldSafe, true, safeFill},
	}
	for _, d := range defs {
		st := &excelize.Style{Font: &excelize.Font{Bold: d.bold}}
		if d.fill != "" {
			st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{d.fill}}
		}
		id, err := f.NewStyle(st)
		if err != nil {
			return styles{}, fmt.Errorf("%w: %w", ErrRender, err)
		}
		*d.dst = id
	}
	return out, nil
}

func setRow(f *excelize.File, row int, cells []interface{}, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	last, err := excelize.CoordinatesToCellName(len(cells), row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.SetSheetRow(SheetName, first, &cells); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.SetCellStyle(SheetName, first, last, style); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// countCell keeps finite counts numeric so spreadsheets can sum them.
func countCell(c *attendance.Count) interface{} {
	if c == nil {
		return ""
	}
	if n, ok := c.Value(); ok {
		return n
	}
	return c.String()
}
