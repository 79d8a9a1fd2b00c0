// Package export converts table views to and from XLSX workbooks. Each
// group becomes one worksheet whose first row holds the column titles;
// formula cells are written as their display values.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/boardcalc/internal/table"
	"github.com/example/boardcalc/internal/value"
)

const (
	maxSheetName = 31
	// pixelsPerChar converts stored column widths into spreadsheet units.
	pixelsPerChar = 7.0
)

// WriteView writes view as an XLSX workbook to w.
func WriteView(w io.Writer, view *table.View) error {
	if !view.IsTable() {
		return fmt.Errorf("export: view %s has no table", view.ID)
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	tbl := view.Table
	groups := tbl.Groups
	if len(groups) == 0 {
		groups = []table.Group{{Title: view.Name}}
	}
	used := make(map[string]bool)
	defaultSheet := f.GetSheetName(0)
	for i, group := range groups {
		name := sheetName(group.Title, i, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export: add sheet %q: %w", name, err)
		}
		if err := writeGroup(f, name, tbl, &group, headerStyle); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeGroup(f *excelize.File, sheet string, tbl *table.Table, group *table.Group, headerStyle int) error {
	for ci, col := range tbl.Columns {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.Title); err != nil {
			return fmt.Errorf("export: header %s: %w", cell, err)
		}
		if col.Width > 0 {
			letter, err := excelize.ColumnNumberToName(ci + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, letter, letter, float64(col.Width)/pixelsPerChar); err != nil {
				return fmt.Errorf("export: width of %s: %w", letter, err)
			}
		}
	}
	if len(tbl.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(tbl.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("export: header style: %w", err)
		}
	}

	for ri := range group.Rows {
		row := &group.Rows[ri]
		for ci := range tbl.Columns {
			col := &tbl.Columns[ci]
			c := row.CellByColumnID(col.ID)
			if c == nil {
				continue
			}
			v := col.Scalar(c.Value)
			if v.String() == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cellContent(v)); err != nil {
				return fmt.Errorf("export: cell %s: %w", name, err)
			}
		}
	}
	return nil
}

// cellContent writes numbers, and text that is exactly a number, as
// numeric cells so spreadsheets can total them; everything else is text.
func cellContent(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNumber:
		return v.Decimal().InexactFloat64()
	case value.KindText, value.KindFormula:
		if value.IsPlainNumber(v.String()) {
			if d, ok := v.ToNumber(); ok {
				return d.InexactFloat64()
			}
		}
	}
	return v.String()
}

// sheetName derives a legal, unique worksheet name from a group title.
func sheetName(title string, index int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Group " + strconv.Itoa(index+1)
	}
	name = truncate(name, maxSheetName)
	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// ReadView builds a table view named name from an XLSX workbook. The first
// worksheet's header row defines the columns: the first becomes the item
// column and the rest text columns. Every worksheet becomes a group whose
// rows are matched to columns by position.
func ReadView(r io.Reader, name string, now time.Time) (*table.View, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export: workbook has no sheets")
	}
	first, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("export: read sheet %q: %w", sheets[0], err)
	}
	if len(first) == 0 || len(first[0]) == 0 {
		return nil, fmt.Errorf("export: sheet %q has no header row", sheets[0])
	}

	tbl := &table.Table{}
	for i, header := range first[0] {
		header = strings.TrimSpace(header)
		if header == "" {
			header = "Column " + strconv.Itoa(i+1)
		}
		typ := table.ColumnText
		if i == 0 {
			typ = table.ColumnItem
		}
		if _, err := tbl.AddColumn(typ, header, now); err != nil {
			return nil, fmt.Errorf("export: column %q: %w", header, err)
		}
	}

	for si, sheet := range sheets {
		rows := first
		if si > 0 {
			if rows, err = f.GetRows(sheet); err != nil {
				return nil, fmt.Errorf("export: read sheet %q: %w", sheet, err)
			}
		}
		group := tbl.AddGroup(sheet)
		for _, record := range dataRows(rows) {
			row := table.Row{ID: table.NewID(), Cells: make([]table.Cell, 0, len(tbl.Columns))}
			for ci, col := range tbl.Columns {
				text := ""
				if ci < len(record) {
					text = record[ci]
				}
				if ci == 0 {
					row.Title = text
				}
				row.Cells = append(row.Cells, table.Cell{ID: table.NewID(), ColumnID: col.ID, Value: table.TextValue(text)})
			}
			group.Rows = append(group.Rows, row)
		}
	}

	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return &table.View{
		ID:        table.NewID(),
		Name:      name,
		Type:      table.ViewTable,
		Table:     tbl,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}, nil
}

// dataRows drops the header row and rows with no content.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, record := range rows[1:] {
		blank := true
		for _, v := range record {
			if strings.TrimSpace(v) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, record)
		}
	}
	return out
}
