package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/example/boardcalc/internal/table"
)

func renderView(w io.Writer, view *table.View) error {
	fmt.Fprintf(w, "View %s (%s)\n", view.Name, view.ID)
	if !view.IsTable() {
		fmt.Fprintln(w, "No table")
		return nil
	}
	tbl := view.Table
	header := make([]string, len(tbl.Columns))
	for i, col := range tbl.Columns {
		header[i] = col.Title
	}
	for _, g := range tbl.Groups {
		fmt.Fprintf(w, "\nGroup %s (%d row(s))\n", g.Title, len(g.Rows))
		rows := make([][]string, 0, len(g.Rows))
		for ri := range g.Rows {
			row := &g.Rows[ri]
			cells := make([]string, len(tbl.Columns))
			for ci := range tbl.Columns {
				col := &tbl.Columns[ci]
				if c := row.CellByColumnID(col.ID); c != nil {
					cells[ci] = col.Scalar(c.Value).String()
				}
			}
			rows = append(rows, cells)
		}
		renderGrid(w, header, rows)
	}
	return nil
}

func renderGrid(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	printRow(w, header, widths)
	separator := make([]string, len(widths))
	for i, n := range widths {
		separator[i] = strings.Repeat("-", n)
	}
	printRow(w, separator, widths)
	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = v + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " | "), " "))
}
