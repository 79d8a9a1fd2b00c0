// Package table models table views: typed columns and grouped rows of
// cells, plus the lookups and structural edits the formula engine relies on.
package table

import (
	"github.com/example/boardcalc/internal/value"
)

// ColumnType enumerates the supported column kinds.
type ColumnType string

const (
	ColumnItem    ColumnType = "item"
	ColumnText    ColumnType = "text"
	ColumnPerson  ColumnType = "person"
	ColumnStatus  ColumnType = "status"
	ColumnDate    ColumnType = "date"
	ColumnFormula ColumnType = "formula"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnItem, ColumnText, ColumnPerson, ColumnStatus, ColumnDate, ColumnFormula:
		return true
	default:
		return false
	}
}

// ViewType enumerates the kinds of board views.
type ViewType string

const (
	ViewTable ViewType = "table"
	ViewDoc   ViewType = "doc"
	ViewForm  ViewType = "form"
	ViewFile  ViewType = "file"
)

// Column describes a typed field of a table. Title is the key formulas
// use in {ColumnName} references; Name is a legacy alias.
type Column struct {
	ID       string         `json:"_id"`
	Type     ColumnType     `json:"type"`
	Title    string         `json:"title"`
	Name     string         `json:"name,omitempty"`
	Width    int            `json:"width,omitempty"`
	Statuses []value.Status `json:"statuses,omitempty"`
}

// Cell is the value of one row at one column.
type Cell struct {
	ID       string    `json:"_id,omitempty"`
	ColumnID string    `json:"columnId"`
	Value    CellValue `json:"value"`
}

// Row is one record of a group.
type Row struct {
	ID    string `json:"_id"`
	Title string `json:"title,omitempty"`
	Cells []Cell `json:"cells"`
}

// Group is a named bucket of rows.
type Group struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Table holds the column definitions and grouped rows of a table view.
type Table struct {
	Columns []Column `json:"columns"`
	Groups  []Group  `json:"groups"`
}

// View is a named presentation of a board. Only table views carry a Table.
type View struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Type      ViewType `json:"type"`
	Board     string   `json:"board,omitempty"`
	IsDefault bool     `json:"isDefault"`
	Table     *Table   `json:"table,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// IsTable reports whether the view is a table view with a table attached.
func (v *View) IsTable() bool {
	return v != nil && (v.Type == ViewTable || v.Type == "") && v.Table != nil
}

// ColumnByID returns the column with the given id.
func (t *Table) ColumnByID(id string) *Column {
	for i := range t.Columns {
		if t.Columns[i].ID == id {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnByTitle returns the first column whose title matches exactly.
func (t *Table) ColumnByTitle(title string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Title == title {
			return &t.Columns[i]
		}
	}
	return nil
}

// GroupByID returns the group with the given id.
func (t *Table) GroupByID(id string) *Group {
	for i := range t.Groups {
		if t.Groups[i].ID == id {
			return &t.Groups[i]
		}
	}
	return nil
}

// RowByID returns the row with the given id.
func (g *Group) RowByID(id string) *Row {
	for i := range g.Rows {
		if g.Rows[i].ID == id {
			return &g.Rows[i]
		}
	}
	return nil
}

// CellIndex returns the position of the first cell for columnID, or -1.
func (r *Row) CellIndex(columnID string) int {
	for i := range r.Cells {
		if r.Cells[i].ColumnID == columnID {
			return i
		}
	}
	return -1
}

// CellByColumnID returns the first cell for columnID.
func (r *Row) CellByColumnID(columnID string) *Cell {
	if i := r.CellIndex(columnID); i >= 0 {
		return &r.Cells[i]
	}
	return nil
}

// RemoveCell drops every cell for columnID and reports how many went.
func (r *Row) RemoveCell(columnID string) int {
	kept := r.Cells[:0]
	removed := 0
	for _, cell := range r.Cells {
		if cell.ColumnID == columnID {
			removed++
			continue
		}
		kept = append(kept, cell)
	}
	r.Cells = kept
	return removed
}

// Dedupe keeps the first cell of every column id and returns the number of
// later duplicates removed. Cells without a column id are left in place.
func (r *Row) Dedupe() int {
	seen := make(map[string]struct{}, len(r.Cells))
	kept := r.Cells[:0]
	removed := 0
	for _, cell := range r.Cells {
		if cell.ColumnID != "" {
			if _, dup := seen[cell.ColumnID]; dup {
				removed++
				continue
			}
			seen[cell.ColumnID] = struct{}{}
		}
		kept = append(kept, cell)
	}
	r.Cells = kept
	return removed
}

// RowCount totals the rows of every group.
func (t *Table) RowCount() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g.Rows)
	}
	return n
}
