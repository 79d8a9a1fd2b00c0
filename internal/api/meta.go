package api

import (
	"encoding/json"
	"sort"

	"github.com/example/boardcalc/internal/table"
)

// ViewMeta summarises a view's structure for tooling integration.
type ViewMeta struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Columns []ColumnMeta `json:"columns"`
	Groups  []GroupMeta  `json:"groups"`
	// DuplicateCells counts cells that repeat a column id within a row.
	DuplicateCells int `json:"duplicateCells"`
}

// ColumnMeta describes a column definition.
type ColumnMeta struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Statuses []string `json:"statuses,omitempty"`
	// Formulas lists the distinct formula sources stored in the column.
	Formulas []string `json:"formulas,omitempty"`
}

// GroupMeta captures group-level counts.
type GroupMeta struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	RowCount int    `json:"rowCount"`
}

// ViewMeta loads a view and describes it.
func (s *Service) ViewMeta(viewID string) (ViewMeta, error) {
	view, err := s.store.Load(viewID)
	if err != nil {
		return ViewMeta{}, classify(err)
	}
	return BuildViewMeta(view), nil
}

// MetadataJSON returns the view metadata encoded as JSON.
func (s *Service) MetadataJSON(viewID string) ([]byte, error) {
	meta, err := s.ViewMeta(viewID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(meta)
}

// BuildViewMeta describes an in-memory view.
func BuildViewMeta(view *table.View) ViewMeta {
	meta := ViewMeta{ID: view.ID, Name: view.Name, Type: string(view.Type)}
	if !view.IsTable() {
		meta.Columns = []ColumnMeta{}
		meta.Groups = []GroupMeta{}
		return meta
	}
	tbl := view.Table

	meta.Columns = make([]ColumnMeta, len(tbl.Columns))
	for i, col := range tbl.Columns {
		cm := ColumnMeta{ID: col.ID, Title: col.Title, Type: string(col.Type)}
		for _, st := range col.Statuses {
			cm.Statuses = append(cm.Statuses, st.Value)
		}
		if col.Type == table.ColumnFormula {
			cm.Formulas = formulaSources(tbl, col.ID)
		}
		meta.Columns[i] = cm
	}

	meta.Groups = make([]GroupMeta, len(tbl.Groups))
	for i, g := range tbl.Groups {
		meta.Groups[i] = GroupMeta{ID: g.ID, Title: g.Title, RowCount: len(g.Rows)}
		for _, row := range g.Rows {
			seen := make(map[string]bool, len(row.Cells))
			for _, c := range row.Cells {
				if c.ColumnID == "" {
					continue
				}
				if seen[c.ColumnID] {
					meta.DuplicateCells++
				}
				seen[c.ColumnID] = true
			}
		}
	}
	return meta
}

func formulaSources(tbl *table.Table, columnID string) []string {
	set := make(map[string]struct{})
	for _, g := range tbl.Groups {
		for i := range g.Rows {
			c := g.Rows[i].CellByColumnID(columnID)
			if c == nil {
				continue
			}
			if src, ok := c.Value.FormulaSource(); ok && src != "" {
				set[src] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for src := range set {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
