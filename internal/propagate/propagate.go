// Package propagate applies formulas across the rows of a table view and
// keeps formula cells and per-row cell sets consistent.
package propagate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tiendc/go-deepcopy"

	"github.com/example/boardcalc/internal/formula"
	"github.com/example/boardcalc/internal/table"
)

var (
	ErrGroupNotFound  = errors.New("propagate: group not found")
	ErrColumnNotFound = errors.New("propagate: column not found")
	ErrScopeRequired  = errors.New("propagate: either a group id or all groups must be given")
	ErrNotTableView   = errors.New("propagate: view has no table")
)

// Request selects the formula, its target column and the groups it covers.
type Request struct {
	ColumnID  string
	Formula   string
	GroupID   string
	AllGroups bool
}

// Stats counts what one ApplyFormula call changed.
type Stats struct {
	GroupsProcessed int `json:"groupsProcessed"`
	RowsProcessed   int `json:"rowsProcessed"`
	CellsAdded      int `json:"cellsAdded"`
	CellsUpdated    int `json:"cellsUpdated"`
	CellsRemoved    int `json:"cellsRemoved"`
}

// ResyncStats counts the formula cells visited and rewritten by a resync.
type ResyncStats struct {
	FormulaCells int `json:"formulaCells"`
	Updated      int `json:"updated"`
}

// CleanupStats summarises a duplicate-cell cleanup.
type CleanupStats struct {
	ViewsProcessed    int      `json:"viewsProcessed"`
	GroupsProcessed   int      `json:"groupsProcessed"`
	RowsProcessed     int      `json:"rowsProcessed"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	ModifiedViews     []string `json:"modifiedViews,omitempty"`
}

// Service runs propagation with a shared evaluator.
type Service struct {
	eval   *formula.Evaluator
	logger *slog.Logger
}

// New returns a Service. A nil evaluator selects formula.New() and a nil
// logger discards output.
func New(eval *formula.Evaluator, logger *slog.Logger) *Service {
	if eval == nil {
		eval = formula.New()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{eval: eval, logger: logger}
}

// ApplyFormula writes req.Formula and its per-row result into the target
// column of every row in scope, then resyncs every formula cell of the view.
// The input view is left untouched; the updated copy is returned.
func (s *Service) ApplyFormula(view *table.View, req Request) (*table.View, Stats, error) {
	var stats Stats
	if !view.IsTable() {
		return nil, stats, ErrNotTableView
	}
	var out table.View
	if err := deepcopy.Copy(&out, *view); err != nil {
		return nil, stats, fmt.Errorf("propagate: copy view %s: %w", view.ID, err)
	}
	tbl := out.Table

	groups, err := scope(tbl, req)
	if err != nil {
		return nil, stats, err
	}
	if tbl.ColumnByID(req.ColumnID) == nil {
		return nil, stats, fmt.Errorf("%w: %s", ErrColumnNotFound, req.ColumnID)
	}

	for _, group := range groups {
		stats.GroupsProcessed++
		for ri := range group.Rows {
			row := &group.Rows[ri]
			stats.CellsRemoved += row.Dedupe()

			result := s.eval.Evaluate(req.Formula, tbl.CellDataMap(row))
			s.logger.Debug("formula applied to row", "row", row.ID, "formula", req.Formula, "result", result)

			cellValue := table.FormulaValue(req.Formula, result)
			if idx := row.CellIndex(req.ColumnID); idx >= 0 {
				row.Cells[idx].Value = cellValue
				stats.CellsUpdated++
			} else {
				row.Cells = append(row.Cells, table.Cell{ID: table.NewID(), ColumnID: req.ColumnID, Value: cellValue})
				stats.CellsAdded++
			}
			stats.RowsProcessed++
		}
	}

	s.ProcessViewFormulas(&out)
	s.logger.Info("formula applied",
		"view", out.ID,
		"column", req.ColumnID,
		"groups", stats.GroupsProcessed,
		"rows", stats.RowsProcessed,
		"added", stats.CellsAdded,
		"updated", stats.CellsUpdated,
		"removed", stats.CellsRemoved)
	return &out, stats, nil
}

func scope(tbl *table.Table, req Request) ([]*table.Group, error) {
	switch {
	case req.AllGroups:
		groups := make([]*table.Group, len(tbl.Groups))
		for i := range tbl.Groups {
			groups[i] = &tbl.Groups[i]
		}
		return groups, nil
	case req.GroupID != "":
		g := tbl.GroupByID(req.GroupID)
		if g == nil {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, req.GroupID)
		}
		return []*table.Group{g}, nil
	default:
		return nil, ErrScopeRequired
	}
}

// ProcessViewFormulas re-evaluates every formula cell of the view in place
// and rewrites the display value where it changed. Formula columns are
// visited left to right and later columns see earlier columns' new
// results. Legacy bare-string formula cells are upgraded to the
// {value, displayValue} shape when their result differs from the source.
func (s *Service) ProcessViewFormulas(view *table.View) ResyncStats {
	var stats ResyncStats
	if !view.IsTable() {
		return stats
	}
	tbl := view.Table
	var formulaCols []*table.Column
	for i := range tbl.Columns {
		if tbl.Columns[i].Type == table.ColumnFormula {
			formulaCols = append(formulaCols, &tbl.Columns[i])
		}
	}
	if len(formulaCols) == 0 {
		return stats
	}

	for gi := range tbl.Groups {
		for ri := range tbl.Groups[gi].Rows {
			row := &tbl.Groups[gi].Rows[ri]
			data := tbl.CellDataMap(row)
			for _, col := range formulaCols {
				cell := row.CellByColumnID(col.ID)
				if cell == nil {
					continue
				}
				src, ok := cell.Value.FormulaSource()
				if !ok || src == "" {
					continue
				}
				stats.FormulaCells++
				result := s.eval.Evaluate(src, data)

				var changed bool
				switch cell.Value.Kind {
				case table.CellFormula:
					changed = cell.Value.Formula.DisplayValue != result
				default:
					changed = result != src
				}
				if !changed {
					continue
				}
				cell.Value = table.FormulaValue(src, result)
				stats.Updated++
				s.logger.Debug("formula cell resynced", "row", row.ID, "column", col.ID, "result", result)
				data = tbl.CellDataMap(row)
			}
		}
	}
	return stats
}

// CleanupDuplicateCells removes later cells sharing a column id within a
// row, in place, across the given views.
func (s *Service) CleanupDuplicateCells(views ...*table.View) CleanupStats {
	var stats CleanupStats
	for _, view := range views {
		stats.ViewsProcessed++
		if !view.IsTable() || len(view.Table.Groups) == 0 {
			continue
		}
		modified := false
		for gi := range view.Table.Groups {
			stats.GroupsProcessed++
			group := &view.Table.Groups[gi]
			for ri := range group.Rows {
				stats.RowsProcessed++
				if removed := group.Rows[ri].Dedupe(); removed > 0 {
					stats.DuplicatesRemoved += removed
					modified = true
					s.logger.Debug("duplicate cells removed", "view", view.ID, "row", group.Rows[ri].ID, "count", removed)
				}
			}
		}
		if modified {
			stats.ModifiedViews = append(stats.ModifiedViews, view.ID)
		}
	}
	s.logger.Info("duplicate cleanup finished",
		"views", stats.ViewsProcessed,
		"rows", stats.RowsProcessed,
		"removed", stats.DuplicatesRemoved)
	return stats
}
