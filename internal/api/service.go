// Package api is the request-level façade over the store, the formula
// evaluator and the propagation service. It validates requests, runs each
// change as one load-mutate-save cycle and classifies failures.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/example/boardcalc/internal/formula"
	"github.com/example/boardcalc/internal/propagate"
	"github.com/example/boardcalc/internal/store"
	"github.com/example/boardcalc/internal/table"
	"github.com/example/boardcalc/internal/value"
)

// ErrorKind classifies request failures.
type ErrorKind int

const (
	BadRequest ErrorKind = iota
	NotFound
)

func (k ErrorKind) String() string {
	if k == NotFound {
		return "not found"
	}
	return "bad request"
}

// RequestError is returned for requests that cannot be served as given.
type RequestError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *RequestError) Error() string {
	return "api: " + e.Msg
}

func (e *RequestError) Unwrap() error { return e.Err }

func badRequest(format string, args ...interface{}) error {
	return &RequestError{Kind: BadRequest, Msg: fmt.Sprintf(format, args...)}
}

// classify maps domain errors onto request errors and leaves storage
// failures untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrViewNotFound):
		return &RequestError{Kind: NotFound, Msg: "View not found", Err: err}
	case errors.Is(err, propagate.ErrGroupNotFound), errors.Is(err, table.ErrGroupNotFound):
		return &RequestError{Kind: NotFound, Msg: "Group not found", Err: err}
	case errors.Is(err, propagate.ErrColumnNotFound), errors.Is(err, table.ErrColumnNotFound):
		return &RequestError{Kind: NotFound, Msg: "Column not found", Err: err}
	case errors.Is(err, table.ErrRowNotFound):
		return &RequestError{Kind: NotFound, Msg: "Row not found", Err: err}
	case errors.Is(err, propagate.ErrScopeRequired):
		return &RequestError{Kind: BadRequest, Msg: "Either groupId or applyToAllGroups must be provided", Err: err}
	case errors.Is(err, propagate.ErrNotTableView):
		return &RequestError{Kind: BadRequest, Msg: "View is not a table view", Err: err}
	case errors.Is(err, table.ErrBlankTitle):
		return &RequestError{Kind: BadRequest, Msg: "Title must not be blank", Err: err}
	case errors.Is(err, table.ErrUnknownColumnType):
		return &RequestError{Kind: BadRequest, Msg: err.Error(), Err: err}
	case errors.Is(err, store.ErrInvalidID):
		return &RequestError{Kind: BadRequest, Msg: "Invalid view id", Err: err}
	default:
		return err
	}
}

// Service serves formula and table requests against a store.
type Service struct {
	store  *store.Store
	eval   *formula.Evaluator
	prop   *propagate.Service
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEvaluator replaces the default evaluator.
func WithEvaluator(e *formula.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.eval = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time used for new date cells.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Service backed by st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		eval:   formula.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.prop = propagate.New(s.eval, s.logger)
	return s
}

// Evaluate resolves one formula against plain string cell data.
func (s *Service) Evaluate(formula string, data map[string]string) string {
	values := make(map[string]value.Value, len(data))
	for k, v := range data {
		values[k] = value.Text(v)
	}
	return s.eval.Evaluate(formula, values)
}

// ApplyRequest asks for a formula to be written into one column across one
// group or all groups of a view.
type ApplyRequest struct {
	ViewID           string `json:"viewId"`
	GroupID          string `json:"groupId,omitempty"`
	ColumnID         string `json:"columnId"`
	Formula          string `json:"formula"`
	ApplyToAllGroups bool   `json:"applyToAllGroups,omitempty"`
}

// ApplyResponse carries the saved view and what changed.
type ApplyResponse struct {
	View  *table.View     `json:"view"`
	Stats propagate.Stats `json:"stats"`
}

// ApplyFormulaToAll propagates a formula and saves the view in one step.
func (s *Service) ApplyFormulaToAll(ctx context.Context, req ApplyRequest) (ApplyResponse, error) {
	switch {
	case strings.TrimSpace(req.ViewID) == "":
		return ApplyResponse{}, badRequest("viewId is required")
	case strings.TrimSpace(req.ColumnID) == "":
		return ApplyResponse{}, badRequest("columnId is required")
	case !req.ApplyToAllGroups && req.GroupID == "":
		return ApplyResponse{}, classify(propagate.ErrScopeRequired)
	}

	var stats propagate.Stats
	view, err := s.store.Update(ctx, req.ViewID, func(v *table.View) (*table.View, error) {
		out, st, err := s.prop.ApplyFormula(v, propagate.Request{
			ColumnID:  req.ColumnID,
			Formula:   req.Formula,
			GroupID:   req.GroupID,
			AllGroups: req.ApplyToAllGroups,
		})
		stats = st
		return out, err
	})
	if err != nil {
		return ApplyResponse{}, classify(err)
	}
	return ApplyResponse{View: view, Stats: stats}, nil
}

// CleanupRequest selects one view, or every view when ViewID is empty.
type CleanupRequest struct {
	ViewID string `json:"viewId,omitempty"`
}

// CleanupSummary reports a duplicate-cell cleanup.
type CleanupSummary struct {
	Message string                 `json:"message"`
	Stats   propagate.CleanupStats `json:"stats"`
}

// CleanupDuplicateCells removes duplicate cells and saves only the views
// that changed.
func (s *Service) CleanupDuplicateCells(ctx context.Context, req CleanupRequest) (CleanupSummary, error) {
	ids := []string{req.ViewID}
	if req.ViewID == "" {
		all, err := s.store.List()
		if err != nil {
			return CleanupSummary{}, err
		}
		ids = all
	}

	var total propagate.CleanupStats
	for _, id := range ids {
		_, err := s.store.Update(ctx, id, func(v *table.View) (*table.View, error) {
			st := s.prop.CleanupDuplicateCells(v)
			total.ViewsProcessed += st.ViewsProcessed
			total.GroupsProcessed += st.GroupsProcessed
			total.RowsProcessed += st.RowsProcessed
			total.DuplicatesRemoved += st.DuplicatesRemoved
			if len(st.ModifiedViews) == 0 {
				return nil, nil
			}
			total.ModifiedViews = append(total.ModifiedViews, st.ModifiedViews...)
			return v, nil
		})
		if err != nil {
			return CleanupSummary{}, classify(err)
		}
	}
	return CleanupSummary{Message: "Cleanup completed", Stats: total}, nil
}

// ResyncView re-evaluates every formula cell of a view and saves it when a
// display value changed.
func (s *Service) ResyncView(ctx context.Context, viewID string) (*table.View, propagate.ResyncStats, error) {
	var stats propagate.ResyncStats
	view, err := s.store.Update(ctx, viewID, func(v *table.View) (*table.View, error) {
		if !v.IsTable() {
			return nil, propagate.ErrNotTableView
		}
		stats = s.prop.ProcessViewFormulas(v)
		if stats.Updated == 0 {
			return nil, nil
		}
		return v, nil
	})
	if err != nil {
		return nil, stats, classify(err)
	}
	return view, stats, nil
}

// CreateTableView scaffolds and stores a new table view.
func (s *Service) CreateTableView(ctx context.Context, name string) (*table.View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("view name is required")
	}
	view := table.NewTableView(name, s.now())
	if err := s.store.Create(ctx, view); err != nil {
		return nil, classify(err)
	}
	return view, nil
}

// ImportView stores a view built elsewhere, such as from a spreadsheet.
func (s *Service) ImportView(ctx context.Context, view *table.View) error {
	if !view.IsTable() {
		return classify(propagate.ErrNotTableView)
	}
	s.prop.CleanupDuplicateCells(view)
	s.prop.ProcessViewFormulas(view)
	return classify(s.store.Create(ctx, view))
}

// LoadView returns one stored view.
func (s *Service) LoadView(viewID string) (*table.View, error) {
	view, err := s.store.Load(viewID)
	return view, classify(err)
}

// ListViews loads every stored view in id order.
func (s *Service) ListViews() ([]*table.View, error) {
	ids, err := s.store.List()
	if err != nil {
		return nil, err
	}
	views := make([]*table.View, 0, len(ids))
	for _, id := range ids {
		view, err := s.store.Load(id)
		if err != nil {
			return nil, classify(err)
		}
		views = append(views, view)
	}
	return views, nil
}

// DeleteView removes a stored view.
func (s *Service) DeleteView(ctx context.Context, viewID string) error {
	return classify(s.store.Delete(ctx, viewID))
}

// editTable runs fn against the table of a stored view and saves it.
func (s *Service) editTable(ctx context.Context, viewID string, fn func(*table.Table) error) error {
	_, err := s.store.Update(ctx, viewID, func(v *table.View) (*table.View, error) {
		if !v.IsTable() {
			return nil, propagate.ErrNotTableView
		}
		if err := fn(v.Table); err != nil {
			return nil, err
		}
		return v, nil
	})
	return classify(err)
}

// AddColumn appends a column and a default cell for it in every row.
func (s *Service) AddColumn(ctx context.Context, viewID string, typ table.ColumnType, title string) (table.Column, error) {
	var added table.Column
	err := s.editTable(ctx, viewID, func(t *table.Table) error {
		col, err := t.AddColumn(typ, title, s.now())
		if err != nil {
			return err
		}
		added = *col
		return nil
	})
	return added, err
}

// DeleteColumn removes a column and its cells.
func (s *Service) DeleteColumn(ctx context.Context, viewID, columnID string) error {
	return s.editTable(ctx, viewID, func(t *table.Table) error {
		return t.DeleteColumn(columnID)
	})
}

// AddRow appends a row with default cells to a group.
func (s *Service) AddRow(ctx context.Context, viewID, groupID, title string) (table.Row, error) {
	var added table.Row
	err := s.editTable(ctx, viewID, func(t *table.Table) error {
		g := t.GroupByID(groupID)
		if g == nil {
			return fmt.Errorf("%w: %s", table.ErrGroupNotFound, groupID)
		}
		added = *g.AddRow(t.Columns, title, s.now())
		return nil
	})
	return added, err
}

// UpdateCell stores a value in one cell, creating the cell when the row has
// none for the column, then resyncs the view's formula cells so that
// display values follow the edit.
func (s *Service) UpdateCell(ctx context.Context, viewID, groupID, rowID, columnID string, v table.CellValue) (*table.View, error) {
	view, err := s.store.Update(ctx, viewID, func(view *table.View) (*table.View, error) {
		if !view.IsTable() {
			return nil, propagate.ErrNotTableView
		}
		tbl := view.Table
		if tbl.ColumnByID(columnID) == nil {
			return nil, fmt.Errorf("%w: %s", table.ErrColumnNotFound, columnID)
		}
		g := tbl.GroupByID(groupID)
		if g == nil {
			return nil, fmt.Errorf("%w: %s", table.ErrGroupNotFound, groupID)
		}
		row := g.RowByID(rowID)
		if row == nil {
			return nil, fmt.Errorf("%w: %s", table.ErrRowNotFound, rowID)
		}
		if c := row.CellByColumnID(columnID); c != nil {
			c.Value = v
		} else {
			row.Cells = append(row.Cells, table.Cell{ID: table.NewID(), ColumnID: columnID, Value: v})
		}
		s.prop.ProcessViewFormulas(view)
		return view, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return view, nil
}

// DeleteRow removes a row from a group.
func (s *Service) DeleteRow(ctx context.Context, viewID, groupID, rowID string) error {
	return s.editTable(ctx, viewID, func(t *table.Table) error {
		g := t.GroupByID(groupID)
		if g == nil {
			return fmt.Errorf("%w: %s", table.ErrGroupNotFound, groupID)
		}
		return g.DeleteRow(rowID)
	})
}

// RenameColumn retitles a column and resyncs formula cells, so references
// to the old title now report a missing value.
func (s *Service) RenameColumn(ctx context.Context, viewID, columnID, title string) (*table.View, error) {
	view, err := s.store.Update(ctx, viewID, func(view *table.View) (*table.View, error) {
		if !view.IsTable() {
			return nil, propagate.ErrNotTableView
		}
		if err := view.Table.RenameColumn(columnID, title); err != nil {
			return nil, err
		}
		s.prop.ProcessViewFormulas(view)
		return view, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return view, nil
}

// CreateGroup appends an empty group to the table.
func (s *Service) CreateGroup(ctx context.Context, viewID string) (table.Group, error) {
	var created table.Group
	err := s.editTable(ctx, viewID, func(t *table.Table) error {
		created = *t.CreateGroup()
		return nil
	})
	return created, err
}

// RenameGroup retitles a group.
func (s *Service) RenameGroup(ctx context.Context, viewID, groupID, title string) error {
	return s.editTable(ctx, viewID, func(t *table.Table) error {
		return t.RenameGroup(groupID, title)
	})
}

// DeleteGroup removes a group with its rows.
func (s *Service) DeleteGroup(ctx context.Context, viewID, groupID string) error {
	return s.editTable(ctx, viewID, func(t *table.Table) error {
		return t.DeleteGroup(groupID)
	})
}

// DuplicateGroup appends a copy of a group.
func (s *Service) DuplicateGroup(ctx context.Context, viewID, groupID string) (table.Group, error) {
	var dup table.Group
	err := s.editTable(ctx, viewID, func(t *table.Table) error {
		g, err := t.DuplicateGroup(groupID)
		if err != nil {
			return err
		}
		dup = *g
		return nil
	})
	return dup, err
}

// DuplicateRow inserts a copy of a row right after it.
func (s *Service) DuplicateRow(ctx context.Context, viewID, groupID, rowID string) (table.Row, error) {
	var dup table.Row
	err := s.editTable(ctx, viewID, func(t *table.Table) error {
		g := t.GroupByID(groupID)
		if g == nil {
			return fmt.Errorf("%w: %s", table.ErrGroupNotFound, groupID)
		}
		r, err := g.DuplicateRow(rowID)
		if err != nil {
			return err
		}
		dup = *r
		return nil
	})
	return dup, err
}
