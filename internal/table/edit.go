package table

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/example/boardcalc/internal/value"
)

var (
	ErrColumnNotFound    = errors.New("table: column not found")
	ErrGroupNotFound     = errors.New("table: group not found")
	ErrRowNotFound       = errors.New("table: row not found")
	ErrUnknownColumnType = errors.New("table: unknown column type")
	ErrBlankTitle        = errors.New("table: title is blank")
)

const (
	// DefaultItemTitle names rows created without a title.
	DefaultItemTitle = "New item"
	// DefaultGroupTitle names groups created without a title.
	DefaultGroupTitle = "new Group"
)

// isoLayout matches the timestamps written into date cells.
const isoLayout = "2006-01-02T15:04:05.000Z"

var trailingDigits = regexp.MustCompile(`\d+$`)

// defaultColumns is the scaffolding of a new table view and the template
// for columns added later.
var defaultColumns = []Column{
	{Type: ColumnItem, Title: "Item", Width: 300},
	{Type: ColumnPerson, Title: "Person", Width: 150},
	{Type: ColumnText, Title: "Text", Width: 150},
	{Type: ColumnStatus, Title: "Status", Width: 150, Statuses: []value.Status{
		{Value: "Working on it", Color: "#fdab3d"},
		{Value: "Done", Color: "#00c875"},
		{Value: "Stuck", Color: "#e2445c"},
	}},
	{Type: ColumnDate, Title: "Date", Width: 150},
	{Type: ColumnFormula, Title: "Formula", Width: 150},
}

// NewID returns a fresh identifier for views, columns, groups, rows and cells.
func NewID() string {
	return uuid.NewString()
}

// DefaultValue returns the initial cell value for a column of type typ in a
// row titled title.
func DefaultValue(typ ColumnType, title string, now time.Time) CellValue {
	switch typ {
	case ColumnItem:
		return TextValue(title)
	case ColumnPerson:
		return PeopleValue(nil)
	case ColumnDate:
		return TextValue(now.UTC().Format(isoLayout))
	default:
		return TextValue("")
	}
}

func templateFor(typ ColumnType) (Column, bool) {
	for _, col := range defaultColumns {
		if col.Type == typ {
			col.Statuses = append([]value.Status(nil), col.Statuses...)
			return col, true
		}
	}
	return Column{}, false
}

// NewTableView scaffolds a table view with the default columns and one
// group holding a single row.
func NewTableView(name string, now time.Time) *View {
	tbl := &Table{}
	for _, tmpl := range defaultColumns {
		col := tmpl
		col.ID = NewID()
		col.Statuses = append([]value.Status(nil), tmpl.Statuses...)
		tbl.Columns = append(tbl.Columns, col)
	}
	group := tbl.AddGroup("Group Title")
	group.AddRow(tbl.Columns, DefaultItemTitle, now)

	stamp := now.UTC().Format(isoLayout)
	return &View{
		ID:        NewID(),
		Name:      name,
		Type:      ViewTable,
		Table:     tbl,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}

// AddGroup appends an empty group.
func (t *Table) AddGroup(title string) *Group {
	t.Groups = append(t.Groups, Group{ID: NewID(), Title: title, Rows: []Row{}})
	return &t.Groups[len(t.Groups)-1]
}

// AddColumn appends a column of type typ and gives every existing row a
// default cell for it. An empty title takes the type's default. When the
// title is already used, a numeric suffix one past the highest in use is
// appended: Formula, Formula1, Formula2.
func (t *Table) AddColumn(typ ColumnType, title string, now time.Time) (*Column, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumnType, typ)
	}
	tmpl, ok := templateFor(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumnType, typ)
	}
	if title == "" {
		title = tmpl.Title
	}
	col := tmpl
	col.ID = NewID()
	col.Title = t.uniqueTitle(title)
	t.Columns = append(t.Columns, col)

	for gi := range t.Groups {
		for ri := range t.Groups[gi].Rows {
			row := &t.Groups[gi].Rows[ri]
			row.Cells = append(row.Cells, Cell{
				ID:       NewID(),
				ColumnID: col.ID,
				Value:    DefaultValue(typ, DefaultItemTitle, now),
			})
		}
	}
	return &t.Columns[len(t.Columns)-1], nil
}

func (t *Table) uniqueTitle(title string) string {
	base := trailingDigits.ReplaceAllString(title, "")
	found := false
	highest := 0
	for _, col := range t.Columns {
		switch {
		case col.Title == base:
			found = true
		case strings.HasPrefix(col.Title, base) && trailingDigits.MatchString(col.Title):
			found = true
			n, err := strconv.Atoi(trailingDigits.FindString(col.Title))
			if err == nil && n > highest {
				highest = n
			}
		}
	}
	if !found {
		return title
	}
	return base + strconv.Itoa(highest+1)
}

// RenameColumn retitles a column. Formulas naming the old title stop
// resolving until they are rewritten or resynced against the new one.
func (t *Table) RenameColumn(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrBlankTitle
	}
	col := t.ColumnByID(id)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, id)
	}
	col.Title = title
	return nil
}

// DeleteColumn removes a column and every cell that references it.
func (t *Table) DeleteColumn(id string) error {
	idx := -1
	for i := range t.Columns {
		if t.Columns[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, id)
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	for gi := range t.Groups {
		for ri := range t.Groups[gi].Rows {
			t.Groups[gi].Rows[ri].RemoveCell(id)
		}
	}
	return nil
}

// AddRow appends a row with one default cell per column.
func (g *Group) AddRow(columns []Column, title string, now time.Time) *Row {
	if title == "" {
		title = DefaultItemTitle
	}
	row := Row{ID: NewID(), Title: title, Cells: make([]Cell, 0, len(columns))}
	for _, col := range columns {
		row.Cells = append(row.Cells, Cell{
			ID:       NewID(),
			ColumnID: col.ID,
			Value:    DefaultValue(col.Type, title, now),
		})
	}
	g.Rows = append(g.Rows, row)
	return &g.Rows[len(g.Rows)-1]
}

// DeleteRow removes the row with the given id.
func (g *Group) DeleteRow(id string) error {
	for i := range g.Rows {
		if g.Rows[i].ID == id {
			g.Rows = append(g.Rows[:i], g.Rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRowNotFound, id)
}

// CreateGroup appends an empty group titled DefaultGroupTitle.
func (t *Table) CreateGroup() *Group {
	return t.AddGroup(DefaultGroupTitle)
}

// RenameGroup retitles a group.
func (t *Table) RenameGroup(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrBlankTitle
	}
	g := t.GroupByID(id)
	if g == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	g.Title = title
	return nil
}

// DeleteGroup removes a group and all of its rows.
func (t *Table) DeleteGroup(id string) error {
	for i := range t.Groups {
		if t.Groups[i].ID == id {
			t.Groups = append(t.Groups[:i], t.Groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
}

// DuplicateGroup appends a copy of a group titled "<title> (copy)". The
// copy's group, rows and cells all get fresh ids.
func (t *Table) DuplicateGroup(id string) (*Group, error) {
	src := t.GroupByID(id)
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	var dup Group
	if err := deepcopy.Copy(&dup, *src); err != nil {
		return nil, fmt.Errorf("table: copy group %s: %w", id, err)
	}
	dup.ID = NewID()
	dup.Title = src.Title + " (copy)"
	if dup.Rows == nil {
		dup.Rows = []Row{}
	}
	for ri := range dup.Rows {
		reidentify(&dup.Rows[ri])
	}
	t.Groups = append(t.Groups, dup)
	return &t.Groups[len(t.Groups)-1], nil
}

// DuplicateRow inserts a copy of a row directly after it. The copy and its
// cells get fresh ids.
func (g *Group) DuplicateRow(id string) (*Row, error) {
	idx := -1
	for i := range g.Rows {
		if g.Rows[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	var dup Row
	if err := deepcopy.Copy(&dup, g.Rows[idx]); err != nil {
		return nil, fmt.Errorf("table: copy row %s: %w", id, err)
	}
	reidentify(&dup)

	g.Rows = append(g.Rows, Row{})
	copy(g.Rows[idx+2:], g.Rows[idx+1:])
	g.Rows[idx+1] = dup
	return &g.Rows[idx+1], nil
}

func reidentify(row *Row) {
	row.ID = NewID()
	for ci := range row.Cells {
		row.Cells[ci].ID = NewID()
	}
}
