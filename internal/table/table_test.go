package table_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/boardcalc/internal/table"
	"github.com/example/boardcalc/internal/value"
)

var now = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

const legacyView = `{
  "_id": "v1",
  "name": "Sprint",
  "type": "table",
  "isDefault": true,
  "table": {
    "columns": [
      {"_id": "c-item", "type": "item", "title": "Item"},
      {"_id": "c-qty", "type": "text", "title": "Qty", "name": "quantity"},
      {"_id": "c-status", "type": "status", "title": "Status"},
      {"_id": "c-owner", "type": "person", "title": "Owner"},
      {"_id": "c-due", "type": "date", "title": "Due"},
      {"_id": "c-total", "type": "formula", "title": "Total"}
    ],
    "groups": [{
      "_id": "g1",
      "title": "Group Title",
      "rows": [{
        "_id": "r1",
        "title": "Task",
        "cells": [
          {"_id": "x1", "columnId": "c-item", "value": "Task"},
          {"_id": "x2", "columnId": "c-qty", "value": 4},
          {"_id": "x3", "columnId": "c-status", "value": {"value": "Done", "color": "#00c875"}},
          {"_id": "x4", "columnId": "c-owner", "value": [{"_id": "u1", "name": "Ada"}, "u2"]},
          {"_id": "x5", "columnId": "c-due", "value": "2024-01-05T00:00:00.000Z"},
          {"_id": "x6", "columnId": "c-total", "value": {"value": "{Qty}*2", "displayValue": "8"}},
          {"_id": "x7", "columnId": "c-qty", "value": "99"}
        ]
      }]
    }]
  }
}`

func decodeLegacy(t *testing.T) *table.View {
	t.Helper()
	var view table.View
	if err := json.Unmarshal([]byte(legacyView), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return &view
}

func TestDecodeClassifiesCellShapes(t *testing.T) {
	view := decodeLegacy(t)
	row := &view.Table.Groups[0].Rows[0]
	want := map[string]table.CellKind{
		"c-item":   table.CellText,
		"c-qty":    table.CellNumber,
		"c-status": table.CellStatus,
		"c-owner":  table.CellPeople,
		"c-due":    table.CellText,
		"c-total":  table.CellFormula,
	}
	for colID, kind := range want {
		cell := row.CellByColumnID(colID)
		if cell == nil {
			t.Fatalf("missing cell for %s", colID)
		}
		if cell.Value.Kind != kind {
			t.Fatalf("%s: expected %s, got %s", colID, kind, cell.Value.Kind)
		}
	}
	owner := row.CellByColumnID("c-owner").Value.People
	if len(owner) != 2 || owner[0].Name != "Ada" || owner[1].ID != "u2" {
		t.Fatalf("unexpected people %+v", owner)
	}
	if src, ok := row.CellByColumnID("c-total").Value.FormulaSource(); !ok || src != "{Qty}*2" {
		t.Fatalf("unexpected formula source %q", src)
	}
}

func TestFormulaCellEncodesTwoFieldShape(t *testing.T) {
	cell := table.Cell{ID: "x", ColumnID: "c", Value: table.FormulaValue("{A}+{B}", "5")}
	data, err := json.Marshal(cell)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"_id":"x","columnId":"c","value":{"value":"{A}+{B}","displayValue":"5"}}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestUnknownObjectsSurviveRoundTrip(t *testing.T) {
	var v table.CellValue
	if err := json.Unmarshal([]byte(`{"label":"x","n":1}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Kind != table.CellRaw {
		t.Fatalf("expected raw cell, got %s", v.Kind)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"label":"x","n":1}` {
		t.Fatalf("unexpected round trip %s", out)
	}
	if err := json.Unmarshal([]byte(`null`), &v); err != nil || v.Kind != table.CellEmpty {
		t.Fatalf("expected null to decode as empty, got %s %v", v.Kind, err)
	}
}

func TestCellDataMap(t *testing.T) {
	view := decodeLegacy(t)
	row := &view.Table.Groups[0].Rows[0]
	data := view.Table.CellDataMap(row)

	if got := data["Qty"].String(); got != "4" {
		t.Fatalf("expected first Qty cell to win, got %q", got)
	}
	if got := data["quantity"].String(); got != "4" {
		t.Fatalf("expected legacy name alias, got %q", got)
	}
	if got := data["Status"].String(); got != "Done" {
		t.Fatalf("expected status value, got %q", got)
	}
	if got := data["Owner"].String(); got != "Ada, u2" {
		t.Fatalf("expected joined people, got %q", got)
	}
	if data["Due"].Kind() != value.KindDate || data["Due"].String() != "01/05/2024" {
		t.Fatalf("expected date column as calendar date, got %s %q", data["Due"].Kind(), data["Due"].String())
	}
	if got := data["Total"].String(); got != "8" {
		t.Fatalf("expected formula display value, got %q", got)
	}
}

func TestDedupeKeepsFirstCell(t *testing.T) {
	view := decodeLegacy(t)
	row := &view.Table.Groups[0].Rows[0]
	if removed := row.Dedupe(); removed != 1 {
		t.Fatalf("expected one duplicate removed, got %d", removed)
	}
	if len(row.Cells) != 6 {
		t.Fatalf("expected 6 cells, got %d", len(row.Cells))
	}
	if row.CellByColumnID("c-qty").ID != "x2" {
		t.Fatalf("expected first qty cell kept")
	}
	if removed := row.Dedupe(); removed != 0 {
		t.Fatalf("expected dedupe to be stable, removed %d", removed)
	}
}

func TestNewTableViewScaffolding(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	if !view.IsTable() || view.Name != "Roadmap" {
		t.Fatalf("unexpected view %+v", view)
	}
	titles := make([]string, 0, len(view.Table.Columns))
	for _, col := range view.Table.Columns {
		titles = append(titles, col.Title)
	}
	if got := strings.Join(titles, ","); got != "Item,Person,Text,Status,Date,Formula" {
		t.Fatalf("unexpected columns %s", got)
	}
	status := view.Table.ColumnByTitle("Status")
	if len(status.Statuses) != 3 || status.Statuses[1].Value != "Done" || status.Statuses[1].Color != "#00c875" {
		t.Fatalf("unexpected statuses %+v", status.Statuses)
	}
	if len(view.Table.Groups) != 1 || view.Table.Groups[0].Title != "Group Title" {
		t.Fatalf("unexpected groups %+v", view.Table.Groups)
	}
	row := view.Table.Groups[0].Rows[0]
	if row.Title != "New item" || len(row.Cells) != 6 {
		t.Fatalf("unexpected row %+v", row)
	}
	item := row.CellByColumnID(view.Table.ColumnByTitle("Item").ID)
	if item.Value.Text != "New item" {
		t.Fatalf("expected item cell to carry the row title, got %q", item.Value.Text)
	}
	date := row.CellByColumnID(view.Table.ColumnByTitle("Date").ID)
	if date.Value.Text != "2024-03-15T09:00:00.000Z" {
		t.Fatalf("unexpected date default %q", date.Value.Text)
	}
	person := row.CellByColumnID(view.Table.ColumnByTitle("Person").ID)
	if person.Value.Kind != table.CellPeople || len(person.Value.People) != 0 {
		t.Fatalf("expected empty person list, got %+v", person.Value)
	}
}

func TestAddColumnIncrementsTitle(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	tbl := view.Table
	first, err := tbl.AddColumn(table.ColumnFormula, "", now)
	if err != nil {
		t.Fatalf("add column: %v", err)
	}
	if first.Title != "Formula1" {
		t.Fatalf("expected Formula1, got %q", first.Title)
	}
	second, err := tbl.AddColumn(table.ColumnFormula, "Formula", now)
	if err != nil {
		t.Fatalf("add column: %v", err)
	}
	if second.Title != "Formula2" {
		t.Fatalf("expected Formula2, got %q", second.Title)
	}
	fresh, err := tbl.AddColumn(table.ColumnText, "Notes", now)
	if err != nil {
		t.Fatalf("add column: %v", err)
	}
	if fresh.Title != "Notes" {
		t.Fatalf("expected untouched title, got %q", fresh.Title)
	}
	row := &tbl.Groups[0].Rows[0]
	if row.CellByColumnID(second.ID) == nil || len(row.Cells) != 9 {
		t.Fatalf("expected a default cell per new column, got %d cells", len(row.Cells))
	}
	if _, err := tbl.AddColumn("rating", "", now); !errors.Is(err, table.ErrUnknownColumnType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestDeleteColumnRemovesCells(t *testing.T) {
	view := decodeLegacy(t)
	tbl := view.Table
	if err := tbl.DeleteColumn("c-qty"); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	if tbl.ColumnByID("c-qty") != nil {
		t.Fatalf("expected column gone")
	}
	row := &tbl.Groups[0].Rows[0]
	if row.CellIndex("c-qty") != -1 || len(row.Cells) != 5 {
		t.Fatalf("expected both qty cells removed, have %d cells", len(row.Cells))
	}
	if err := tbl.DeleteColumn("missing"); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRowsAddAndDelete(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	group := view.Table.GroupByID(view.Table.Groups[0].ID)
	row := group.AddRow(view.Table.Columns, "", now)
	if row.Title != table.DefaultItemTitle || len(group.Rows) != 2 {
		t.Fatalf("unexpected row %+v", row)
	}
	id := row.ID
	if group.RowByID(id) == nil {
		t.Fatalf("expected row lookup to succeed")
	}
	if err := group.DeleteRow(id); err != nil {
		t.Fatalf("delete row: %v", err)
	}
	if err := group.DeleteRow(id); !errors.Is(err, table.ErrRowNotFound) {
		t.Fatalf("expected row not found, got %v", err)
	}
	if view.Table.RowCount() != 1 {
		t.Fatalf("expected one row left, got %d", view.Table.RowCount())
	}
}

func TestRenameColumn(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	tbl := view.Table
	id := tbl.ColumnByTitle("Text").ID
	if err := tbl.RenameColumn(id, " Notes "); err != nil {
		t.Fatalf("rename column: %v", err)
	}
	if tbl.ColumnByTitle("Notes") == nil || tbl.ColumnByTitle("Text") != nil {
		t.Fatalf("expected column retitled to Notes")
	}
	if err := tbl.RenameColumn(id, "  "); !errors.Is(err, table.ErrBlankTitle) {
		t.Fatalf("expected blank title error, got %v", err)
	}
	if err := tbl.RenameColumn("missing", "X"); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
}

func TestGroupLifecycle(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	tbl := view.Table
	created := tbl.CreateGroup()
	if created.Title != table.DefaultGroupTitle || created.Rows == nil || len(tbl.Groups) != 2 {
		t.Fatalf("unexpected group %+v", created)
	}
	id := created.ID
	if err := tbl.RenameGroup(id, "Backlog"); err != nil {
		t.Fatalf("rename group: %v", err)
	}
	if tbl.GroupByID(id).Title != "Backlog" {
		t.Fatalf("expected Backlog, got %q", tbl.GroupByID(id).Title)
	}
	if err := tbl.RenameGroup("missing", "X"); !errors.Is(err, table.ErrGroupNotFound) {
		t.Fatalf("expected group not found, got %v", err)
	}
	if err := tbl.DeleteGroup(id); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if err := tbl.DeleteGroup(id); !errors.Is(err, table.ErrGroupNotFound) {
		t.Fatalf("expected group not found, got %v", err)
	}
	if len(tbl.Groups) != 1 {
		t.Fatalf("expected one group left, got %d", len(tbl.Groups))
	}
}

func TestDuplicateGroupAssignsFreshIDs(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	tbl := view.Table
	src := &tbl.Groups[0]
	srcID, srcRow := src.ID, src.Rows[0]

	dup, err := tbl.DuplicateGroup(srcID)
	if err != nil {
		t.Fatalf("duplicate group: %v", err)
	}
	if dup.Title != "Group Title (copy)" || dup.ID == srcID || len(tbl.Groups) != 2 {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
	row := dup.Rows[0]
	if row.ID == srcRow.ID || row.Title != srcRow.Title || len(row.Cells) != len(srcRow.Cells) {
		t.Fatalf("unexpected duplicated row %+v", row)
	}
	for i := range row.Cells {
		if row.Cells[i].ID == srcRow.Cells[i].ID || row.Cells[i].ColumnID != srcRow.Cells[i].ColumnID {
			t.Fatalf("cell %d: expected fresh id on same column", i)
		}
	}

	row.Cells[0].Value = table.TextValue("changed")
	if tbl.Groups[0].Rows[0].Cells[0].Value.Text == "changed" {
		t.Fatalf("duplicate shares cells with the original")
	}
	if _, err := tbl.DuplicateGroup("missing"); !errors.Is(err, table.ErrGroupNotFound) {
		t.Fatalf("expected group not found, got %v", err)
	}
}

func TestDuplicateRowInsertsAfterOriginal(t *testing.T) {
	view := table.NewTableView("Roadmap", now)
	group := &view.Table.Groups[0]
	first := group.Rows[0].ID
	last := group.AddRow(view.Table.Columns, "Last", now).ID

	dup, err := group.DuplicateRow(first)
	if err != nil {
		t.Fatalf("duplicate row: %v", err)
	}
	if len(group.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(group.Rows))
	}
	if group.Rows[0].ID != first || group.Rows[1].ID != dup.ID || group.Rows[2].ID != last {
		t.Fatalf("expected copy directly after the original")
	}
	if dup.ID == first || dup.Title != table.DefaultItemTitle {
		t.Fatalf("unexpected copy %+v", dup)
	}
	if dup.Cells[0].ID == group.Rows[0].Cells[0].ID {
		t.Fatalf("expected fresh cell ids")
	}
	if _, err := group.DuplicateRow("missing"); !errors.Is(err, table.ErrRowNotFound) {
		t.Fatalf("expected row not found, got %v", err)
	}
}
