package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/boardcalc/internal/table"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestParseSets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		sets    []string
		want    map[string]string
		wantErr bool
	}{{
		name: "pairs",
		sets: []string{"Qty=3", " Price =4.5"},
		want: map[string]string{"Qty": "3", "Price": "4.5"},
	}, {
		name: "value keeps equals",
		sets: []string{"Expr=a=b"},
		want: map[string]string{"Expr": "a=b"},
	}, {
		name:    "missing separator",
		sets:    []string{"Qty"},
		wantErr: true,
	}, {
		name:    "blank name",
		sets:    []string{"=3"},
		wantErr: true,
	}}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSets(tc.sets)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d values, want %d", len(got), len(tc.want))
			}
			for k, v := range tc.want {
				if got[k].String() != v {
					t.Fatalf("%s: got %q want %q", k, got[k].String(), v)
				}
			}
		})
	}
}

func TestEvalDoesNotTouchDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	out := mustRun(t, dir, "eval", "{A}+{B}", "--set", "A=2", "--set", "B=3")
	if out != "5\n" {
		t.Fatalf("expected 5, got %q", out)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected no data directory, stat err %v", err)
	}
}

func createdID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "Created" {
		t.Fatalf("unexpected create output %q", out)
	}
	return fields[2]
}

func dumpView(t *testing.T, dir, id string) *table.View {
	t.Helper()
	var view table.View
	if err := json.Unmarshal([]byte(mustRun(t, dir, "dump", id, "--json")), &view); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	return &view
}

func TestFormulaWorkflow(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Orders"))

	mustRun(t, dir, "add-column", id, "--type", "text", "--title", "Qty")
	mustRun(t, dir, "set", id, "3", "--group", "Group Title", "--row", "New item", "--column", "Qty")

	out := mustRun(t, dir, "apply", id, "--column", "Formula", "--formula", "{Qty}*2", "--all")
	if !strings.Contains(out, "Applied to 1 row(s) in 1 group(s)") {
		t.Fatalf("unexpected apply output %q", out)
	}

	view := dumpView(t, dir, id)
	formulaCol := view.Table.ColumnByTitle("Formula").ID
	cell := view.Table.Groups[0].Rows[0].CellByColumnID(formulaCol)
	if cell.Value.Formula.Value != "{Qty}*2" || cell.Value.Formula.DisplayValue != "6" {
		t.Fatalf("unexpected formula cell %+v", cell.Value.Formula)
	}

	mustRun(t, dir, "set", id, "5", "--group", "Group Title", "--row", "New item", "--column", "Qty")
	view = dumpView(t, dir, id)
	if got := view.Table.Groups[0].Rows[0].CellByColumnID(formulaCol).Value.Formula.DisplayValue; got != "10" {
		t.Fatalf("expected formula to follow edit, got %q", got)
	}

	meta := mustRun(t, dir, "meta", id)
	if !strings.Contains(meta, `"{Qty}*2"`) {
		t.Fatalf("metadata missing formula: %s", meta)
	}
	if out := mustRun(t, dir, "resync", id); !strings.Contains(out, "0 updated") {
		t.Fatalf("expected nothing to resync, got %q", out)
	}
	if out := mustRun(t, dir, "list"); !strings.Contains(out, "Orders") {
		t.Fatalf("list missing view: %q", out)
	}
	if out := mustRun(t, dir, "dump", id); !strings.Contains(out, "Group Group Title (1 row(s))") {
		t.Fatalf("unexpected dump %q", out)
	}
}

func TestStructureCommands(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Roadmap"))

	out := mustRun(t, dir, "add-row", id, "--group", "Group Title", "--title", "Launch")
	if !strings.Contains(out, "(Launch)") {
		t.Fatalf("unexpected add-row output %q", out)
	}
	mustRun(t, dir, "delete-row", id, "--group", "Group Title", "--row", "Launch")
	mustRun(t, dir, "delete-column", id, "--column", "Text")

	view := dumpView(t, dir, id)
	if view.Table.ColumnByTitle("Text") != nil || view.Table.RowCount() != 1 {
		t.Fatalf("unexpected table after edits: %d columns, %d rows", len(view.Table.Columns), view.Table.RowCount())
	}
	if out := mustRun(t, dir, "cleanup"); !strings.Contains(out, "Cleanup completed: 1 view(s)") {
		t.Fatalf("unexpected cleanup output %q", out)
	}
	mustRun(t, dir, "rm", id)
	if out := mustRun(t, dir, "list"); !strings.Contains(out, "No views stored") {
		t.Fatalf("expected empty list, got %q", out)
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Orders"))
	path := filepath.Join(t.TempDir(), "orders.xlsx")

	mustRun(t, dir, "export", id, path)
	out := mustRun(t, dir, "import", path, "Orders copy")
	if !strings.Contains(out, "(Orders copy, 1 row(s))") {
		t.Fatalf("unexpected import output %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Orders"))

	if _, err := run(t, dir, "apply", id, "--column", "Formula", "--formula", "1+1"); err == nil || !strings.Contains(err.Error(), "applyToAllGroups") {
		t.Fatalf("expected scope error, got %v", err)
	}
	if _, err := run(t, dir, "dump", "missing"); err == nil || !strings.Contains(err.Error(), "View not found") {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := run(t, dir, "add-column", id, "--type", "rating"); err == nil {
		t.Fatalf("expected unknown column type error")
	}
	if _, err := run(t, dir, "eval", "1", "--set", "broken"); err == nil {
		t.Fatalf("expected --set error")
	}
}

func TestConfigFile(t *testing.T) {
	cfgDir := t.TempDir()
	path := filepath.Join(cfgDir, "boardctl.yaml")
	if err := os.WriteFile(path, []byte("logLevel: loud\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := run(t, t.TempDir(), "--config", path, "eval", "1+1"); err == nil {
		t.Fatalf("expected invalid log level to fail")
	}

	if err := os.WriteFile(path, []byte("maxExpressionDepth: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err := run(t, t.TempDir(), "--config", path, "eval", "(((({A}+1))))", "--set", "A=1")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.HasPrefix(out, "#ERROR") {
		t.Fatalf("expected depth limit error, got %q", out)
	}
}

func TestApplyToOneOfTwoGroups(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Orders"))
	mustRun(t, dir, "add-column", id, "--type", "text", "--title", "Qty")

	if out := mustRun(t, dir, "add-group", id, "--title", "Backlog"); !strings.Contains(out, "(Backlog)") {
		t.Fatalf("unexpected add-group output %q", out)
	}
	mustRun(t, dir, "add-row", id, "--group", "Backlog", "--title", "Widget")
	mustRun(t, dir, "set", id, "4", "--group", "Backlog", "--row", "Widget", "--column", "Qty")
	mustRun(t, dir, "set", id, "3", "--group", "Group Title", "--row", "New item", "--column", "Qty")

	out := mustRun(t, dir, "apply", id, "--column", "Formula", "--formula", "{Qty}*2", "--group", "Backlog")
	if !strings.Contains(out, "Applied to 1 row(s) in 1 group(s)") {
		t.Fatalf("unexpected apply output %q", out)
	}

	view := dumpView(t, dir, id)
	formulaCol := view.Table.ColumnByTitle("Formula").ID
	if len(view.Table.Groups) != 2 {
		t.Fatalf("expected two groups, got %d", len(view.Table.Groups))
	}
	untouched := view.Table.Groups[0].Rows[0].CellByColumnID(formulaCol)
	if untouched.Value.Formula.Value != "" || untouched.Value.Text != "" {
		t.Fatalf("first group should keep its empty formula cell, got %+v", untouched.Value)
	}
	applied := view.Table.Groups[1].Rows[0].CellByColumnID(formulaCol)
	if applied.Value.Formula.Value != "{Qty}*2" || applied.Value.Formula.DisplayValue != "8" {
		t.Fatalf("unexpected formula cell %+v", applied.Value.Formula)
	}
}

func TestGroupAndColumnEditing(t *testing.T) {
	dir := t.TempDir()
	id := createdID(t, mustRun(t, dir, "new", "Orders"))
	mustRun(t, dir, "add-column", id, "--type", "text", "--title", "Qty")
	mustRun(t, dir, "set", id, "3", "--group", "Group Title", "--row", "New item", "--column", "Qty")
	mustRun(t, dir, "apply", id, "--column", "Formula", "--formula", "{Qty}*2", "--all")

	mustRun(t, dir, "rename-column", id, "--column", "Qty", "--title", "Units")
	view := dumpView(t, dir, id)
	formulaCol := view.Table.ColumnByTitle("Formula").ID
	if got := view.Table.Groups[0].Rows[0].CellByColumnID(formulaCol).Value.Formula.DisplayValue; !strings.Contains(got, "Missing value") {
		t.Fatalf("expected stale reference to report missing, got %q", got)
	}
	mustRun(t, dir, "rename-column", id, "--column", "Units", "--title", "Qty")
	view = dumpView(t, dir, id)
	if got := view.Table.Groups[0].Rows[0].CellByColumnID(formulaCol).Value.Formula.DisplayValue; got != "6" {
		t.Fatalf("expected reference to resolve again, got %q", got)
	}

	mustRun(t, dir, "duplicate-row", id, "--group", "Group Title", "--row", "New item")
	mustRun(t, dir, "rename-group", id, "--group", "Group Title", "--title", "Open")
	if out := mustRun(t, dir, "duplicate-group", id, "--group", "Open"); !strings.Contains(out, "(Open (copy), 2 row(s))") {
		t.Fatalf("unexpected duplicate-group output %q", out)
	}
	mustRun(t, dir, "delete-group", id, "--group", "Open")

	view = dumpView(t, dir, id)
	if len(view.Table.Groups) != 1 || view.Table.Groups[0].Title != "Open (copy)" || view.Table.RowCount() != 2 {
		t.Fatalf("unexpected groups after edits %+v", view.Table.Groups)
	}
	if _, err := run(t, dir, "rename-group", id, "--group", "Open (copy)", "--title", " "); err == nil || !strings.Contains(err.Error(), "blank") {
		t.Fatalf("expected blank title error, got %v", err)
	}
}
