package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/boardcalc/internal/api"
	"github.com/example/boardcalc/internal/export"
	"github.com/example/boardcalc/internal/table"
	"github.com/example/boardcalc/internal/value"
)

func (a *app) evalCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "eval FORMULA",
		Short: "Evaluate a formula against named cell values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseSets(sets)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.eval.Evaluate(args[0], data))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "cell value as Name=Value (repeatable)")
	return cmd
}

func parseSets(sets []string) (map[string]value.Value, error) {
	data := make(map[string]value.Value, len(sets))
	for _, s := range sets {
		name, v, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want Name=Value", s)
		}
		data[name] = value.Text(v)
	}
	return data, nil
}

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new NAME",
		Short: "Create a table view with the default columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			view, err := svc.CreateTableView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created view %s (%s)\n", view.ID, view.Name)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			views, err := svc.ListViews()
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Fprintln(a.out, "No views stored")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rowCount := 0
				if v.IsTable() {
					rowCount = v.Table.RowCount()
				}
				rows = append(rows, []string{v.ID, v.Name, string(v.Type), fmt.Sprint(rowCount)})
			}
			renderGrid(a.out, []string{"ID", "Name", "Type", "Rows"}, rows)
			return nil
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm VIEW",
		Short: "Delete a stored view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.DeleteView(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted view %s\n", args[0])
			return nil
		},
	}
}

func (a *app) applyCmd() *cobra.Command {
	var column, formula, group string
	var all bool
	cmd := &cobra.Command{
		Use:   "apply VIEW",
		Short: "Write a formula into a column across one group or all groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			req := api.ApplyRequest{
				ViewID:           view.ID,
				ColumnID:         resolveColumn(view, column),
				Formula:          formula,
				ApplyToAllGroups: all,
			}
			if group != "" {
				req.GroupID = resolveGroup(view, group)
			}
			resp, err := svc.ApplyFormulaToAll(cmd.Context(), req)
			if err != nil {
				return err
			}
			st := resp.Stats
			fmt.Fprintf(a.out, "Applied to %d row(s) in %d group(s): %d added, %d updated, %d duplicate(s) removed\n",
				st.RowsProcessed, st.GroupsProcessed, st.CellsAdded, st.CellsUpdated, st.CellsRemoved)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&column, "column", "", "target column id or title")
	flags.StringVar(&formula, "formula", "", "formula source, e.g. {Qty}*{Price}")
	flags.StringVar(&group, "group", "", "group id or title")
	flags.BoolVar(&all, "all", false, "apply to every group")
	_ = cmd.MarkFlagRequired("column")
	cmd.MarkFlagsMutuallyExclusive("group", "all")
	return cmd
}

func (a *app) resyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync VIEW",
		Short: "Recompute every formula cell of a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			_, st, err := svc.ResyncView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Resynced %d formula cell(s), %d updated\n", st.FormulaCells, st.Updated)
			return nil
		},
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [VIEW]",
		Short: "Remove duplicate cells from one view or from every view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			var req api.CleanupRequest
			if len(args) == 1 {
				req.ViewID = args[0]
			}
			summary, err := svc.CleanupDuplicateCells(cmd.Context(), req)
			if err != nil {
				return err
			}
			st := summary.Stats
			fmt.Fprintf(a.out, "%s: %d view(s), %d group(s), %d row(s), %d duplicate(s) removed\n",
				summary.Message, st.ViewsProcessed, st.GroupsProcessed, st.RowsProcessed, st.DuplicatesRemoved)
			for _, id := range st.ModifiedViews {
				fmt.Fprintf(a.out, "  modified %s\n", id)
			}
			return nil
		},
	}
}

func (a *app) addColumnCmd() *cobra.Command {
	var typ, title string
	cmd := &cobra.Command{
		Use:   "add-column VIEW",
		Short: "Append a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			col, err := svc.AddColumn(cmd.Context(), args[0], table.ColumnType(typ), title)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added column %s (%s %s)\n", col.ID, col.Type, col.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(table.ColumnText), "item, text, person, status, date or formula")
	cmd.Flags().StringVar(&title, "title", "", "column title (defaults to the type's title)")
	return cmd
}

func (a *app) deleteColumnCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "delete-column VIEW",
		Short: "Remove a column and its cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteColumn(cmd.Context(), view.ID, resolveColumn(view, column)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted column %s\n", column)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column id or title")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func (a *app) addRowCmd() *cobra.Command {
	var group, title string
	cmd := &cobra.Command{
		Use:   "add-row VIEW",
		Short: "Append a row to a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			row, err := svc.AddRow(cmd.Context(), view.ID, resolveGroup(view, group), title)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added row %s (%s)\n", row.ID, row.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	cmd.Flags().StringVar(&title, "title", "", "row title")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (a *app) deleteRowCmd() *cobra.Command {
	var group, row string
	cmd := &cobra.Command{
		Use:   "delete-row VIEW",
		Short: "Remove a row from a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			groupID := resolveGroup(view, group)
			if err := svc.DeleteRow(cmd.Context(), view.ID, groupID, resolveRow(view, groupID, row)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted row %s\n", row)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	cmd.Flags().StringVar(&row, "row", "", "row id or title")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func (a *app) renameColumnCmd() *cobra.Command {
	var column, title string
	cmd := &cobra.Command{
		Use:   "rename-column VIEW",
		Short: "Retitle a column and resync formulas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			if _, err := svc.RenameColumn(cmd.Context(), view.ID, resolveColumn(view, column), title); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Renamed column %s to %s\n", column, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column id or title")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) addGroupCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add-group VIEW",
		Short: "Append an empty group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			g, err := svc.CreateGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if title != "" {
				if err := svc.RenameGroup(cmd.Context(), args[0], g.ID, title); err != nil {
					return err
				}
				g.Title = title
			}
			fmt.Fprintf(a.out, "Added group %s (%s)\n", g.ID, g.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "group title (defaults to \""+table.DefaultGroupTitle+"\")")
	return cmd
}

func (a *app) renameGroupCmd() *cobra.Command {
	var group, title string
	cmd := &cobra.Command{
		Use:   "rename-group VIEW",
		Short: "Retitle a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			if err := svc.RenameGroup(cmd.Context(), view.ID, resolveGroup(view, group), title); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Renamed group %s to %s\n", group, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) deleteGroupCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "delete-group VIEW",
		Short: "Remove a group and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteGroup(cmd.Context(), view.ID, resolveGroup(view, group)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted group %s\n", group)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (a *app) duplicateGroupCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "duplicate-group VIEW",
		Short: "Append a copy of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			g, err := svc.DuplicateGroup(cmd.Context(), view.ID, resolveGroup(view, group))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added group %s (%s, %d row(s))\n", g.ID, g.Title, len(g.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (a *app) duplicateRowCmd() *cobra.Command {
	var group, row string
	cmd := &cobra.Command{
		Use:   "duplicate-row VIEW",
		Short: "Insert a copy of a row after it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			groupID := resolveGroup(view, group)
			r, err := svc.DuplicateRow(cmd.Context(), view.ID, groupID, resolveRow(view, groupID, row))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added row %s (%s)\n", r.ID, r.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "group id or title")
	cmd.Flags().StringVar(&row, "row", "", "row id or title")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	var group, row, column string
	var raw bool
	cmd := &cobra.Command{
		Use:   "set VIEW VALUE",
		Short: "Store a value in one cell and recompute the view's formulas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			v := table.TextValue(args[1])
			if raw {
				if err := json.Unmarshal([]byte(args[1]), &v); err != nil {
					return fmt.Errorf("decode cell value: %w", err)
				}
			}
			groupID := resolveGroup(view, group)
			updated, err := svc.UpdateCell(cmd.Context(), view.ID, groupID,
				resolveRow(view, groupID, row), resolveColumn(view, column), v)
			if err != nil {
				return err
			}
			return renderView(a.out, updated)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&group, "group", "", "group id or title")
	flags.StringVar(&row, "row", "", "row id or title")
	flags.StringVar(&column, "column", "", "column id or title")
	flags.BoolVar(&raw, "json", false, "treat VALUE as a JSON cell value")
	for _, name := range []string{"group", "row", "column"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "dump VIEW",
		Short: "Print a view's groups and cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				data, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}
			return renderView(a.out, view)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the stored JSON document")
	return cmd
}

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta VIEW",
		Short: "Print view metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			data, err := svc.MetadataJSON(args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(a.out, buf.String())
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export VIEW OUT.xlsx",
		Short: "Write a view to an XLSX workbook, one sheet per group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, view, err := a.loadView(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := export.WriteView(f, view); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %s to %s\n", view.Name, args[1])
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import IN.xlsx NAME",
		Short: "Create a view from an XLSX workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			view, err := export.ReadView(f, args[1], time.Now())
			if err != nil {
				return err
			}
			if err := svc.ImportView(cmd.Context(), view); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported view %s (%s, %d row(s))\n", view.ID, view.Name, view.Table.RowCount())
			return nil
		},
	}
}

func (a *app) loadView(id string) (*api.Service, *table.View, error) {
	svc, err := a.service()
	if err != nil {
		return nil, nil, err
	}
	view, err := svc.LoadView(id)
	if err != nil {
		return nil, nil, err
	}
	if !view.IsTable() {
		return nil, nil, fmt.Errorf("view %s is not a table view", id)
	}
	return svc, view, nil
}

// resolveColumn accepts a column id or title. Unknown references pass
// through so the service reports them.
func resolveColumn(view *table.View, ref string) string {
	if view.Table.ColumnByID(ref) != nil {
		return ref
	}
	if col := view.Table.ColumnByTitle(ref); col != nil {
		return col.ID
	}
	return ref
}

func resolveGroup(view *table.View, ref string) string {
	if view.Table.GroupByID(ref) != nil {
		return ref
	}
	for _, g := range view.Table.Groups {
		if g.Title == ref {
			return g.ID
		}
	}
	return ref
}

func resolveRow(view *table.View, groupID, ref string) string {
	g := view.Table.GroupByID(groupID)
	if g == nil || g.RowByID(ref) != nil {
		return ref
	}
	for _, r := range g.Rows {
		if r.Title == ref {
			return r.ID
		}
	}
	return ref
}
