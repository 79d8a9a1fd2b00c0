package table

import "github.com/example/boardcalc/internal/value"

// CellDataMap builds the reference map a formula sees for one row: every
// column that has a cell in the row is keyed by its title and, when set and
// distinct, by its legacy name. The first column to claim a key keeps it.
func (t *Table) CellDataMap(row *Row) map[string]value.Value {
	data := make(map[string]value.Value, len(t.Columns))
	for i := range t.Columns {
		col := &t.Columns[i]
		cell := row.CellByColumnID(col.ID)
		if cell == nil {
			continue
		}
		v := col.Scalar(cell.Value)
		for _, key := range []string{col.Title, col.Name} {
			if key == "" {
				continue
			}
			if _, taken := data[key]; !taken {
				data[key] = v
			}
		}
	}
	return data
}

// Scalar interprets a stored value in the light of the column type. Date
// columns store ISO timestamps, which read back as calendar dates.
func (c *Column) Scalar(v CellValue) value.Value {
	if c.Type == ColumnDate && v.Kind == CellText {
		if t, ok := value.ParseNativeDate(v.Text); ok {
			return value.Date(t)
		}
	}
	return v.Scalar()
}
