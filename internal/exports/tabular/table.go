// Package tabular renders flat datasets as spreadsheet friendly CSV and XLSX files.
package tabular

import (
	"time"
)

// Table is a named dataset. Row cells are string, decimal.Decimal,
// time.Time or nil for missing values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Append adds one row.
func (t *Table) Append(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// Len reports the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// NullDate converts an optional date into a cell value.
func NullDate(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}
