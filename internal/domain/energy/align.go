package energy

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Align outer-joins wide tables on timestamp so independently fetched feeds
// share one time axis. Column order follows the inputs; a column name that
// appears in two inputs is a schema violation.
func Align(tables ...WideTable) (WideTable, error) {
	var out WideTable
	owner := make(map[string]int)
	for i, t := range tables {
		for _, c := range t.Columns {
			if j, ok := owner[c]; ok {
				return WideTable{}, schemaError("column %q appears in tables %d and %d", c, j, i)
			}
			owner[c] = i
			out.Columns = append(out.Columns, c)
		}
	}

	rows := make(map[int64]*WideRow)
	for _, t := range tables {
		for _, r := range t.Rows {
			k := r.Timestamp.UnixNano()
			row, ok := rows[k]
			if !ok {
				row = &WideRow{Timestamp: r.Timestamp, Values: make(map[string]float64)}
				rows[k] = row
			}
			for c, v := range r.Values {
				row.Values[c] = v
			}
		}
	}

	out.Rows = make([]WideRow, 0, len(rows))
	for _, r := range rows {
		out.Rows = append(out.Rows, *r)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		return out.Rows[i].Timestamp.Before(out.Rows[j].Timestamp)
	})
	return out, nil
}

// Latest returns the value of column in the last row and its change from the
// row before, rounded to two decimals. Both rows must hold a finite value.
func Latest(table WideTable, column string) (value, delta float64, err error) {
	if !table.HasColumn(column) {
		return 0, 0, schemaError("column %q not found", column)
	}
	if len(table.Rows) < 2 {
		return 0, 0, schemaError("column %q needs two rows for a delta, have %d", column, len(table.Rows))
	}
	present, err := finiteCell(table.Rows[len(table.Rows)-1], column)
	if err != nil {
		return 0, 0, err
	}
	baseline, err := finiteCell(table.Rows[len(table.Rows)-2], column)
	if err != nil {
		return 0, 0, err
	}
	d := decimal.NewFromFloat(present).Sub(decimal.NewFromFloat(baseline)).Round(2)
	delta, _ = d.Float64()
	return present, delta, nil
}

func finiteCell(row WideRow, column string) (float64, error) {
	v, ok := row.Values[column]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, schemaError("column %q has no value at %s", column, row.Timestamp.Format(time.RFC3339))
	}
	return v, nil
}
