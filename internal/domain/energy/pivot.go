package energy

import (
	"math"
	"sort"
	"time"
)

// Aggregation decides what a pivot does when a (timestamp, key) cell has
// more than one value.
type Aggregation int

const (
	// AggregateUnique treats a duplicate cell as a schema violation.
	AggregateUnique Aggregation = iota
	// AggregateMedian reduces duplicate cells to their median.
	AggregateMedian
)

// Pivot groups a long table by timestamp and series key into a wide table.
// Rows are sorted by timestamp and columns by key. Null timestamps and NaN
// values are skipped.
func Pivot(table LongTable, agg Aggregation) (WideTable, error) {
	type row struct {
		ts    time.Time
		cells map[string][]float64
	}
	rows := make(map[int64]*row)
	columns := make(map[string]struct{})

	for _, rec := range table {
		if !rec.Timestamp.Valid || math.IsNaN(rec.Value) {
			continue
		}
		k := rec.Timestamp.Time.UnixNano()
		r, ok := rows[k]
		if !ok {
			r = &row{ts: rec.Timestamp.Time, cells: make(map[string][]float64)}
			rows[k] = r
		}
		if agg == AggregateUnique && len(r.cells[rec.SeriesKey]) > 0 {
			return WideTable{}, schemaError("duplicate value for %q at %s", rec.SeriesKey, rec.Timestamp.Time.Format(time.RFC3339))
		}
		r.cells[rec.SeriesKey] = append(r.cells[rec.SeriesKey], rec.Value)
		columns[rec.SeriesKey] = struct{}{}
	}

	keys := make([]int64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := WideTable{
		Columns: make([]string, 0, len(columns)),
		Rows:    make([]WideRow, 0, len(keys)),
	}
	for c := range columns {
		out.Columns = append(out.Columns, c)
	}
	sort.Strings(out.Columns)

	for _, k := range keys {
		r := rows[k]
		values := make(map[string]float64, len(r.cells))
		for col, vals := range r.cells {
			v, _ := median(vals)
			values[col] = v
		}
		out.Rows = append(out.Rows, WideRow{Timestamp: r.ts, Values: values})
	}
	return out, nil
}

// Relabel renames columns through labels; keys absent from labels keep their
// name. Two columns mapping to the same label is a schema violation.
func Relabel(table WideTable, labels map[string]string) (WideTable, error) {
	rename := func(c string) string {
		if l, ok := labels[c]; ok {
			return l
		}
		return c
	}

	out := WideTable{
		Columns: make([]string, 0, len(table.Columns)),
		Rows:    make([]WideRow, 0, len(table.Rows)),
	}
	seen := make(map[string]string, len(table.Columns))
	for _, c := range table.Columns {
		l := rename(c)
		if prev, ok := seen[l]; ok {
			return WideTable{}, schemaError("columns %q and %q both map to %q", prev, c, l)
		}
		seen[l] = c
		out.Columns = append(out.Columns, l)
	}
	for _, r := range table.Rows {
		values := make(map[string]float64, len(r.Values))
		for c, v := range r.Values {
			values[rename(c)] = v
		}
		out.Rows = append(out.Rows, WideRow{Timestamp: r.Timestamp, Values: values})
	}
	return out, nil
}

// AddTotalLoad appends the total load column to a relabelled load table in
// place. Every regional column must be present; a row missing a region's
// cell sums the regions it has.
func AddTotalLoad(table *WideTable) error {
	for _, c := range RegionColumns {
		if !table.HasColumn(c) {
			return schemaError("load table is missing region column %q", c)
		}
	}
	if table.HasColumn(TotalLoadColumn) {
		return schemaError("load table already has column %q", TotalLoadColumn)
	}
	table.Columns = append(table.Columns, TotalLoadColumn)
	for i := range table.Rows {
		var total float64
		for _, c := range RegionColumns {
			total += table.Rows[i].Values[c]
		}
		table.Rows[i].Values[TotalLoadColumn] = total
	}
	return nil
}

// PivotAndLabel runs the wide-table stage for one source: pivot with the
// source's aggregation rule, relabel, and derive total load for the load feed.
func PivotAndLabel(table LongTable, source Source, labels map[string]string) (WideTable, error) {
	wide, err := Pivot(table, source.Aggregation())
	if err != nil {
		return WideTable{}, err
	}
	wide, err = Relabel(wide, labels)
	if err != nil {
		return WideTable{}, err
	}
	if source == SourceLoad {
		if err := AddTotalLoad(&wide); err != nil {
			return WideTable{}, err
		}
	}
	return wide, nil
}

// median ignores NaN values and reports false when none remain.
func median(values []float64) (float64, bool) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n == 0 {
		return math.NaN(), false
	}
	sort.Float64s(clean)
	if n%2 == 1 {
		return clean[n/2], true
	}
	return (clean[n/2-1] + clean[n/2]) / 2, true
}
