package energy

import (
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// TimeOfDayLayout is the layout of upstream payload keys.
const TimeOfDayLayout = "15:04:05"

// Melt reshapes one day of observations, one row per timestamp with a column
// per series key, into one row per (timestamp, series key). Row order follows
// obs, and within an observation the series keys are sorted.
func Melt(date time.Time, obs []Observation) LongTable {
	size := 0
	for _, o := range obs {
		size += len(o.Values)
	}
	out := make(LongTable, 0, size)
	for _, o := range obs {
		ts := Timestamp(date, o.TimeOfDay)
		keys := make([]string, 0, len(o.Values))
		for k := range o.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, LongRecord{Timestamp: ts, SeriesKey: k, Value: o.Values[k]})
		}
	}
	return out
}

// Timestamp combines a civil date with an HH:MM:SS key. An unparseable key
// yields a null timestamp instead of an error.
func Timestamp(date time.Time, timeOfDay string) null.Time {
	tod, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(timeOfDay))
	if err != nil {
		return null.Time{}
	}
	y, m, d := date.Date()
	return null.TimeFrom(time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), 0, date.Location()))
}

// MedianByKey collapses duplicate (timestamp, series key) rows into one row
// holding their median. Rows keep the order of their first occurrence; rows
// with a null timestamp pass through untouched.
func MedianByKey(table LongTable) LongTable {
	type cellKey struct {
		ts  int64
		key string
	}
	groups := make(map[cellKey][]float64)
	order := make([]cellKey, 0, len(table))
	first := make(map[cellKey]LongRecord)
	out := make(LongTable, 0, len(table))

	for _, rec := range table {
		if !rec.Timestamp.Valid {
			continue
		}
		k := cellKey{ts: rec.Timestamp.Time.UnixNano(), key: rec.SeriesKey}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
			first[k] = rec
		}
		groups[k] = append(groups[k], rec.Value)
	}
	for _, k := range order {
		rec := first[k]
		if v, ok := median(groups[k]); ok {
			rec.Value = v
			out = append(out, rec)
		}
	}
	for _, rec := range table {
		if !rec.Timestamp.Valid {
			out = append(out, rec)
		}
	}
	return out
}
