package energy

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

// Source identifies one upstream time-series feed.
type Source string

const (
	SourceLoad    Source = "load"
	SourceRatio   Source = "ratio"
	SourceWeather Source = "weather"
)

// Sources lists the feeds in the order the dashboard fetches them.
var Sources = []Source{SourceLoad, SourceRatio, SourceWeather}

// ParseSource validates a source name coming from the outside world.
func ParseSource(raw string) (Source, error) {
	switch s := Source(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceLoad, SourceRatio, SourceWeather:
		return s, nil
	default:
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown source %q", raw), nil)
	}
}

// Aggregation is the rule a pivot applies to duplicate (timestamp, key) cells.
func (s Source) Aggregation() Aggregation {
	if s == SourceWeather {
		return AggregateMedian
	}
	return AggregateUnique
}

// Observation is one upstream row: a time-of-day key and its per-series values.
type Observation struct {
	TimeOfDay string
	Values    map[string]float64
}

// LongRecord is a single (timestamp, series key, value) row. Timestamp is
// null when the upstream time-of-day key could not be parsed.
type LongRecord struct {
	Timestamp null.Time `json:"timestamp"`
	SeriesKey string    `json:"seriesKey"`
	Value     float64   `json:"value"`
}

// LongTable is an ordered sequence of long-form records.
type LongTable []LongRecord

// Valid returns the records carrying a usable timestamp and how many were dropped.
func (t LongTable) Valid() (LongTable, int) {
	out := make(LongTable, 0, len(t))
	for _, rec := range t {
		if rec.Timestamp.Valid {
			out = append(out, rec)
		}
	}
	return out, len(t) - len(out)
}

// WideRow holds the values of one timestamp keyed by column name. Missing
// cells are absent from Values.
type WideRow struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// WideTable is indexed by strictly increasing timestamp with one column per series.
type WideTable struct {
	Columns []string  `json:"columns"`
	Rows    []WideRow `json:"rows"`
}

// HasColumn reports whether name is one of the table's columns.
func (t WideTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t WideTable) Len() int {
	return len(t.Rows)
}

// DateRange is an ascending, gap-free sequence of civil dates.
type DateRange []time.Time

// Strings renders the range as YYYY/MM/DD values.
func (r DateRange) Strings() []string {
	out := make([]string, 0, len(r))
	for _, d := range r {
		out = append(out, d.Format(ReferenceLayout))
	}
	return out
}

// Request captures the query accepted by the dashboard service.
type Request struct {
	Date            string `form:"date" json:"date"`
	Lookback        int    `form:"lookback" json:"lookback"`
	WeatherLookback int    `form:"weatherLookback" json:"weatherLookback"`
}

// ChartKind names a chart shape understood by the presentation layer.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartArea ChartKind = "area"
	ChartBar  ChartKind = "bar"
)

// Chart tells the presentation layer which columns of which table to draw.
type Chart struct {
	Kind    ChartKind `json:"kind"`
	Title   string    `json:"title"`
	Table   Source    `json:"table"`
	Columns []string  `json:"columns"`
}

// Metric is a "current value vs previous row" callout.
type Metric struct {
	Label  string  `json:"label"`
	Column string  `json:"column"`
	Value  float64 `json:"value"`
	Delta  float64 `json:"delta"`
	Unit   string  `json:"unit"`
}

// Dashboard is the fully shaped payload handed to the presentation layer.
type Dashboard struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Dates       []string  `json:"dates"`
	Load        WideTable `json:"load"`
	Ratio       WideTable `json:"ratio"`
	Weather     WideTable `json:"weather"`
	Aligned     WideTable `json:"aligned"`
	Charts      []Chart   `json:"charts"`
	Metrics     []Metric  `json:"metrics"`
}

// Config wires runtime settings for the energy domain.
type Config struct {
	Location        *time.Location
	DefaultLookback int
	MaxLookback     int
	WeatherLookback int
	Labels          map[string]string
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = DefaultLocation
	}
	if c.DefaultLookback <= 0 {
		c.DefaultLookback = 7
	}
	if c.MaxLookback <= 0 {
		c.MaxLookback = 7
	}
	if c.WeatherLookback <= 0 {
		c.WeatherLookback = 1
	}
	if c.Labels == nil {
		c.Labels = DefaultLabels()
	}
	return c
}

// DefaultLocation is the time zone the upstream feeds report in.
var DefaultLocation = time.FixedZone("Asia/Taipei", 8*60*60)
