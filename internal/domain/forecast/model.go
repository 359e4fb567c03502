package forecast

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
)

// Kind names one output of a forecast run.
type Kind string

const (
	KindWeeklyLoad   Kind = "weekly_load_pred"
	KindMonthlyLoad  Kind = "monthly_load_pred"
	KindDailyWeather Kind = "daily_weather_pred"
	KindWeatherZip   Kind = "weather"
	KindManifest     Kind = "manifest"
)

// Extension returns the file extension used for the kind.
func (k Kind) Extension() string {
	if k == KindWeatherZip {
		return ".zip"
	}
	return ".csv"
}

// ContentType returns the MIME type written to the sink.
func (k Kind) ContentType() string {
	if k == KindWeatherZip {
		return "application/zip"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds the dated output name, e.g. 20240305_weekly_load_pred.csv.
func FileName(date time.Time, kind Kind) string {
	return date.Format("20060102") + "_" + string(kind) + kind.Extension()
}

// Grid is a parsed HTML table with spans already expanded.
type Grid struct {
	Header []string
	Rows   [][]string
}

// WeatherRow is one (county, period, day) temperature forecast. Bounds are
// null when the cell carried no number.
type WeatherRow struct {
	County string
	Period string
	Date   time.Time
	Low    null.Float
	High   null.Float
}

// StoredObject describes a blob written to a sink.
type StoredObject struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

// Artifact is one manifest line.
type Artifact struct {
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Manifest summarises a run.
type Manifest struct {
	RunID     string     `json:"runId"`
	Date      time.Time  `json:"date"`
	Artifacts []Artifact `json:"artifacts"`
}

// LoadSource downloads Taipower's load forecasts as raw CSV records.
type LoadSource interface {
	Weekly(ctx context.Context) ([][]string, error)
	Monthly(ctx context.Context) ([][]string, error)
}

// WeatherSource downloads the CWB forecasts.
type WeatherSource interface {
	WeekTable(ctx context.Context) (Grid, error)
	Archive(ctx context.Context) ([]byte, error)
}

// Sink persists output files.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (StoredObject, error)
}

// Config drives a forecast run.
type Config struct {
	Location *time.Location
	Prefix   string
}
