package forecast

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

const (
	countyColumn = "縣市"
	periodColumn = "時間"
	weekdayMark  = "星期"
)

var weatherHeader = []string{countyColumn, periodColumn, "Date", "Temperature_low", "Temperature_high"}

var (
	temperatureRange  = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*[-~～]\s*(-?\d+(?:\.\d+)?)`)
	temperatureSingle = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// DropIncomplete removes records that are shorter than the widest record or
// that hold an empty field.
func DropIncomplete(records [][]string) [][]string {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	out := make([][]string, 0, len(records))
outer:
	for _, rec := range records {
		if len(rec) < width {
			continue
		}
		for _, field := range rec {
			if strings.TrimSpace(field) == "" {
				continue outer
			}
		}
		trimmed := make([]string, len(rec))
		for i, field := range rec {
			trimmed[i] = strings.TrimSpace(field)
		}
		out = append(out, trimmed)
	}
	return out
}

// EncodeIndexed writes records as CSV under a positional 0,1,2,... header.
func EncodeIndexed(records [][]string) ([]byte, error) {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	header := make([]string, width)
	for i := range header {
		header[i] = strconv.Itoa(i)
	}
	return encode(header, records)
}

// MeltWeather turns the county by day grid into one row per (county,
// period, day). Day headers such as "10/20星期五" are resolved against year.
func MeltWeather(grid Grid, year int, loc *time.Location) ([]WeatherRow, error) {
	countyIdx, periodIdx := -1, -1
	type dayColumn struct {
		idx  int
		date time.Time
	}
	var days []dayColumn
	for i, h := range grid.Header {
		label := strings.TrimSpace(strings.SplitN(h, weekdayMark, 2)[0])
		switch label {
		case countyColumn:
			countyIdx = i
		case periodColumn:
			periodIdx = i
		default:
			date, err := time.ParseInLocation("2006/1/2", fmt.Sprintf("%d/%s", year, label), loc)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeParse, fmt.Sprintf("weather header %q is not a month/day", h), err)
			}
			days = append(days, dayColumn{idx: i, date: date})
		}
	}
	if countyIdx < 0 || periodIdx < 0 {
		return nil, apperrors.Wrap(apperrors.CodeSchema, "weather table needs 縣市 and 時間 columns", nil)
	}
	if len(days) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeSchema, "weather table has no day columns", nil)
	}

	out := make([]WeatherRow, 0, len(days)*len(grid.Rows))
	for _, day := range days {
		for _, row := range grid.Rows {
			low, high := splitTemperature(cell(row, day.idx))
			out = append(out, WeatherRow{
				County: cell(row, countyIdx),
				Period: cell(row, periodIdx),
				Date:   day.date,
				Low:    low,
				High:   high,
			})
		}
	}
	return out, nil
}

// EncodeWeather writes melted weather rows as CSV.
func EncodeWeather(rows []WeatherRow) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.County,
			r.Period,
			r.Date.Format("2006-01-02"),
			formatFloat(r.Low),
			formatFloat(r.High),
		})
	}
	return encode(weatherHeader, records)
}

func encodeManifest(m Manifest) ([]byte, error) {
	records := make([][]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		records = append(records, []string{m.RunID, a.Name, string(a.Kind), strconv.FormatInt(a.Bytes, 10), a.SHA256})
	}
	return encode([]string{"run_id", "file", "kind", "bytes", "sha256"}, records)
}

func encode(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitTemperature reads "low - high" into its two bounds. Either bound may
// be negative; a lone reading fills only the low bound.
func splitTemperature(raw string) (null.Float, null.Float) {
	if m := temperatureRange.FindStringSubmatch(raw); m != nil {
		return parseBound(m[1]), parseBound(m[2])
	}
	if m := temperatureSingle.FindString(raw); m != "" {
		return parseBound(m), null.Float{}
	}
	return null.Float{}, null.Float{}
}

func parseBound(s string) null.Float {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func formatFloat(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', 1, 64)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
