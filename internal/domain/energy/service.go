package energy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
	"github.com/lassnet/powerdash/pkg/metrics"
)

// Service exposes the dashboard data pipeline.
type Service interface {
	Dashboard(ctx context.Context, req Request) (Dashboard, error)
	Series(ctx context.Context, source Source, req Request) (WideTable, error)
}

type service struct {
	cfg     Config
	fetcher DayFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires up the energy dashboard domain.
func NewService(cfg Config, fetcher DayFetcher, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg.withDefaults(),
		fetcher: fetcher,
		logger:  logger.With("component", "energy.service"),
		now:     time.Now,
	}
}

type window struct {
	reference string
	lookback  int
}

func (s *service) Dashboard(ctx context.Context, req Request) (Dashboard, error) {
	main, weather, err := s.windows(req)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now().In(s.cfg.Location)

	dates, err := Resolve(main.reference, main.lookback, now)
	if err != nil {
		return Dashboard{}, err
	}
	weatherDates, err := Resolve(weather.reference, weather.lookback, now)
	if err != nil {
		return Dashboard{}, err
	}

	load, err := s.table(ctx, SourceLoad, dates)
	if err != nil {
		return Dashboard{}, err
	}
	ratio, err := s.table(ctx, SourceRatio, dates)
	if err != nil {
		return Dashboard{}, err
	}
	weatherTable, err := s.table(ctx, SourceWeather, weatherDates)
	if err != nil {
		return Dashboard{}, err
	}

	aligned, err := Align(load, ratio, weatherTable)
	if err != nil {
		return Dashboard{}, err
	}
	weatherMetrics, err := s.weatherMetrics(weatherTable)
	if err != nil {
		return Dashboard{}, err
	}

	s.logger.Info("dashboard assembled",
		"dates", len(dates),
		"loadRows", load.Len(),
		"ratioRows", ratio.Len(),
		"weatherRows", weatherTable.Len(),
	)
	return Dashboard{
		GeneratedAt: now,
		Dates:       dates.Strings(),
		Load:        load,
		Ratio:       ratio,
		Weather:     weatherTable,
		Aligned:     aligned,
		Charts:      charts(ratio),
		Metrics:     weatherMetrics,
	}, nil
}

func (s *service) Series(ctx context.Context, source Source, req Request) (WideTable, error) {
	main, weather, err := s.windows(req)
	if err != nil {
		return WideTable{}, err
	}
	w := main
	if source == SourceWeather && req.Lookback <= 0 && strings.TrimSpace(req.Date) == "" {
		w = weather
	}
	dates, err := Resolve(w.reference, w.lookback, s.now().In(s.cfg.Location))
	if err != nil {
		return WideTable{}, err
	}
	return s.table(ctx, source, dates)
}

// windows validates the request and decides the date window of the
// generation feeds and of the weather feed. A date with no lookback selects
// that single day for every feed.
func (s *service) windows(req Request) (window, window, error) {
	reference := strings.TrimSpace(req.Date)
	if reference != "" {
		if _, err := time.Parse(ReferenceLayout, reference); err != nil {
			return window{}, window{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date must be formatted as YYYY/MM/DD", err)
		}
	}
	if req.Lookback < 0 || req.Lookback > s.cfg.MaxLookback {
		return window{}, window{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("lookback must be between 1 and %d", s.cfg.MaxLookback), nil)
	}
	if req.WeatherLookback < 0 || req.WeatherLookback > s.cfg.MaxLookback {
		return window{}, window{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("weatherLookback must be between 1 and %d", s.cfg.MaxLookback), nil)
	}

	if reference != "" && req.Lookback == 0 {
		single := window{reference: reference}
		return single, single, nil
	}

	main := window{reference: reference, lookback: req.Lookback}
	if main.lookback == 0 {
		main.lookback = s.cfg.DefaultLookback
	}
	weather := window{reference: reference, lookback: req.WeatherLookback}
	if weather.lookback == 0 {
		weather.lookback = s.cfg.WeatherLookback
	}
	return main, weather, nil
}

func (s *service) table(ctx context.Context, source Source, dates DateRange) (WideTable, error) {
	progress := func(src Source, done, total int) {
		s.logger.Debug("series day fetched", "source", src, "done", done, "total", total)
	}
	long, err := Aggregate(ctx, s.fetcher, source, dates, progress)
	if err != nil {
		s.logger.Error("series aggregation failed", "source", source, "error", err)
		return WideTable{}, err
	}
	valid, dropped := long.Valid()
	if dropped > 0 {
		s.logger.Warn("records with unparseable timestamps dropped", "source", source, "dropped", dropped)
		metrics.AddDropped(string(source), dropped)
	}
	wide, err := PivotAndLabel(valid, source, s.cfg.Labels)
	if err != nil {
		s.logger.Error("series reshaping failed", "source", source, "error", err)
		return WideTable{}, err
	}
	return wide, nil
}

func charts(ratio WideTable) []Chart {
	ratioColumns := make([]string, len(ratio.Columns))
	copy(ratioColumns, ratio.Columns)
	regions := make([]string, len(RegionColumns))
	copy(regions, RegionColumns)
	return []Chart{
		{Kind: ChartLine, Title: "總用電量", Table: SourceLoad, Columns: []string{TotalLoadColumn}},
		{Kind: ChartArea, Title: "發電結構", Table: SourceRatio, Columns: ratioColumns},
		{Kind: ChartBar, Title: "區域用電量", Table: SourceLoad, Columns: regions},
	}
}

func (s *service) weatherMetrics(table WideTable) ([]Metric, error) {
	callouts := []struct {
		label  string
		column string
		unit   string
		scale  int64
	}{
		{label: "Temperature", column: TemperatureColumn, unit: "°C", scale: 1},
		{label: "Wind", column: WindSpeedColumn, unit: "mph", scale: 1},
		{label: "Humidity", column: HumidityColumn, unit: "%", scale: 100},
	}
	out := make([]Metric, 0, len(callouts))
	for _, c := range callouts {
		value, delta, err := Latest(table, c.column)
		if err != nil {
			return nil, err
		}
		scale := decimal.NewFromInt(c.scale)
		v, _ := decimal.NewFromFloat(value).Mul(scale).Round(2).Float64()
		d, _ := decimal.NewFromFloat(delta).Mul(scale).Round(2).Float64()
		out = append(out, Metric{Label: c.label, Column: c.column, Value: v, Delta: d, Unit: c.unit})
	}
	return out, nil
}
