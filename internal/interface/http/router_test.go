package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lassnet/powerdash/internal/domain/energy"
	"github.com/lassnet/powerdash/internal/infra/config"
	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

func TestRouter_DashboardSuccess(t *testing.T) {
	svc := &stubEnergy{
		dashboardFn: func(ctx context.Context, req energy.Request) (energy.Dashboard, error) {
			require.Equal(t, 3, req.Lookback)
			require.Equal(t, "2024/05/01", req.Date)
			return energy.Dashboard{Dates: []string{"2024/05/01"}, Load: sampleTable()}, nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/dashboard?lookback=3&date=2024/05/01", newRouterUnderTest(t, svc, false))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotEmpty(t, recorder.Header().Get(requestIDHeader))

	var got energy.Dashboard
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, []string{"2024/05/01"}, got.Dates)
	require.Len(t, got.Load.Rows, 2)
}

func TestRouter_DashboardInvalidQuery(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/api/v1/dashboard?lookback=abc", newRouterUnderTest(t, &stubEnergy{}, false))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_DashboardErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.Wrap(apperrors.CodeInvalidInput, "lookback must be between 1 and 7", nil), http.StatusBadRequest, "invalid_request"},
		{energy.NewFetchError(energy.SourceLoad, time.Now(), http.StatusInternalServerError, nil), http.StatusBadGateway, apperrors.CodeFetch},
		{apperrors.Wrap(apperrors.CodeSchema, "load table is missing region column", nil), http.StatusBadGateway, apperrors.CodeSchema},
		{apperrors.Wrap(apperrors.CodeParse, "decode load payload", nil), http.StatusBadGateway, apperrors.CodeParse},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tc := range cases {
		svc := &stubEnergy{
			dashboardFn: func(ctx context.Context, req energy.Request) (energy.Dashboard, error) {
				return energy.Dashboard{}, tc.err
			},
		}
		recorder := performRequest(http.MethodGet, "/api/v1/dashboard", newRouterUnderTest(t, svc, false))
		require.Equal(t, tc.status, recorder.Code, tc.code)
		require.Equal(t, tc.code, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
	}
}

func TestRouter_SeriesUnknownSource(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/api/v1/series/solar", newRouterUnderTest(t, &stubEnergy{}, false))
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "unknown_source", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_SeriesSuccess(t *testing.T) {
	svc := &stubEnergy{
		seriesFn: func(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error) {
			require.Equal(t, energy.SourceWeather, source)
			require.Equal(t, 2, req.WeatherLookback)
			return sampleTable(), nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/series/weather?weatherLookback=2", newRouterUnderTest(t, svc, false))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Source energy.Source    `json:"source"`
		Table  energy.WideTable `json:"table"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, energy.SourceWeather, got.Source)
	require.Equal(t, []string{"溫度", "風速"}, got.Table.Columns)
}

func TestRouter_ExportCSV(t *testing.T) {
	svc := &stubEnergy{
		seriesFn: func(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error) {
			return sampleTable(), nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/series/load/export?format=csv", newRouterUnderTest(t, svc, false))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Disposition"), ".csv")

	records, err := csv.NewReader(bytes.NewReader(recorder.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"datetime", "溫度", "風速"},
		{"2024-05-01 00:00:00", "27.5", "3"},
		{"2024-05-01 01:00:00", "28", ""},
	}, records)
}

func TestRouter_ExportXLSX(t *testing.T) {
	svc := &stubEnergy{
		seriesFn: func(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error) {
			return sampleTable(), nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/series/ratio/export", newRouterUnderTest(t, svc, false))
	require.Equal(t, http.StatusOK, recorder.Code)

	f, err := excelize.OpenReader(bytes.NewReader(recorder.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("ratio")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"datetime", "溫度", "風速"}, rows[0])
	require.Equal(t, "27.5", rows[1][1])
}

func TestRouter_ExportUnsupportedFormat(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/api/v1/series/load/export?format=pdf", newRouterUnderTest(t, &stubEnergy{}, false))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	handler := NewHandler(&stubEnergy{}, newTestLogger())
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := NewRouter(cfg, handler, newTestLogger())

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/api/v1/dashboard", server).Code)
	recorder := performRequest(http.MethodGet, "/api/v1/dashboard", server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/healthz", server).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, &stubEnergy{}, false).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Gzip(t *testing.T) {
	big := energy.WideTable{Columns: []string{"溫度"}}
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, energy.DefaultLocation)
	for i := 0; i < 500; i++ {
		big.Rows = append(big.Rows, energy.WideRow{Timestamp: start.Add(time.Duration(i) * time.Minute), Values: map[string]float64{"溫度": 25}})
	}
	svc := &stubEnergy{
		seriesFn: func(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error) {
			return big, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/series/weather", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc, true).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Contains(t, string(body), `"source":"weather"`)
}

func TestRouter_Metrics(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/metrics", newRouterUnderTest(t, &stubEnergy{}, false))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestIPRateLimiterRefills(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	require.Len(t, limiter.visitors, 1)
}

func performRequest(method, path string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc energy.Service, gzip bool) *http.Server {
	t.Helper()
	handler := NewHandler(svc, newTestLogger())
	cfg := testConfig()
	cfg.HTTP.Gzip = gzip
	return NewRouter(cfg, handler, newTestLogger())
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func sampleTable() energy.WideTable {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, energy.DefaultLocation)
	return energy.WideTable{
		Columns: []string{"溫度", "風速"},
		Rows: []energy.WideRow{
			{Timestamp: t0, Values: map[string]float64{"溫度": 27.5, "風速": 3}},
			{Timestamp: t0.Add(time.Hour), Values: map[string]float64{"溫度": 28}},
		},
	}
}

type stubEnergy struct {
	dashboardFn func(ctx context.Context, req energy.Request) (energy.Dashboard, error)
	seriesFn    func(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error)
}

func (s *stubEnergy) Dashboard(ctx context.Context, req energy.Request) (energy.Dashboard, error) {
	if s.dashboardFn != nil {
		return s.dashboardFn(ctx, req)
	}
	return energy.Dashboard{}, nil
}

func (s *stubEnergy) Series(ctx context.Context, source energy.Source, req energy.Request) (energy.WideTable, error) {
	if s.seriesFn != nil {
		return s.seriesFn(ctx, source, req)
	}
	return energy.WideTable{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
