package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("load", resultError))
	ObserveFetch("load", errors.New("boom"), 20*time.Millisecond)
	after := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("load", resultError))
	require.Equal(t, before+1, after)
}

func TestAddDroppedIgnoresZero(t *testing.T) {
	Init()

	before := testutil.ToFloat64(droppedRecordsTotal.WithLabelValues("weather"))
	AddDropped("weather", 0)
	AddDropped("weather", 3)
	require.Equal(t, before+3, testutil.ToFloat64(droppedRecordsTotal.WithLabelValues("weather")))
}

func TestHandlerServesRegistry(t *testing.T) {
	Init()
	ObserveRequest("/api/v1/dashboard", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "powerdash_http_requests_total")
}

func TestPushForecastSendsStepSeries(t *testing.T) {
	Init()
	ObserveForecastStep("weekly_load_pred", nil, 15*time.Millisecond)

	var gotMethod, gotPath string
	var body []byte
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	require.NoError(t, PushForecast(context.Background(), gateway.URL, "powerdash_forecast"))
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/metrics/job/powerdash_forecast", gotPath)
	require.Contains(t, string(body), "powerdash_forecast_step_total")
	require.Contains(t, string(body), "weekly_load_pred")
}

func TestPushForecastReportsGatewayFailure(t *testing.T) {
	Init()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gateway.Close()

	require.Error(t, PushForecast(context.Background(), gateway.URL, "powerdash_forecast"))
}
