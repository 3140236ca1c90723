package paraglidingweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"paraglide-stack/shared/config"
	"paraglide-stack/shared/flyability"
	"paraglide-stack/shared/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestForecastClient(t *testing.T, url string, maxRetries int, metrics *monitoring.Metrics) *ForecastClient {
	t.Helper()
	c := NewForecastClient(&config.ForecastConfig{
		WeatherURL: url,
		Days:       3,
		Timeout:    time.Second,
		MaxRetries: maxRetries,
	}, metrics, discardLogger())
	c.up.sleep = noSleep
	return c
}

func TestForecastClient_DecodesResponse(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{
			"latitude":        q.Get("latitude"),
			"wind_speed_unit": q.Get("wind_speed_unit"),
			"timezone":        q.Get("timezone"),
			"forecast_days":   q.Get("forecast_days"),
			"hourly":          q.Get("hourly"),
		}
		w.Write(forecastJSON(t, "Europe/Paris", []string{"2025-06-14"}, allHours(calm())))
	}))
	defer srv.Close()

	metrics := monitoring.NewMetricsForTesting()
	f, err := newTestForecastClient(t, srv.URL, 0, metrics).Forecast(context.Background(), annecy)
	require.NoError(t, err)

	assert.Equal(t, "45.8127", query["latitude"])
	assert.Equal(t, "kmh", query["wind_speed_unit"])
	assert.Equal(t, "auto", query["timezone"])
	assert.Equal(t, "3", query["forecast_days"])
	assert.Contains(t, query["hourly"], "wind_speed_850hPa")

	assert.Equal(t, annecy, f.Location)
	assert.Equal(t, "Europe/Paris", f.Timezone)
	require.NotNil(t, f.ElevationM)
	assert.InDelta(t, 1250.0, *f.ElevationM, 1e-9)
	assert.Equal(t, 24, f.Series.Len())
	assert.Equal(t, "2025-06-14T11:00", f.Series.Times[11])
	assert.Equal(t, flyability.Go, flyability.ScoreHour(f.Series, 11, flyability.DefaultThresholds(), flyability.AllCategories()))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("forecast", "success")))
}

func TestForecastClient_EmptyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timezone":"UTC","hourly":{"time":[]}}`))
	}))
	defer srv.Close()

	_, err := newTestForecastClient(t, srv.URL, 0, monitoring.NewMetricsForTesting()).Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoForecast))
	assert.Equal(t, "No forecast data is available for this location.", FailureMessage(err))
}

func TestForecastClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(forecastJSON(t, "UTC", []string{"2025-06-14"}, allHours(calm())))
	}))
	defer srv.Close()

	f, err := newTestForecastClient(t, srv.URL, 3, monitoring.NewMetricsForTesting()).Forecast(context.Background(), annecy)
	require.NoError(t, err)
	assert.Equal(t, 24, f.Series.Len())
	assert.Equal(t, int32(3), hits.Load())
}

func TestForecastClient_RateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestForecastClient(t, srv.URL, 2, monitoring.NewMetricsForTesting())
	var waits []time.Duration
	c.up.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := c.Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, waits)
}

func TestForecastClient_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	_, err := newTestForecastClient(t, srv.URL, 3, monitoring.NewMetricsForTesting()).Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "Latitude must be in range")
	assert.Equal(t, int32(1), hits.Load())
}

func TestForecastClient_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestForecastClient(t, url, 1, monitoring.NewMetricsForTesting()).Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline))
	assert.Equal(t, "You appear to be offline. Check your connection and try again.", FailureMessage(err))
}

func TestForecastClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestForecastClient(t, srv.URL, 0, monitoring.NewMetricsForTesting())
	c.up.client.Timeout = 50 * time.Millisecond

	_, err := c.Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "Request timed out. The weather service is slow, try again in a moment.", FailureMessage(err))
}

func TestForecastClient_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestForecastClient(t, srv.URL, 3, monitoring.NewMetricsForTesting()).Forecast(ctx, annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestForecastClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestForecastClient(t, srv.URL, 0, monitoring.NewMetricsForTesting())
	for i := 0; i < 6; i++ {
		_, err := c.Forecast(context.Background(), annecy)
		require.True(t, errors.Is(err, ErrUpstream))
	}
	require.Equal(t, int32(6), hits.Load())

	_, err := c.Forecast(context.Background(), annecy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, int32(6), hits.Load(), "open breaker short-circuits the request")
	assert.Equal(t, "Weather data is temporarily unavailable.", FailureMessage(err))
}

func TestForecast_CurrentIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(forecastJSON(t, "Europe/Zurich", []string{"2025-06-14"}, allHours(calm())))
	}))
	defer srv.Close()

	f, err := newTestForecastClient(t, srv.URL, 0, monitoring.NewMetricsForTesting()).Forecast(context.Background(), niesen)
	require.NoError(t, err)

	// 09:40 UTC is 11:40 in Zurich during summer time.
	i, ok := f.CurrentIndex(time.Date(2025, 6, 14, 9, 40, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "2025-06-14T11:00", f.Series.Times[i])

	_, ok = f.CurrentIndex(time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limit", &statusError{code: 429}, ErrRateLimited},
		{"server error", &statusError{code: 502}, ErrUpstream},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"other", errors.New("boom"), ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(classify(tt.err), tt.want))
		})
	}

	assert.Nil(t, classify(nil))
	assert.Equal(t, context.Canceled, classify(context.Canceled))
	assert.Equal(t, "canceled", outcome(context.Canceled))
	assert.Equal(t, "", FailureMessage(nil))
}

func TestBackoff(t *testing.T) {
	u := &upstream{retry: RetryPolicy{MaxRetries: 3, MinWait: 100 * time.Millisecond, MaxWait: time.Second}}

	assert.Equal(t, 100*time.Millisecond, u.backoff(0, errors.New("x")))
	for attempt := 1; attempt < 6; attempt++ {
		d := u.backoff(attempt, errors.New("x"))
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.Equal(t, time.Second, u.backoff(0, &statusError{code: 429, retryAfter: time.Minute}))
}

func TestForecastClient_WithoutMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(forecastJSON(t, "Europe/Paris", []string{"2025-06-14"}, allHours(calm())))
	}))
	defer srv.Close()

	f, err := newTestForecastClient(t, srv.URL, 0, nil).Forecast(context.Background(), annecy)
	require.NoError(t, err)
	assert.NotNil(t, f)
}
