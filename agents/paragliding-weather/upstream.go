package paraglidingweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"paraglide-stack/shared/monitoring"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy configures retries of 429, 5xx and network failures.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// statusError is a retryable HTTP status seen by the breaker.
type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.code)
}

// upstream performs GET requests against one Open-Meteo endpoint behind a
// circuit breaker with exponential backoff.
type upstream struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	retry    RetryPolicy
	metrics  *monitoring.Metrics
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func newUpstream(endpoint string, client *http.Client, retry RetryPolicy, metrics *monitoring.Metrics, logger *slog.Logger) *upstream {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "endpoint", name, "from", from.String(), "to", to.String())
		},
	})

	return &upstream{
		endpoint: endpoint,
		client:   client,
		breaker:  cb,
		retry:    retry,
		metrics:  metrics,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// getJSON fetches url and decodes the body into out. Errors wrap one of the
// failure classes.
func (u *upstream) getJSON(ctx context.Context, url string, out any) error {
	start := time.Now()
	err := u.fetch(ctx, url, out)
	if u.metrics == nil {
		return err
	}
	u.metrics.UpstreamRequests.WithLabelValues(u.endpoint, outcome(err)).Inc()
	u.metrics.UpstreamDuration.WithLabelValues(u.endpoint).Observe(time.Since(start).Seconds())
	return err
}

func (u *upstream) fetch(ctx context.Context, url string, out any) error {
	resp, err := u.do(ctx, url)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrUpstream, apiReason(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrUpstream, u.endpoint, err)
	}
	return nil
}

func (u *upstream) do(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	maxAttempts := 1 + u.retry.MaxRetries

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", u.endpoint, err)
		}

		resp, err := u.breaker.Execute(func() (*http.Response, error) {
			r, doErr := u.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				se := &statusError{code: r.StatusCode, retryAfter: retryAfter(r)}
				io.Copy(io.Discard, r.Body)
				r.Body.Close()
				return nil, se
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			return nil, err
		}

		if attempt < maxAttempts-1 {
			wait := u.backoff(attempt, err)
			u.logger.Debug("retrying upstream request", "endpoint", u.endpoint, "attempt", attempt+1, "wait", wait, "error", err)
			if err := u.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

// backoff honours Retry-After, otherwise uses exponential backoff with
// jitter clamped to [MinWait, MaxWait].
func (u *upstream) backoff(attempt int, err error) time.Duration {
	var se *statusError
	if errors.As(err, &se) && se.retryAfter > 0 {
		return min(se.retryAfter, u.retry.MaxWait)
	}

	base := float64(u.retry.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(u.retry.MaxWait))
	minWait := float64(u.retry.MinWait)
	if base <= minWait {
		return u.retry.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

func retryAfter(r *http.Response) time.Duration {
	v := r.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

// apiReason extracts Open-Meteo's {"error":true,"reason":"..."} message.
func apiReason(r *http.Response) string {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err == nil && body.Reason != "" {
		return fmt.Sprintf("status %d: %s", r.StatusCode, body.Reason)
	}
	return fmt.Sprintf("status %d", r.StatusCode)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
