package paraglidingweather

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker/v2"
)

// Upstream failure classes. Every error returned by the Open-Meteo clients
// wraps exactly one of them.
var (
	ErrOffline     = errors.New("weather service unreachable")
	ErrTimeout     = errors.New("weather service timed out")
	ErrRateLimited = errors.New("weather service rate limit exceeded")
	ErrUpstream    = errors.New("weather service error")
	ErrNoForecast  = errors.New("no forecast data for location")
)

// FailureMessage returns the text shown to a pilot for a failed fetch.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOffline):
		return "You appear to be offline. Check your connection and try again."
	case errors.Is(err, ErrTimeout):
		return "Request timed out. The weather service is slow, try again in a moment."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests to the weather service. Wait a minute and try again."
	case errors.Is(err, ErrNoForecast):
		return "No forecast data is available for this location."
	default:
		return "Weather data is temporarily unavailable."
	}
}

// outcome is the metrics label for a request result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrOffline):
		return "offline"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNoForecast):
		return "no_forecast"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "upstream"
	}
}

// classify maps a transport error onto the failure classes.
func classify(err error) error {
	var se *statusError
	var ne net.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &se):
		if se.code == 429 {
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &ne):
		return fmt.Errorf("%w: %w", ErrOffline, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
