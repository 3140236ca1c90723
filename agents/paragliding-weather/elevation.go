package paraglidingweather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/monitoring"
)

const earthRadiusKm = 6371.0

// ElevationClient looks up terrain elevation from the Open-Meteo elevation API.
type ElevationClient struct {
	baseURL string
	up      *upstream
}

func NewElevationClient(cfg *config.ForecastConfig, metrics *monitoring.Metrics, logger *slog.Logger) *ElevationClient {
	retry := DefaultRetryPolicy()
	retry.MaxRetries = cfg.MaxRetries

	return &ElevationClient{
		baseURL: cfg.ElevationURL,
		up:      newUpstream("elevation", &http.Client{Timeout: cfg.Timeout}, retry, metrics, logger),
	}
}

// Elevation returns the terrain height at loc in metres.
func (c *ElevationClient) Elevation(ctx context.Context, loc models.Location) (float64, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))

	var resp struct {
		Elevation []float64 `json:"elevation"`
	}
	if err := c.up.getJSON(ctx, c.baseURL+"?"+values.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("elevation for %s: %w", loc, err)
	}
	if len(resp.Elevation) == 0 {
		return 0, fmt.Errorf("elevation for %s: %w: empty response", loc, ErrUpstream)
	}
	return resp.Elevation[0], nil
}

// DistanceKm is the great-circle distance between two locations.
func DistanceKm(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dlat := (b.Latitude - a.Latitude) * math.Pi / 180
	dlon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
