package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	paraglidingweather "paraglide-stack/agents/paragliding-weather"
	"paraglide-stack/internal/models"
	"paraglide-stack/shared/flyability"
)

var validate = validator.New()

// Assessor is the part of paraglidingweather.Service the routes use.
type Assessor interface {
	Home() models.Location
	Assess(ctx context.Context, loc models.Location, opts paraglidingweather.AssessOptions) (*models.FlightAdvisory, error)
	AssessHour(ctx context.Context, loc models.Location, key string, opts paraglidingweather.AssessOptions) (*models.HourReport, error)
	Favorites(ctx context.Context) []models.QuickWeatherResult
}

// LatestFunc returns the advisory of the last scheduled run, or nil.
type LatestFunc func() *models.FlightAdvisory

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Assessor, latest LatestFunc) {
	v1 := app.Group("/api/v1")

	v1.Get("/assessment", func(c *fiber.Ctx) error {
		q, err := parseSiteQuery(c, service.Home())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		advisory, err := service.Assess(c.UserContext(), q.location(), paraglidingweather.AssessOptions{Filter: q.Filter})
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(advisory)
	})

	v1.Post("/assessment", func(c *fiber.Ctx) error {
		var req assessmentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := flyability.ValidateOverride(req.Thresholds); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		opts := paraglidingweather.AssessOptions{Filter: req.Filter, Override: req.Thresholds}
		advisory, err := service.Assess(c.UserContext(), req.location(), opts)
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(advisory)
	})

	v1.Get("/assessment/hour", func(c *fiber.Ctx) error {
		q, err := parseSiteQuery(c, service.Home())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		key := c.Query("time")
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "time query parameter is required (YYYY-MM-DDTHH:MM)")
		}

		report, err := service.AssessHour(c.UserContext(), q.location(), key, paraglidingweather.AssessOptions{Filter: q.Filter})
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"home":      service.Home(),
			"favorites": service.Favorites(c.UserContext()),
		})
	})

	v1.Get("/advisory/latest", func(c *fiber.Ctx) error {
		advisory := latest()
		if advisory == nil {
			return fiber.NewError(fiber.StatusNotFound, "no advisory has been generated yet")
		}
		return c.JSON(advisory)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// upstreamError maps assessment failures to a status and a pilot-facing
// message.
func upstreamError(err error) error {
	code := fiber.StatusBadGateway
	switch {
	case errors.Is(err, paraglidingweather.ErrUnknownHour):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, paraglidingweather.ErrNoForecast):
		code = fiber.StatusNotFound
	case errors.Is(err, paraglidingweather.ErrOffline):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, paraglidingweather.ErrTimeout):
		code = fiber.StatusGatewayTimeout
	case errors.Is(err, paraglidingweather.ErrRateLimited):
		code = fiber.StatusTooManyRequests
	}
	return fiber.NewError(code, paraglidingweather.FailureMessage(err))
}

// siteQuery holds the query parameters identifying a site. Without lat and
// lon the home site is used.
type siteQuery struct {
	Name      string
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	Filter    *flyability.CategoryFilter
}

func (q siteQuery) location() models.Location {
	return models.Location{Name: q.Name, Latitude: q.Latitude, Longitude: q.Longitude}
}

func parseSiteQuery(c *fiber.Ctx, home models.Location) (siteQuery, error) {
	q := siteQuery{Name: home.Name, Latitude: home.Latitude, Longitude: home.Longitude}

	lat, lon := c.Query("lat"), c.Query("lon")
	switch {
	case lat == "" && lon == "":
	case lat == "" || lon == "":
		return q, errors.New("lat and lon must be given together")
	default:
		var err error
		if q.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
			return q, fmt.Errorf("invalid lat: %q", lat)
		}
		if q.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
			return q, fmt.Errorf("invalid lon: %q", lon)
		}
		q.Name = c.Query("name", fmt.Sprintf("%.4f, %.4f", q.Latitude, q.Longitude))
	}

	filter, err := parseFilter(c)
	if err != nil {
		return q, err
	}
	q.Filter = filter

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// parseFilter reads the wind, thermal, clouds and precip switches. Switches
// left out stay enabled; nil means no switch was given.
func parseFilter(c *fiber.Ctx) (*flyability.CategoryFilter, error) {
	f := flyability.AllCategories()
	given := false
	for _, p := range []struct {
		key string
		dst *bool
	}{
		{"wind", &f.Wind},
		{"thermal", &f.Thermal},
		{"clouds", &f.Clouds},
		{"precip", &f.Precip},
	} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", p.key, raw)
		}
		*p.dst = v
		given = true
	}
	if !given {
		return nil, nil
	}
	return &f, nil
}

// assessmentRequest is the body of POST /api/v1/assessment.
type assessmentRequest struct {
	Name       string                     `json:"name"`
	Latitude   *float64                   `json:"latitude" validate:"required,latitude"`
	Longitude  *float64                   `json:"longitude" validate:"required,longitude"`
	Filter     *flyability.CategoryFilter `json:"filter"`
	Thresholds flyability.ThresholdSet    `json:"thresholds"`
}

func (r assessmentRequest) location() models.Location {
	name := r.Name
	if name == "" {
		name = fmt.Sprintf("%.4f, %.4f", *r.Latitude, *r.Longitude)
	}
	return models.Location{Name: name, Latitude: *r.Latitude, Longitude: *r.Longitude}
}
