package httpapi

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/japan-temperature/internal/temperature"
)

var validate = validator.New()

// Service is the part of temperature.Service the routes depend on.
type Service interface {
	SearchCities(term string) ([]string, error)
	ListYears() ([]int, error)
	Query(q temperature.Query) (temperature.Series, error)
	Describe(series temperature.Series) (temperature.Stats, error)
	Compare(mode temperature.Mode, cities []string, year int, month time.Month) ([]temperature.Series, error)
	Status() temperature.Status
	CheckReadiness(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	app.Get("/readyz", func(c *fiber.Ctx) error {
		if err := service.CheckReadiness(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := service.SearchCities(c.Query("search"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/years", func(c *fiber.Ctx) error {
		years, err := service.ListYears()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"years": years})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(service.Status())
	})

	v1.Get("/temperatures", func(c *fiber.Ctx) error {
		q, err := parseSeriesQuery(c)
		if err != nil {
			return toHTTPError(err)
		}
		series, err := service.Query(q.toQuery(c.Query("city")))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/temperatures/describe", func(c *fiber.Ctx) error {
		q, err := parseSeriesQuery(c)
		if err != nil {
			return toHTTPError(err)
		}
		series, err := service.Query(q.toQuery(c.Query("city")))
		if err != nil {
			return toHTTPError(err)
		}
		stats, err := service.Describe(series)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"city":     series.City,
			"mode":     q.Mode.String(),
			"describe": newStatsResponse(stats),
		})
	})

	v1.Get("/temperatures/compare", func(c *fiber.Ctx) error {
		q, err := parseSeriesQuery(c)
		if err != nil {
			return toHTTPError(err)
		}
		cities := strings.Split(c.Query("city"), ",")
		series, err := service.Compare(q.Mode, cities, q.Year, q.Month)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"mode":   q.Mode.String(),
			"series": series,
		})
	})
}

// seriesQuery holds the scope parameters shared by the temperature endpoints.
type seriesQuery struct {
	Mode  temperature.Mode
	Year  int        `validate:"required_unless=Mode 0"`
	Month time.Month `validate:"required_if=Mode 2"`
}

func (q seriesQuery) toQuery(city string) temperature.Query {
	return temperature.Query{Mode: q.Mode, City: city, Year: q.Year, Month: q.Month}
}

func parseSeriesQuery(c *fiber.Ctx) (seriesQuery, error) {
	var q seriesQuery

	mode, err := temperature.ParseMode(c.Query("mode"))
	if err != nil {
		return q, err
	}
	q.Mode = mode

	if q.Mode != temperature.ModeOverall {
		if q.Year, err = parseNumber(c.Query("year"), "year"); err != nil {
			return q, err
		}
	}
	if q.Mode == temperature.ModeMonth {
		month, err := parseNumber(c.Query("month"), "month")
		if err != nil {
			return q, err
		}
		q.Month = time.Month(month)
	}

	if err := validate.Struct(q); err != nil {
		return q, &temperature.InvalidInputError{Field: "query", Reason: err.Error()}
	}
	return q, nil
}

func parseNumber(s, field string) (int, error) {
	if s == "" {
		return 0, &temperature.InvalidInputError{Field: field, Reason: "is required"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &temperature.InvalidInputError{Field: field, Reason: "must be a number"}
	}
	return n, nil
}

// statsResponse carries Stats with NaN encoded as null.
type statsResponse struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
	Min  *float64 `json:"min"`
	P25  *float64 `json:"25%"`
	P50  *float64 `json:"50%"`
	P75  *float64 `json:"75%"`
	Max  *float64 `json:"max"`
}

func newStatsResponse(s temperature.Stats) statsResponse {
	return statsResponse{
		Mean: finite(s.Mean),
		Std:  finite(s.Std),
		Min:  finite(s.Min),
		P25:  finite(s.P25),
		P50:  finite(s.P50),
		P75:  finite(s.P75),
		Max:  finite(s.Max),
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toHTTPError(err error) error {
	var (
		notFound *temperature.CityNotFoundError
		invalid  *temperature.InvalidInputError
	)
	switch {
	case errors.As(err, &invalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, temperature.ErrEmptySeries):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "no data for the requested range")
	case errors.Is(err, temperature.ErrStoreNotLoaded):
		return fiber.NewError(fiber.StatusServiceUnavailable, "temperature data is not loaded yet")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query temperature data")
	}
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
