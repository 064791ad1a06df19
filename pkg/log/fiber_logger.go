package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "suplica",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api", "endpoint"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "endpoint", "method", "code"})
)

type LoggerConfig struct {
	Name string
	// UserGetter returns the authenticated user for the log line, if any.
	UserGetter func(c *fiber.Ctx) string
	DoMetrics  bool
	// LogErrorsOnly logs successful requests at debug level.
	LogErrorsOnly bool
}

func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	if conf == nil {
		conf = &LoggerConfig{Name: "http"}
	}

	logger := slog.Default().With(slog.String("logger", conf.Name))

	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		wt := time.Since(start)

		if chainErr != nil {
			// let the error handler set the status before it is logged
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		endpoint := Endpoint(c)

		if conf.DoMetrics {
			metrics(conf.Name, endpoint, c.Method(), status, wt)
		}

		msg := fmt.Sprintf("%d %s %s %s", status, c.Method(), c.Path(), endpoint)
		l := logger

		if chainErr != nil {
			l = l.With(slog.Any("error", chainErr))
		}

		attrs := []any{
			slog.String("client", c.IP()),
			slog.Int("status", status),
			slog.Int64("ms", wt.Milliseconds()),
		}

		if conf.UserGetter != nil {
			if u := conf.UserGetter(c); u != "" {
				attrs = append(attrs, slog.String("user", u))
			}
		}

		if conf.LogErrorsOnly {
			switch {
			case status < 300:
				l.Debug(msg, attrs...)
			case status < 400:
				l.Info(msg, attrs...)
			default:
				l.Warn(msg, attrs...)
			}
		} else {
			l.Info(msg, attrs...)
		}

		return nil
	}
}

// Endpoint is the value of the endpoint query parameter or the path when there is none.
func Endpoint(c *fiber.Ctx) string {
	if e := c.Query("endpoint"); e != "" {
		return e
	}

	return c.Path()
}

func metrics(api, endpoint, method string, code int, t time.Duration) {
	httpRequestsDuration.With(prometheus.Labels{"api": api, "endpoint": endpoint}).Observe(t.Seconds())

	httpRequestsCount.With(prometheus.Labels{
		"api":      api,
		"endpoint": endpoint,
		"method":   method,
		"code":     strconv.Itoa(code),
	}).Inc()
}
