package middleware

import (
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records request latency per route template.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the response so the status is final.
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Response().Status)
		metrics.APILatency.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
		return nil
	}
}
