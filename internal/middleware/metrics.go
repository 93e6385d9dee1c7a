package middleware

import (
	"strconv"
	"time"

	"cardAdvisor/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records latency and status for every routed request.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler pick the final status
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			metrics.HTTPRequestLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}
