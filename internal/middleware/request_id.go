package middleware

import (
	"cardAdvisor/business/recommendation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID reuses an inbound X-Request-ID or mints one, echoes it back and
// stores it on the request context for log correlation.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set("request_id", id)
			c.SetRequest(req.WithContext(recommendation.WithRequestID(req.Context(), id)))

			return next(c)
		}
	}
}
