package middleware

import (
	"context"
	"errors"
	"net/http"

	"cardAdvisor/business/recommendation"
	"cardAdvisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler maps errors returned by handlers to JSON responses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := classify(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", c.Get("request_id"),
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, errorResponse{Message: message})
	}
	if writeErr != nil {
		logger.Error("failed to write error response", writeErr)
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case errors.Is(err, recommendation.ErrAborted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled before completion"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
