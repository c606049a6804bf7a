package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mycontent/internal/middleware"
	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
	"github.com/xxxsen/mycontent/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status := response.FromError(c, err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	logger := logutil.GetLogger(c.Request.Context())
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", fields...)
	case status == http.StatusBadRequest:
		logger.Warn("invalid request", fields...)
	}
}

// parseID validates an identifier coming from a query, path or body before it
// reaches the recommendation engine.
func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required: %w", name, appErr.ErrInvalid)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, appErr.ErrInvalid)
	}
	return v, nil
}

// parseOptionalInt returns 0 when raw is empty.
func parseOptionalInt(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, appErr.ErrInvalid)
	}
	return v, nil
}
