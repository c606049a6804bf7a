package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *APIError   `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, envelope{Error: &APIError{Code: code, Message: message}})
}

// FromError writes the error envelope matching err and returns the status used.
func FromError(c *gin.Context, err error) int {
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		Error(c, http.StatusBadRequest, "invalid", strings.TrimSuffix(err.Error(), ": "+appErr.ErrInvalid.Error()))
		return http.StatusBadRequest
	case errors.Is(err, appErr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", "not found")
		return http.StatusNotFound
	case errors.Is(err, appErr.ErrTooMany):
		Error(c, http.StatusTooManyRequests, "too_many", appErr.ErrTooMany.Error())
		return http.StatusTooManyRequests
	default:
		Error(c, http.StatusInternalServerError, "internal", "internal error")
		return http.StatusInternalServerError
	}
}

// CSV sends body as a downloadable csv file.
func CSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
