package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details), zap.Int("status", status))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError writes err using its kind to pick the status code.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Message: MessageOf(err), Kind: string(KindOf(err))}
	var appErr *AppError
	if errors.As(err, &appErr) {
		resp.Errors = appErr.Details
		if appErr.Err != nil {
			resp.Details = appErr.Err.Error()
		}
	}
	if status >= http.StatusInternalServerError {
		GetLogger().Error(resp.Message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		GetLogger().Warn(resp.Message, zap.String("kind", resp.Kind), zap.String("errors", strings.Join(resp.Errors, "; ")))
	}
	c.JSON(status, resp)
}
