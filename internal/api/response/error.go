package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ctchen222/bookshelf/internal/api/apperr"

	"github.com/gin-gonic/gin"
)

// FailureHandler receives errors the ErrorHandler could not write because
// the response had already started.
type FailureHandler func(c *gin.Context, err error)

// Translate maps err to a status code and response body.
//
// Domain errors keep their message. Credential failures also carry a
// machine-readable code. Anything else is a 500 whose body includes the
// error's stack trace.
func Translate(err error) (int, gin.H) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, gin.H{
			"message": err.Error(),
			"stack":   fmt.Sprintf("%+v", err),
		}
	}

	status := appErr.HTTPStatus()
	switch {
	case appErr.Code == apperr.CodeCredentialsRequired:
		return status, gin.H{"code": string(appErr.Code), "message": appErr.Message}
	case status == http.StatusInternalServerError:
		return status, gin.H{"message": appErr.Message, "stack": fmt.Sprintf("%+v", err)}
	default:
		return status, gin.H{"message": appErr.Message}
	}
}

// ErrorHandler returns a middleware that shapes the last error recorded on
// the context into the response. If the handler chain already started the
// response, the error goes to next instead and nothing is written.
func ErrorHandler(next FailureHandler) gin.HandlerFunc {
	if next == nil {
		next = LogFailure
	}
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		if c.Writer.Written() {
			next(c, last.Err)
			return
		}

		status, body := Translate(last.Err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "Request failed",
				"http.method", c.Request.Method,
				"http.route", c.FullPath(),
				"error", last.Err,
			)
		}
		ErrorResponse(c, status, body)
	}
}

// LogFailure is the default FailureHandler.
func LogFailure(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "Error after response was written",
		"http.method", c.Request.Method,
		"http.route", c.FullPath(),
		"error", err,
	)
}
