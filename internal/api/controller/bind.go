package controller

import (
	"errors"
	"io"
	"net/http"

	"ctchen222/bookshelf/internal/api/apperr"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into obj. An empty body leaves obj
// untouched so that missing fields are reported by the services.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid request body").WithCause(err)
	}
	return nil
}
