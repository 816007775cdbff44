package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse writes body as a 200 JSON response.
func SuccessResponse(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// SuccessAck writes {"success": true}.
func SuccessAck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ErrorResponse writes body with the given status code.
func ErrorResponse(c *gin.Context, code int, body gin.H) {
	c.JSON(code, body)
}
