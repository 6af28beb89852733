package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"negprice/internal/api/models"
)

// ErrorHandler recovers panics into a uniform JSON error body.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.JSON(http.StatusInternalServerError, models.Errorf("INTERNAL_ERROR", msg))
		c.Abort()
	})
}
