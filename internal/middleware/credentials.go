package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireCredentials rejects every request with 503 while credErr is non-nil.
// credErr is fixed at startup.
func RequireCredentials(credErr error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if credErr != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": credErr.Error()})
			return
		}
		c.Next()
	}
}
