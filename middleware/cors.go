package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware reflects allowed origins from CORS_ALLOWED_ORIGINS
// (comma-separated; empty allows any origin, for development).
func CORSMiddleware() gin.HandlerFunc {
	allowed := strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if len(allowed) == 1 && allowed[0] == "" {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				for _, candidate := range allowed {
					if strings.TrimSpace(candidate) == origin {
						c.Header("Access-Control-Allow-Origin", origin)
						break
					}
				}
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
