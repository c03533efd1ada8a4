package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// RateLimited emits a 429 with a Retry-After header (seconds).
func RateLimited(c *gin.Context, code string, message string, retryAfterSeconds int64) {
	if retryAfterSeconds > 0 {
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
	}
	c.JSON(429, gin.H{
		"success": false,
		"error": gin.H{
			"code":        code,
			"message":     message,
			"retry_after": retryAfterSeconds,
		},
	})
}
