package middlewares

import (
	"github.com/gin-gonic/gin"
)

// abortError stops the chain with the same envelope the handlers write.
func abortError(c *gin.Context, status int, code, message string) {
	reqID := c.GetString(CtxRequestID)

	c.AbortWithStatusJSON(status, gin.H{
		"message": message,
		"error": gin.H{
			"code":      code,
			"requestId": reqID,
		},
	})
}
