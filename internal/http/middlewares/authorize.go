package middlewares

import (
	"net/http"

	"github.com/geocoder89/scheduler/internal/authz"
	"github.com/gin-gonic/gin"
)

// Authorize gates a route on a static requirement. Ownership checks that need
// the stored resource happen in the handler through authz.Authorize.
func Authorize(req authz.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, ok := IdentityFromContext(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if !authz.Authorize(claim, req) {
			abortError(c, http.StatusForbidden, "forbidden", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}
