package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", "If-None-Match", requestIDHeader}, ",")
	corsExposed = strings.Join([]string{"ETag", "Retry-After", requestIDHeader}, ",")
)

// CORS lets the configured browser origins call the API with credentials,
// which the session cookie needs. A preflight ends here with 204; any other
// OPTIONS request is routed normally.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Vary", "Origin")

		origin := ctx.GetHeader("Origin")
		if origin == "" || !slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Expose-Headers", corsExposed)

		preflight := ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != ""
		if !preflight {
			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Methods", corsMethods)
		ctx.Header("Access-Control-Allow-Headers", corsHeaders)
		ctx.Header("Access-Control-Max-Age", "600")
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
