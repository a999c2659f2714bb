package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]Check
	draining func() bool
	timeout  time.Duration
}

// create a new instance of the health handler; draining may be nil
func NewHealthHandler(checks map[string]Check, draining func() bool) *HealthHandler {
	return &HealthHandler{checks: checks, draining: draining, timeout: 2 * time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	RespondOK(ctx, http.StatusOK, "ok", nil)
}

// Readyz runs every dependency check; one failure makes the instance not ready.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	// stop taking traffic as soon as shutdown starts
	if h.draining != nil && h.draining() {
		RespondError(ctx, http.StatusServiceUnavailable, "shutting_down", "shutting down", nil)
		return
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	ready := true

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
		err := h.checks[name](cctx)
		cancel()

		if err != nil {
			ready = false
			results[name] = "down"
			continue
		}
		results[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, Envelope{
			Message: "not ready",
			Data:    gin.H{"checks": results},
			Error:   &APIError{Code: "not_ready", RequestID: requestIDFrom(ctx)},
		})
		return
	}

	RespondOK(ctx, http.StatusOK, "ready", gin.H{"checks": results})
}
