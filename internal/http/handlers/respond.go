package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/geocoder89/scheduler/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Envelope is the shape of every JSON response body.
type Envelope struct {
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, Envelope{Message: message, Data: data})
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, Envelope{
		Message: message,
		Error: &APIError{
			Code:      code,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusForbidden, "forbidden", "You do not have permission to perform this action", nil)
}

// RespondErr maps err onto the error taxonomy. Internal errors are logged in
// full and answered with a generic message only.
func RespondErr(ctx *gin.Context, err error) {
	status, code := apperr.Classify(err)

	if apperr.IsInternal(err) {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"method", ctx.Request.Method,
			"route", ctx.FullPath(),
			"err", err,
		)
	}

	RespondError(ctx, status, code, apperr.PublicMessage(err), nil)
}
