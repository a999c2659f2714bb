package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	notFound := apperr.New(apperr.ErrNotFound, "user not found")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.New(apperr.ErrValidation, "bad"), http.StatusBadRequest, "invalid_request"},
		{"wrapped_not_found", fmt.Errorf("get user: %w", notFound), http.StatusNotFound, "not_found"},
		{"conflict", apperr.New(apperr.ErrConflict, "email is already in use"), http.StatusConflict, "conflict"},
		{"credentials", apperr.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := apperr.Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestPublicMessage_SanitizesInternalErrors(t *testing.T) {
	raw := errors.New(`ERROR: relation "users" does not exist (SQLSTATE 42P01)`)

	assert.Equal(t, "Internal server error", apperr.PublicMessage(raw))
	assert.Equal(t, "Internal server error", apperr.PublicMessage(fmt.Errorf("list users: %w", raw)))
}

func TestPublicMessage_UsesDomainMessage(t *testing.T) {
	err := fmt.Errorf("delete role: %w", apperr.New(apperr.ErrConflict, "role is still assigned to users"))

	assert.Equal(t, "role is still assigned to users", apperr.PublicMessage(err))
	assert.Equal(t, "forbidden", apperr.PublicMessage(apperr.ErrForbidden))
}
