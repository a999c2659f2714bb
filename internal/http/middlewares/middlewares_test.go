package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/scheduler/internal/auth"
	"github.com/geocoder89/scheduler/internal/authz"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/gin-gonic/gin"
)

type fakeHydrator struct {
	HydrateFn func(ctx context.Context, token string) (identity.Claim, error)
}

func (f fakeHydrator) Hydrate(ctx context.Context, token string) (identity.Claim, error) {
	return f.HydrateFn(ctx, token)
}

func hydrateAs(want string, c identity.Claim) fakeHydrator {
	return fakeHydrator{HydrateFn: func(_ context.Context, token string) (identity.Claim, error) {
		if token != want {
			return identity.Claim{}, auth.ErrSessionInvalid
		}
		return c, nil
	}}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID())
	handlers := append(mw, func(c *gin.Context) {
		claim, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": claim.ID, "role": claim.Role})
	})
	r.GET("/", handlers...)
	r.POST("/", handlers...)
	r.DELETE("/", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	ada := identity.Claim{ID: "u1", Email: "ada@example.com", Role: "admin"}
	m := NewAuthMiddleware(hydrateAs("good", ada), nil)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "bearer token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "session cookie", cookie: "good", wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(m.RequireAuth())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tc.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantStatus == http.StatusUnauthorized && errorCode(t, w) != "unauthorized" {
				t.Fatalf("expected unauthorized code, body=%s", w.Body.String())
			}
			if tc.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"role":"admin"`) {
				t.Fatalf("identity not on context: %s", w.Body.String())
			}
		})
	}
}

func TestRequireAuth_StoreFailureIsInternal(t *testing.T) {
	m := NewAuthMiddleware(fakeHydrator{HydrateFn: func(context.Context, string) (identity.Claim, error) {
		return identity.Claim{}, errors.New("connection refused")
	}}, nil)

	r := newEngine(m.RequireAuth())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
}

func TestAuthorize(t *testing.T) {
	policy := authz.NewPolicy("admin")

	tests := []struct {
		name       string
		claim      identity.Claim
		wantStatus int
	}{
		{name: "admin role", claim: identity.Claim{ID: "a", Role: "admin"}, wantStatus: http.StatusOK},
		{name: "explicit permission", claim: identity.Claim{ID: "b", Role: "user", Permissions: []string{authz.PermUsersManage}}, wantStatus: http.StatusOK},
		{name: "plain user", claim: identity.Claim{ID: "c", Role: "user"}, wantStatus: http.StatusForbidden},
		{name: "no identity", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inject := func(c *gin.Context) {
				if !tc.claim.IsZero() {
					c.Request = c.Request.WithContext(identity.WithClaim(c.Request.Context(), tc.claim))
				}
			}
			r := newEngine(inject, Authorize(policy.ManageUsers()))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := newEngine(rl.RateLimiterMiddleware(KeyByIP))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", w.Header().Get("Retry-After"))
	}
	if errorCode(t, w) != "rate_limited" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	now = now.Add(time.Minute + time.Second)
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("expected window reset, got %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := newEngine(RequireJSON())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bodyless delete should pass, got %d", w.Code)
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Timeout(time.Second), func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected deadline on request context, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantAllow: "https://app.example.com"},
		{name: "unknown origin", method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "https://app.example.com"},
		{name: "preflight from unknown origin", method: http.MethodOptions, origin: "https://evil.example.com", preflight: true, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Fatalf("allow origin %q, want %q", got, tt.wantAllow)
			}
			if w.Header().Get("Vary") != "Origin" {
				t.Fatalf("expected Vary: Origin")
			}
		})
	}
}

func TestMaxBodyBytes_RejectsDeclaredOversizeBody(t *testing.T) {
	r := newEngine(MaxBodyBytes(8))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"far too long"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "payload_too_large" {
		t.Fatalf("unexpected code %q", code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("small body should pass, got %d", w.Code)
	}
}

func TestRequestID_ReachesRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, observability.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-42" {
		t.Fatalf("expected request id in context, got %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); len(got) > 128 || got != w.Body.String() {
		t.Fatalf("oversized id must be replaced, header=%q body=%q", got, w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		path      string
		wantCache string
	}{
		{"/auth/session", "no-store"},
		{"/events/1", "private, no-cache"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if got := w.Header().Get("Cache-Control"); got != tt.wantCache {
			t.Fatalf("%s: Cache-Control %q, want %q", tt.path, got, tt.wantCache)
		}
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: missing nosniff", tt.path)
		}
		if w.Header().Get("Strict-Transport-Security") == "" {
			t.Fatalf("%s: missing HSTS", tt.path)
		}
	}
}
