package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusride/internal/utils"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]string

func (v stubVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if uid, ok := v[token]; ok {
		return &Identity{UserID: uid, Email: uid + "@state.edu"}, nil
	}
	return nil, errors.New("bad token")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *utils.APIError {
	t.Helper()
	var body utils.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == nil {
		t.Fatalf("expected an error envelope, got %s", w.Body.String())
	}
	return body.Error
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.Use(QueryToken(), AuthRequired(stubVerifier{"good": "amy"}, logger.Discard()))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c)+"|"+GetUserEmail(c))
	})

	tests := []struct {
		name   string
		url    string
		header string
		status int
		body   string
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/me", "Basic good", http.StatusUnauthorized, ""},
		{"empty token", "/me", "Bearer    ", http.StatusUnauthorized, ""},
		{"invalid token", "/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "/me", "Bearer good", http.StatusOK, "amy|amy@state.edu"},
		{"scheme is case-insensitive", "/me", "bearer good", http.StatusOK, "amy|amy@state.edu"},
		{"query token", "/me?access_token=good", "", http.StatusOK, "amy|amy@state.edu"},
		{"header wins over query", "/me?access_token=good", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusUnauthorized {
				if code := decodeError(t, w).Code; code != utils.CodeUnauthorized {
					t.Fatalf("code = %q", code)
				}
				return
			}
			if w.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(4)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("a") {
		t.Fatal("burst of one should reject the second request")
	}
	if !rl.Allow("b") {
		t.Fatal("buckets are per key")
	}

	now = now.Add(20 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("expected a token after refill")
	}

	now = now.Add(11 * time.Minute)
	rl.Allow("c")
	if removed := rl.Sweep(); removed != 2 {
		t.Fatalf("expected the two idle buckets swept, got %d", removed)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("missing Retry-After header")
	}
	if code := decodeError(t, second).Code; code != utils.CodeRateLimited {
		t.Fatalf("code = %q", code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	r.ServeHTTP(w, req)
	if w.Header().Get(HeaderRequestID) != "abc-123" || w.Body.String() != "abc-123" {
		t.Fatalf("incoming id not honored: header %q body %q", w.Header().Get(HeaderRequestID), w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if id := w.Header().Get(HeaderRequestID); len(id) != 36 {
		t.Fatalf("expected a generated uuid, got %q", id)
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://campus.example/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://campus.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://campus.example" {
		t.Fatalf("preflight not handled: %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin echoed")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.Discard()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != utils.CodeInternal {
		t.Fatalf("code = %q", code)
	}
}
