package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"pbm-portal/internal/utils"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokenRepo struct {
	revoked map[string]bool
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], nil
}

func newAuthRouter(jwtService utils.JWTService, tokens *fakeTokenRepo, required bool) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(jwtService, tokens, required))
	r.GET("/x", func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.JSON(http.StatusOK, gin.H{"user": "anonymous"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": claims.Email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret", time.Hour)
	token, _, err := jwtService.GenerateToken(1, "ana@pbm.do", "Ana")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	revokedToken, revokedClaims, _ := jwtService.GenerateToken(2, "bob@pbm.do", "Bob")
	tokens := &fakeTokenRepo{revoked: map[string]bool{revokedClaims.ID: true}}

	tests := []struct {
		name     string
		required bool
		header   string
		status   int
		body     string
	}{
		{"required without header", true, "", http.StatusUnauthorized, "Authorization header is required"},
		{"optional without header", false, "", http.StatusOK, "anonymous"},
		{"bad format", true, "Token abc", http.StatusUnauthorized, "Invalid authorization format"},
		{"bad token", false, "Bearer abc", http.StatusUnauthorized, "Invalid or expired token"},
		{"revoked", true, "Bearer " + revokedToken, http.StatusUnauthorized, "Token has been revoked"},
		{"valid", true, "Bearer " + token, http.StatusOK, "ana@pbm.do"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(jwtService, tokens, tt.required)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body = %s, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

type recordedRequest struct {
	method, route, status string
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route, status string, d time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func TestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := &fakeRecorder{}

	r := gin.New()
	r.Use(RequestID(), Logger(logger, rec), Recovery(logger))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { panic("kaput") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != "rid-1" {
		t.Errorf("request id not echoed")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("panic body = %s", w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("request id not assigned")
	}

	want := []recordedRequest{
		{http.MethodGet, "/items/:id", "204"},
		{http.MethodGet, "/boom", "500"},
	}
	if len(rec.requests) != len(want) {
		t.Fatalf("recorded = %v", rec.requests)
	}
	for i := range want {
		if rec.requests[i] != want[i] {
			t.Errorf("request %d = %v, want %v", i, rec.requests[i], want[i])
		}
	}
	logs := buf.String()
	if !strings.Contains(logs, `"request_id":"rid-1"`) || !strings.Contains(logs, "panic recovered") {
		t.Errorf("logs = %s", logs)
	}
}
