package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(origins ...string) *gin.Engine {
	router := gin.New()
	router.Use(CORS(origins...))
	router.GET("/api/cases", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.POST("/api/cases", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func TestCORS_AllowsAnyOriginByDefault(t *testing.T) {
	router := newCORSRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/cases", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials should be 'true', got %q", got)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	router := newCORSRouter("https://cases.example.com")

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://cases.example.com", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/cases", nil)
			req.Header.Set("Origin", tt.origin)
			router.ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("expected origin echoed, got %q", got)
			}
			if !tt.allowed && (w.Code != http.StatusForbidden || got != "") {
				t.Errorf("disallowed origin: status %d, header %q", w.Code, got)
			}
		})
	}
}

func TestCORS_PreflightAllowsRequestID(t *testing.T) {
	router := newCORSRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/api/cases", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization, X-Request-ID")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent && w.Code != http.StatusOK {
		t.Errorf("preflight request should return 200 or 204, got %d", w.Code)
	}
	allowHeaders := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowHeaders, "x-request-id") {
		t.Errorf("Access-Control-Allow-Headers = %q, expected X-Request-ID", allowHeaders)
	}
}
