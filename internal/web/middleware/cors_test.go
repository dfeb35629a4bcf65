package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsLocalhostOrigin(t *testing.T) {
	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:3000", true},
		{"http://localhost", true},
		{"https://localhost:8443", true},
		{"http://evil-localhost.com", false},
		{"https://example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isLocalhostOrigin(tt.origin); got != tt.expected {
				t.Errorf("isLocalhostOrigin(%q) = %v, want %v", tt.origin, got, tt.expected)
			}
		})
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://cam.example.com, https://other.example.com")

	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"configured origin", "https://cam.example.com", true},
		{"second configured origin", "https://other.example.com", true},
		{"localhost always allowed", "http://localhost:5173", true},
		{"unknown origin", "https://attacker.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Allow-Origin = %q, want unset", got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing Allow-Methods header")
	}
}
