package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantStatus int
		wantAllow  string
	}{
		{"open", nil, "https://a.example", http.MethodGet, http.StatusOK, "*"},
		{"open preflight", nil, "https://a.example", http.MethodOptions, http.StatusNoContent, "*"},
		{"listed", []string{"https://a.example"}, "https://a.example", http.MethodGet, http.StatusOK, "https://a.example"},
		{"unlisted", []string{"https://a.example"}, "https://b.example", http.MethodGet, http.StatusOK, ""},
		{"unlisted preflight", []string{"https://a.example"}, "https://b.example", http.MethodOptions, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSMiddleware(CORSConfig{AllowedOrigins: tt.origins}, ok)
			req := httptest.NewRequest(tt.method, "/parse", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.HasPrefix(csp, "default-src 'none'") {
		t.Errorf("CSP = %q", csp)
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	var readErr error
	h := BodyLimitMiddleware(4, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("| 1 |")))
	var maxErr *http.MaxBytesError
	if readErr == nil {
		t.Fatal("expected an error reading past the limit")
	}
	if !errors.As(readErr, &maxErr) {
		t.Errorf("error = %v, want *http.MaxBytesError", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("|1|")))
	if readErr != nil {
		t.Errorf("small body failed: %v", readErr)
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"TEXT/PLAIN", true},
		{"application/xml", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateContentType(tt.contentType, ParseContentTypes); got != tt.want {
			t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
