package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupCORSRouter(cfg CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func doCORSRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/items", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_NoOriginHeader_NoCORSHeaders(t *testing.T) {
	r := setupCORSRouter(DefaultCORSConfig())

	w := doCORSRequest(r, http.MethodGet, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Allow-Origin header, got %q", got)
	}
}

func TestCORS_WildcardOrigin(t *testing.T) {
	r := setupCORSRouter(DefaultCORSConfig())

	w := doCORSRequest(r, http.MethodGet, "https://shop.example.com")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want %q", got, "*")
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want %q", got, "Origin")
	}
}

func TestCORS_WildcardWithCredentials_EchoesOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowCredentials = true
	r := setupCORSRouter(cfg)

	w := doCORSRequest(r, http.MethodGet, "https://shop.example.com")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("Allow-Origin = %q, want the request origin", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want %q", got, "true")
	}
}

func TestCORS_AllowList(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com", "https://admin.example.com"}
	r := setupCORSRouter(cfg)

	t.Run("allowed origin is echoed", func(t *testing.T) {
		w := doCORSRequest(r, http.MethodGet, "https://admin.example.com")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.com" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("unknown origin gets no CORS headers but request proceeds", func(t *testing.T) {
		w := doCORSRequest(r, http.MethodGet, "https://evil.example.com")
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no Allow-Origin header, got %q", got)
		}
		if got := w.Header().Get("Vary"); got != "Origin" {
			t.Errorf("Vary = %q, want %q even for denied origins", got, "Origin")
		}
	})
}

func TestCORS_EmptyAllowList_DeniesAll(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = nil
	r := setupCORSRouter(cfg)

	w := doCORSRequest(r, http.MethodGet, "https://shop.example.com")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Allow-Origin header, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := setupCORSRouter(DefaultCORSConfig())

	req := httptest.NewRequest(http.MethodOptions, "/items", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Allow-Methods header on preflight response")
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Max-Age = %q, want %q", got, "86400")
	}
}

func TestCORS_ResponseHeaders(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type", "X-User-ID"},
		MaxAge:       "600",
	}
	r := setupCORSRouter(cfg)

	w := doCORSRequest(r, http.MethodGet, "https://shop.example.com")

	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("Allow-Methods = %q, want %q", got, "GET, POST")
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-User-ID" {
		t.Errorf("Allow-Headers = %q, want %q", got, "Content-Type, X-User-ID")
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Max-Age = %q, want %q", got, "600")
	}
}

func TestDefaultCORSConfig_IncludesIdentityHeader(t *testing.T) {
	cfg := DefaultCORSConfig()

	found := false
	for _, h := range cfg.AllowHeaders {
		if h == "X-User-ID" {
			found = true
		}
	}
	if !found {
		t.Error("expected X-User-ID in default allowed headers")
	}
}

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name        string
		allowList   []string
		origin      string
		wildcard    bool
		credentials bool
		wantAllowed bool
		wantReflect string
	}{
		{"wildcard no credentials", []string{"*"}, "https://a.test", true, false, true, "*"},
		{"wildcard with credentials", []string{"*"}, "https://a.test", true, true, true, "https://a.test"},
		{"listed origin", []string{"https://a.test"}, "https://a.test", false, false, true, "https://a.test"},
		{"unlisted origin", []string{"https://a.test"}, "https://b.test", false, false, false, ""},
		{"empty list", nil, "https://a.test", false, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, reflect := resolveOrigin(tt.allowList, tt.origin, tt.wildcard, tt.credentials)
			if allowed != tt.wantAllowed || reflect != tt.wantReflect {
				t.Errorf("resolveOrigin() = (%v, %q), want (%v, %q)", allowed, reflect, tt.wantAllowed, tt.wantReflect)
			}
		})
	}
}
