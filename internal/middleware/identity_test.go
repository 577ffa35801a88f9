package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupIdentityRouter() (*gin.Engine, *uint) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen uint
	r.GET("/me", Identity(), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "no identity"})
			return
		}
		seen = id
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r, &seen
}

func TestIdentity_MissingHeader(t *testing.T) {
	r, _ := setupIdentityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["message"] != "missing X-User-ID header" {
		t.Errorf("message = %v, want %q", body["message"], "missing X-User-ID header")
	}
}

func TestIdentity_InvalidHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not a number", value: "alice"},
		{name: "zero", value: "0"},
		{name: "negative", value: "-3"},
		{name: "float", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupIdentityRouter()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("X-User-ID", tt.value)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestIdentity_ValidHeader(t *testing.T) {
	r, seen := setupIdentityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *seen != 42 {
		t.Errorf("handler saw user id %d, want 42", *seen)
	}
}

func TestGetUserID_WithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id, ok := GetUserID(c); ok || id != 0 {
		t.Fatalf("GetUserID() = (%d, %v), want (0, false)", id, ok)
	}
}
