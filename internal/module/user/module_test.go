package user

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestUserModuleRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	authed := r.Group("/api")

	NewModule(&UserHandler{}).RegisterRoutes(api, authed)

	expected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/users"},
		{http.MethodGet, "/api/users/:id"},
		{http.MethodGet, "/api/users"},
		{http.MethodPut, "/api/users/:id"},
		{http.MethodDelete, "/api/users/:id"},
	}

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+":"+ri.Path] = true
	}

	for _, exp := range expected {
		if !registered[exp.method+":"+exp.path] {
			t.Errorf("expected route %s %s to be registered", exp.method, exp.path)
		}
	}
}

func TestNewModule_PanicsOnNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewModule() expected panic for nil handler, got none")
		}
	}()

	_ = NewModule(nil)
}
