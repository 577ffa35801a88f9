package user

import "github.com/gin-gonic/gin"

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers user routes. Account creation and lookups are
// public; self-modification requires an authenticated caller.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup) {
	api.POST("/users", m.handler.Create)
	api.GET("/users/:id", m.handler.Get)
	api.GET("/users", m.handler.List)

	authed.PUT("/users/:id", m.handler.Update)
	authed.DELETE("/users/:id", m.handler.Delete)
}
