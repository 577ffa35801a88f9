package item

import "github.com/gin-gonic/gin"

// ItemModule implements the app.Module interface for the item domain.
type ItemModule struct {
	handler *ItemHandler
}

// NewModule creates a new ItemModule with the given handler.
// Panics if h is nil.
func NewModule(h *ItemHandler) *ItemModule {
	if h == nil {
		panic("item.NewModule: handler must not be nil")
	}
	return &ItemModule{handler: h}
}

// RegisterRoutes registers item routes. Reads are public; listing, editing,
// and removing items require an authenticated caller.
func (m *ItemModule) RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup) {
	api.GET("/items", m.handler.Search)
	api.GET("/items/nearby", m.handler.Nearby)
	api.GET("/items/:id", m.handler.Get)

	authed.POST("/items", m.handler.Create)
	authed.PUT("/items/:id", m.handler.Update)
	authed.DELETE("/items/:id", m.handler.Delete)
}
