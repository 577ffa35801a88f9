package location

import "github.com/gin-gonic/gin"

// LocationModule implements the app.Module interface for geocoding helpers.
type LocationModule struct {
	handler *LocationHandler
}

// NewModule creates a new LocationModule with the given handler.
// Panics if h is nil.
func NewModule(h *LocationHandler) *LocationModule {
	if h == nil {
		panic("location.NewModule: handler must not be nil")
	}
	return &LocationModule{handler: h}
}

// RegisterRoutes registers geocoding routes. They leak nothing user-specific,
// so they stay public.
func (m *LocationModule) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	api.GET("/geo/geocode", m.handler.Geocode)
	api.GET("/geo/search", m.handler.Search)
	api.GET("/geo/reverse", m.handler.Reverse)
	api.GET("/geo/distance", m.handler.Distance)
}
