package app

import "github.com/gin-gonic/gin"

// Module is a self-registering slice of the marketplace API. Routes readable
// by anyone go on api; routes acting on behalf of a caller go on authed,
// which sits behind the identity middleware.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup)
}
