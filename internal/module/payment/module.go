package payment

import "github.com/gin-gonic/gin"

// PaymentModule implements the app.Module interface for the payment domain.
type PaymentModule struct {
	handler *PaymentHandler
}

// NewModule creates a new PaymentModule with the given handler.
// Panics if h is nil.
func NewModule(h *PaymentHandler) *PaymentModule {
	if h == nil {
		panic("payment.NewModule: handler must not be nil")
	}
	return &PaymentModule{handler: h}
}

// RegisterRoutes registers transaction and balance routes. Everything here
// acts on behalf of a user, so all routes require an authenticated caller.
func (m *PaymentModule) RegisterRoutes(_ *gin.RouterGroup, authed *gin.RouterGroup) {
	authed.POST("/transactions", m.handler.Create)
	authed.GET("/transactions/purchases", m.handler.ListPurchases)
	authed.GET("/transactions/sales", m.handler.ListSales)
	authed.GET("/transactions/:id", m.handler.Get)
	authed.POST("/transactions/:id/process", m.handler.Process)
	authed.POST("/transactions/:id/confirm-cash", m.handler.ConfirmCash)
	authed.POST("/transactions/:id/cancel", m.handler.Cancel)

	authed.GET("/items/:id/transactions", m.handler.ListForItem)
	authed.GET("/balance", m.handler.Balance)
}
