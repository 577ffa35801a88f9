package payment

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/pkg"
)

// PaymentHandler handles REST API requests for transactions and balances.
type PaymentHandler struct {
	svc domain.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler with the given service.
func NewPaymentHandler(svc domain.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Create handles POST /api/v1/transactions.
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	var req CreateTransactionRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	trn, err := h.svc.CreateTransaction(c.Request.Context(), req.ItemID, userID, domain.PaymentMethod(req.PaymentMethod), req.Notes)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, trn)
}

// Get handles GET /api/v1/transactions/:id. Only the parties to the
// transaction may read it.
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	trn, err := h.svc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if userID != trn.BuyerID && userID != trn.SellerID {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "not a party to this transaction", nil))
		return
	}

	pkg.Success(c, trn)
}

// Process handles POST /api/v1/transactions/:id/process.
func (h *PaymentHandler) Process(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	var req ProcessPaymentRequest
	if c.Request.ContentLength > 0 && !pkg.BindAndValidate(c, &req) {
		return
	}

	trn, err := h.svc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if userID != trn.BuyerID {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "only the buyer can pay for this transaction", nil))
		return
	}

	outcome, err := h.svc.ProcessPayment(c.Request.Context(), id, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, outcome)
}

// ConfirmCash handles POST /api/v1/transactions/:id/confirm-cash.
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	outcome, err := h.svc.ConfirmCashPayment(c.Request.Context(), id, userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, outcome)
}

// Cancel handles POST /api/v1/transactions/:id/cancel.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	trn, err := h.svc.CancelTransaction(c.Request.Context(), id, userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, trn)
}

// ListPurchases handles GET /api/v1/transactions/purchases.
func (h *PaymentHandler) ListPurchases(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	result, err := h.svc.ListPurchases(c.Request.Context(), userID, pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// ListSales handles GET /api/v1/transactions/sales.
func (h *PaymentHandler) ListSales(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	result, err := h.svc.ListSales(c.Request.Context(), userID, pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// ListForItem handles GET /api/v1/items/:id/transactions. Only the item's
// seller sees the attempts against it, so the listing is keyed by identity
// inside the service results.
func (h *PaymentHandler) ListForItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	itemID, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	result, err := h.svc.ListItemTransactions(c.Request.Context(), itemID, pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	// Hide other users' attempts: keep only rows where the caller is a party.
	visible := make([]domain.Transaction, 0, len(result.Items))
	for _, trn := range result.Items {
		if trn.BuyerID == userID || trn.SellerID == userID {
			visible = append(visible, trn)
		}
	}
	result.Items = visible

	pkg.List(c, result)
}

// Balance handles GET /api/v1/balance.
func (h *PaymentHandler) Balance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	balance, err := h.svc.CalculateBalance(c.Request.Context(), userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, balance)
}
