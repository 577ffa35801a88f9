package payment

// CreateTransactionRequest represents the input for opening a transaction.
type CreateTransactionRequest struct {
	ItemID        uint   `json:"item_id" form:"item_id" binding:"required"`
	PaymentMethod string `json:"payment_method" form:"payment_method" binding:"required"`
	Notes         string `json:"notes" form:"notes" binding:"max=1000"`
}

// ProcessPaymentRequest represents the input for settling a transaction with
// the payment provider. The method is optional and defaults to the one chosen
// when the transaction was opened.
type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method" form:"payment_method"`
}
