package domain

import (
	"context"
	"time"
)

// TransactionStatus is the lifecycle state of a transaction. A transaction is
// created pending and transitions at most once to one of the terminal states;
// no transition leaves a terminal state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// PaymentMethod identifies how the buyer pays. Cash is settled in person and
// confirmed by the seller; the other methods go through the payment provider.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodStripe       PaymentMethod = "stripe"
	MethodPaypal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// ValidPaymentMethod reports whether m is one of the supported methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodStripe, MethodPaypal, MethodBankTransfer:
		return true
	}
	return false
}

// Transaction records one attempted purchase of an item. SellerID and Amount
// are copied from the item at creation time, so later item changes do not
// affect an in-flight transaction. PaymentRef and CompletedAt are set exactly
// once, on the transition to completed.
type Transaction struct {
	BaseModel
	ItemID        uint              `gorm:"index;not null" json:"item_id"`
	BuyerID       uint              `gorm:"index;not null" json:"buyer_id"`
	SellerID      uint              `gorm:"index;not null" json:"seller_id"`
	Amount        float64           `gorm:"not null" json:"amount"`
	Status        TransactionStatus `gorm:"size:20;not null;default:pending" json:"status"`
	PaymentMethod PaymentMethod     `gorm:"size:50" json:"payment_method"`
	PaymentRef    string            `gorm:"size:200" json:"payment_ref,omitempty"`
	Notes         string            `gorm:"size:1000" json:"notes,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// Balance is the aggregate financial summary for one user, computed over
// completed transactions only.
type Balance struct {
	TotalSales     float64 `json:"total_sales"`
	TotalPurchases float64 `json:"total_purchases"`
	Balance        float64 `json:"balance"`
	SalesCount     int64   `json:"sales_count"`
	PurchasesCount int64   `json:"purchases_count"`
}

// TransactionRepository defines the data access interface for the transaction
// ledger. The transition methods implement an atomic compare-and-set on the
// pending status: they affect zero rows when the transaction is no longer
// pending, and report that so callers can surface a state conflict.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uint) (*Transaction, error)

	// Complete atomically moves the transaction from pending to completed,
	// stamps completedAt and the payment reference, and marks the referenced
	// item sold, all within one database transaction. It returns ErrConflict
	// when the transaction is not pending anymore.
	Complete(ctx context.Context, id uint, method PaymentMethod, ref string, completedAt time.Time) error
	// Fail atomically moves the transaction from pending to failed. The item
	// is untouched.
	Fail(ctx context.Context, id uint, method PaymentMethod) error
	// Cancel atomically moves the transaction from pending to cancelled. The
	// item is untouched.
	Cancel(ctx context.Context, id uint) error

	ListByBuyer(ctx context.Context, buyerID uint, req PageRequest) (*PageResult[Transaction], error)
	ListBySeller(ctx context.Context, sellerID uint, req PageRequest) (*PageResult[Transaction], error)
	ListByItem(ctx context.Context, itemID uint, req PageRequest) (*PageResult[Transaction], error)

	// SumCompleted returns the total amount and count of completed
	// transactions where the user is, respectively, seller or buyer.
	SumCompleted(ctx context.Context, userID uint) (*Balance, error)
}

// PaymentOutcome is what a workflow operation reports back to the caller.
// A declined mock payment is a normal outcome (Approved=false, transaction
// failed), not an error.
type PaymentOutcome struct {
	Transaction *Transaction `json:"transaction"`
	Approved    bool         `json:"approved"`
	Message     string       `json:"message"`
}

// PaymentService is the transaction/payment state machine. Authorization is
// checked here rather than in the transport layer because it depends on the
// current record state (method, status, parties).
type PaymentService interface {
	CreateTransaction(ctx context.Context, itemID, buyerID uint, method PaymentMethod, notes string) (*Transaction, error)
	ProcessPayment(ctx context.Context, txID uint, method PaymentMethod) (*PaymentOutcome, error)
	ConfirmCashPayment(ctx context.Context, txID, confirmerID uint) (*PaymentOutcome, error)
	CancelTransaction(ctx context.Context, txID, userID uint) (*Transaction, error)
	GetTransaction(ctx context.Context, id uint) (*Transaction, error)
	ListPurchases(ctx context.Context, buyerID uint, req PageRequest) (*PageResult[Transaction], error)
	ListSales(ctx context.Context, sellerID uint, req PageRequest) (*PageResult[Transaction], error)
	ListItemTransactions(ctx context.Context, itemID uint, req PageRequest) (*PageResult[Transaction], error)
	CalculateBalance(ctx context.Context, userID uint) (*Balance, error)
}
