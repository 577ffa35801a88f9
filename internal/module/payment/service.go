package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/domain"
)

// paymentService implements domain.PaymentService, driving each transaction
// through the pending -> completed/cancelled/failed state machine.
//
// Non-cash methods are settled by a mock provider that approves a configurable
// fraction of payments; cash is settled in person and confirmed by the seller.
type paymentService struct {
	repo  domain.TransactionRepository
	items domain.ItemRepository
	users domain.UserRepository

	// decide stands in for the payment provider; tests replace it to make
	// outcomes deterministic.
	decide func() bool
	now    func() time.Time
}

// NewPaymentService creates a new PaymentService. successRate is the fraction
// of mock provider payments that are approved, in [0, 1].
func NewPaymentService(repo domain.TransactionRepository, items domain.ItemRepository, users domain.UserRepository, successRate float64) domain.PaymentService {
	return &paymentService{
		repo:   repo,
		items:  items,
		users:  users,
		decide: func() bool { return rand.Float64() < successRate },
		now:    time.Now,
	}
}

// CreateTransaction opens a pending transaction for the item. Seller and
// amount are frozen from the item at this point.
func (s *paymentService) CreateTransaction(ctx context.Context, itemID, buyerID uint, method domain.PaymentMethod, notes string) (*domain.Transaction, error) {
	if !domain.ValidPaymentMethod(method) {
		return nil, domain.NewAppError(domain.CodeValidation, "unsupported payment method", nil)
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAppError(domain.CodeNotFound, "item not found", nil)
		}
		return nil, err
	}
	if item.IsSold {
		return nil, domain.NewAppError(domain.CodeConflict, "item already sold", nil)
	}
	if item.SellerID == buyerID {
		return nil, domain.NewAppError(domain.CodeValidation, "cannot buy your own item", nil)
	}

	exists, err := s.users.Exists(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewAppError(domain.CodeNotFound, "buyer not found", nil)
	}

	trn := &domain.Transaction{
		ItemID:        itemID,
		BuyerID:       buyerID,
		SellerID:      item.SellerID,
		Amount:        item.Price,
		Status:        domain.StatusPending,
		PaymentMethod: method,
		Notes:         strings.TrimSpace(notes),
	}
	if err := s.repo.Create(ctx, trn); err != nil {
		return nil, err
	}
	return trn, nil
}

// ProcessPayment runs the mock provider against a pending transaction.
// A declined payment moves the transaction to failed and is reported as a
// normal outcome, not an error. Cash never goes through the provider.
func (s *paymentService) ProcessPayment(ctx context.Context, txID uint, method domain.PaymentMethod) (*domain.PaymentOutcome, error) {
	trn, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	if method == "" {
		method = trn.PaymentMethod
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, domain.NewAppError(domain.CodeValidation, "unsupported payment method", nil)
	}
	if method == domain.MethodCash {
		return nil, domain.NewAppError(domain.CodeValidation, "cash payments are confirmed by the seller", nil)
	}
	if trn.Status != domain.StatusPending {
		return nil, domain.NewAppError(domain.CodeConflict, fmt.Sprintf("transaction already %s", trn.Status), nil)
	}

	if !s.decide() {
		if err := s.repo.Fail(ctx, txID, method); err != nil {
			return nil, err
		}
		failed, err := s.repo.GetByID(ctx, txID)
		if err != nil {
			return nil, err
		}
		return &domain.PaymentOutcome{
			Transaction: failed,
			Approved:    false,
			Message:     "payment declined by provider",
		}, nil
	}

	ref := mockPaymentRef(method)
	if err := s.repo.Complete(ctx, txID, method, ref, s.now()); err != nil {
		return nil, err
	}
	completed, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentOutcome{
		Transaction: completed,
		Approved:    true,
		Message:     "payment processed successfully",
	}, nil
}

// ConfirmCashPayment completes a pending cash transaction. Only the seller
// can confirm having received the cash.
func (s *paymentService) ConfirmCashPayment(ctx context.Context, txID, confirmerID uint) (*domain.PaymentOutcome, error) {
	trn, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	if trn.SellerID != confirmerID {
		return nil, domain.NewAppError(domain.CodeForbidden, "only the seller can confirm a cash payment", nil)
	}
	if trn.PaymentMethod != domain.MethodCash {
		return nil, domain.NewAppError(domain.CodeValidation, "transaction is not a cash payment", nil)
	}
	if trn.Status != domain.StatusPending {
		return nil, domain.NewAppError(domain.CodeConflict, fmt.Sprintf("transaction already %s", trn.Status), nil)
	}

	ref := cashPaymentRef(txID)
	if err := s.repo.Complete(ctx, txID, domain.MethodCash, ref, s.now()); err != nil {
		return nil, err
	}
	completed, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentOutcome{
		Transaction: completed,
		Approved:    true,
		Message:     "cash payment confirmed",
	}, nil
}

// CancelTransaction cancels a pending transaction. Either party may cancel.
func (s *paymentService) CancelTransaction(ctx context.Context, txID, userID uint) (*domain.Transaction, error) {
	trn, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	if userID != trn.BuyerID && userID != trn.SellerID {
		return nil, domain.NewAppError(domain.CodeForbidden, "only the buyer or seller can cancel this transaction", nil)
	}
	if trn.Status != domain.StatusPending {
		return nil, domain.NewAppError(domain.CodeConflict, fmt.Sprintf("transaction already %s", trn.Status), nil)
	}

	if err := s.repo.Cancel(ctx, txID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, txID)
}

// GetTransaction retrieves a transaction by ID.
func (s *paymentService) GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPurchases returns the transactions where the user is the buyer.
func (s *paymentService) ListPurchases(ctx context.Context, buyerID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return s.repo.ListByBuyer(ctx, buyerID, req)
}

// ListSales returns the transactions where the user is the seller.
func (s *paymentService) ListSales(ctx context.Context, sellerID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return s.repo.ListBySeller(ctx, sellerID, req)
}

// ListItemTransactions returns the transactions attempted against one item.
func (s *paymentService) ListItemTransactions(ctx context.Context, itemID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return s.repo.ListByItem(ctx, itemID, req)
}

// CalculateBalance summarizes the user's completed transactions.
func (s *paymentService) CalculateBalance(ctx context.Context, userID uint) (*domain.Balance, error) {
	return s.repo.SumCompleted(ctx, userID)
}

// mockPaymentRef builds a provider-style reference, e.g. MOCK_STRIPE_1f2e3d4c5b6a.
func mockPaymentRef(method domain.PaymentMethod) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("MOCK_%s_%s", strings.ToUpper(string(method)), hex[:12])
}

// cashPaymentRef builds a reference for a seller-confirmed cash payment.
func cashPaymentRef(txID uint) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CASH_%d_%s", txID, hex[:8])
}
