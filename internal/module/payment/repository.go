package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketplace/internal/domain"
	"marketplace/internal/pkg"
)

// Sortable and filterable fields for transaction listings.
var (
	allowedSortFields   = []string{"id", "created_at", "amount", "status"}
	allowedFilterFields = []string{"status", "payment_method"}
)

// transactionRepository implements domain.TransactionRepository using GORM.
// State transitions are compare-and-set updates guarded on the pending
// status, so two concurrent workflow calls can never both succeed.
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository backed by the
// given GORM database.
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create inserts a new transaction into the ledger.
func (r *transactionRepository) Create(ctx context.Context, trn *domain.Transaction) error {
	if err := r.db.WithContext(ctx).Create(trn).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves a transaction by its primary key.
func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	var trn domain.Transaction
	if err := r.db.WithContext(ctx).First(&trn, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &trn, nil
}

// Complete moves the transaction from pending to completed and marks the item
// sold, both inside one database transaction. The status update is guarded on
// pending; losing the race yields ErrConflict and leaves everything untouched.
func (r *transactionRepository) Complete(ctx context.Context, id uint, method domain.PaymentMethod, ref string, completedAt time.Time) error {
	return pkg.WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		trn, err := transition(tx, id, domain.StatusCompleted, map[string]any{
			"status":         domain.StatusCompleted,
			"payment_method": method,
			"payment_ref":    ref,
			"completed_at":   completedAt,
		})
		if err != nil {
			return err
		}
		return tx.Model(&domain.Item{}).
			Where("id = ?", trn.ItemID).
			Update("is_sold", true).Error
	})
}

// Fail moves the transaction from pending to failed. The item stays
// available for other buyers.
func (r *transactionRepository) Fail(ctx context.Context, id uint, method domain.PaymentMethod) error {
	return pkg.WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		_, err := transition(tx, id, domain.StatusFailed, map[string]any{
			"status":         domain.StatusFailed,
			"payment_method": method,
		})
		return err
	})
}

// Cancel moves the transaction from pending to cancelled.
func (r *transactionRepository) Cancel(ctx context.Context, id uint) error {
	return pkg.WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		_, err := transition(tx, id, domain.StatusCancelled, map[string]any{
			"status": domain.StatusCancelled,
		})
		return err
	})
}

// transition performs the guarded pending-to-target update and returns the
// transaction as read before the update. Zero affected rows means the guard
// did not hold: the record is gone or already terminal.
func transition(tx *gorm.DB, id uint, target domain.TransactionStatus, updates map[string]any) (*domain.Transaction, error) {
	var trn domain.Transaction
	if err := tx.First(&trn, id).Error; err != nil {
		return nil, mapError(err)
	}

	res := tx.Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		msg := fmt.Sprintf("transaction already %s", trn.Status)
		if !trn.Status.Terminal() {
			msg = "transaction is no longer pending"
		}
		return nil, domain.NewAppError(domain.CodeConflict, msg, nil)
	}

	trn.Status = target
	return &trn, nil
}

// ListByBuyer returns a page of transactions where the user is the buyer.
func (r *transactionRepository) ListByBuyer(ctx context.Context, buyerID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return r.list(ctx, req, "buyer_id = ?", buyerID)
}

// ListBySeller returns a page of transactions where the user is the seller.
func (r *transactionRepository) ListBySeller(ctx context.Context, sellerID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return r.list(ctx, req, "seller_id = ?", sellerID)
}

// ListByItem returns a page of transactions attempted against one item.
func (r *transactionRepository) ListByItem(ctx context.Context, itemID uint, req domain.PageRequest) (*domain.PageResult[domain.Transaction], error) {
	return r.list(ctx, req, "item_id = ?", itemID)
}

func (r *transactionRepository) list(ctx context.Context, req domain.PageRequest, cond string, arg any) (*domain.PageResult[domain.Transaction], error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where(cond, arg).
		Scopes(pkg.Filter(req, allowedFilterFields))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var items []domain.Transaction
	err := query.
		Scopes(pkg.Sort(req, allowedSortFields), pkg.Paginate(req)).
		Find(&items).Error
	if err != nil {
		return nil, mapError(err)
	}

	return domain.NewPage(items, total, req), nil
}

// SumCompleted aggregates the completed transactions for one user, once in
// the seller role and once in the buyer role.
func (r *transactionRepository) SumCompleted(ctx context.Context, userID uint) (*domain.Balance, error) {
	sales, err := r.sumByRole(ctx, "seller_id", userID)
	if err != nil {
		return nil, err
	}
	purchases, err := r.sumByRole(ctx, "buyer_id", userID)
	if err != nil {
		return nil, err
	}

	return &domain.Balance{
		TotalSales:     sales.Total,
		TotalPurchases: purchases.Total,
		Balance:        sales.Total - purchases.Total,
		SalesCount:     sales.Count,
		PurchasesCount: purchases.Count,
	}, nil
}

type roleSum struct {
	Total float64
	Count int64
}

func (r *transactionRepository) sumByRole(ctx context.Context, column string, userID uint) (*roleSum, error) {
	var sum roleSum
	err := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where(column+" = ? AND status = ?", userID, domain.StatusCompleted).
		Scan(&sum).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &sum, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}
