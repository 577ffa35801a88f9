package item

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"marketplace/internal/domain"
	"marketplace/internal/geo"
)

// itemRepository implements domain.ItemRepository using GORM.
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository backed by the given GORM database.
func NewItemRepository(db *gorm.DB) domain.ItemRepository {
	return &itemRepository{db: db}
}

// Create inserts a new item into the database.
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves an item by its primary key.
func (r *itemRepository) GetByID(ctx context.Context, id uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

// Search returns one page of items matching the query's seller, price, and
// text filters, together with the total count of matches before pagination.
// Sort field and direction are validated by the service; geographic filtering
// happens above this layer.
func (r *itemRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Item{}).Scopes(searchFilters(q))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var items []domain.Item
	err := base.
		Order(q.OrderBy + " " + q.OrderDir).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, mapError(err)
	}

	return items, total, nil
}

// searchFilters returns a GORM scope applying the non-geographic filters of
// the query. The text term matches name OR description, case-insensitively.
func searchFilters(q domain.SearchQuery) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.SellerID != 0 {
			db = db.Where("seller_id = ?", q.SellerID)
		}
		if q.MinPrice != nil {
			db = db.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price <= ?", *q.MaxPrice)
		}
		if q.Search != "" {
			pattern := "%" + strings.ToLower(q.Search) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		}
		return db
	}
}

// FindInBox returns all items that carry coordinates inside the bounding
// box. Callers must still verify exact distance: the box is a pre-filter.
func (r *itemRepository) FindInBox(ctx context.Context, box geo.BoundingBox) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon).
		Find(&items).Error
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// Update saves changes to an existing item.
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// Delete removes an item by ID.
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Item{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
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
