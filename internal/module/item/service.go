package item

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"marketplace/internal/domain"
	"marketplace/internal/geo"
)

// itemService implements domain.ItemService: the item directory plus the
// search engine.
type itemService struct {
	repo  domain.ItemRepository
	users domain.UserRepository
}

// NewItemService creates a new ItemService with the given repositories.
func NewItemService(repo domain.ItemRepository, users domain.UserRepository) domain.ItemService {
	return &itemService{repo: repo, users: users}
}

// CreateItem validates the item, verifies the seller exists, and persists it.
func (s *itemService) CreateItem(ctx context.Context, sellerID uint, item *domain.Item) (*domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Description = strings.TrimSpace(item.Description)
	item.SellerID = sellerID
	item.IsSold = false

	if err := validateItemFields(item.Name, item.Description, item.Price); err != nil {
		return nil, err
	}
	if err := validateCoordinatePair(item.Latitude, item.Longitude); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewAppError(domain.CodeNotFound, "seller not found", nil)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *itemService) GetItem(ctx context.Context, id uint) (*domain.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateItem applies the given changes to an item owned by sellerID.
// Sold items are frozen: the only remaining seller action is delete.
func (s *itemService) UpdateItem(ctx context.Context, id, sellerID uint, upd domain.ItemUpdate) (*domain.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != sellerID {
		return nil, domain.NewAppError(domain.CodeForbidden, "only the seller can modify this item", nil)
	}
	if item.IsSold {
		return nil, domain.NewAppError(domain.CodeConflict, "item already sold", nil)
	}

	if upd.Name != nil {
		item.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		item.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Price != nil {
		item.Price = *upd.Price
	}
	if upd.SetLocation {
		if err := validateCoordinatePair(upd.Latitude, upd.Longitude); err != nil {
			return nil, err
		}
		item.Latitude = upd.Latitude
		item.Longitude = upd.Longitude
	}

	if err := validateItemFields(item.Name, item.Description, item.Price); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item owned by sellerID.
func (s *itemService) DeleteItem(ctx context.Context, id, sellerID uint) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != sellerID {
		return domain.NewAppError(domain.CodeForbidden, "only the seller can delete this item", nil)
	}
	return s.repo.Delete(ctx, id)
}

// Search runs one item search. Seller, price, and text filters plus sorting
// and pagination are pushed down to the directory; geographic annotation and
// radius filtering are applied to the returned page.
//
// When a radius is given, items beyond it are dropped from the already
// paginated page, so a page may come back short; pagination metadata always
// reflects the pre-radius total.
func (s *itemService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	if err := normalizeQuery(&q); err != nil {
		return nil, err
	}

	items, total, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchItem, 0, len(items))
	for _, it := range items {
		si := domain.SearchItem{Item: it}
		if q.HasCenter() && it.HasCoordinates() {
			d := geo.DistanceKm(*q.Latitude, *q.Longitude, *it.Latitude, *it.Longitude)
			si.DistanceKm = &d
			if q.RadiusKm != nil && d > *q.RadiusKm {
				continue
			}
		}
		// Items without coordinates are never excluded by radius.
		results = append(results, si)
	}

	if q.RadiusKm != nil {
		sortByDistance(results)
	}

	return &domain.SearchResult{
		Items:      results,
		Pagination: pageMeta(q, total),
		Filters: domain.SearchFilters{
			MinPrice:         q.MinPrice,
			MaxPrice:         q.MaxPrice,
			Search:           q.Search,
			SellerID:         q.SellerID,
			GeographicSearch: q.HasCenter(),
			RadiusKm:         q.RadiusKm,
		},
	}, nil
}

// Nearby returns all items within radiusKm of the center, nearest first.
// The bounding box narrows the candidate set in the store; exact haversine
// distance decides membership.
func (s *itemService) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]domain.SearchItem, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, domain.NewAppError(domain.CodeValidation, "invalid coordinates", nil)
	}
	if radiusKm <= 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "radius must be positive", nil)
	}

	candidates, err := s.repo.FindInBox(ctx, geo.NewBoundingBox(lat, lon, radiusKm))
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchItem, 0, len(candidates))
	for _, it := range candidates {
		d := geo.DistanceKm(lat, lon, *it.Latitude, *it.Longitude)
		if d > radiusKm {
			continue
		}
		si := domain.SearchItem{Item: it}
		si.DistanceKm = &d
		results = append(results, si)
	}

	sortByDistance(results)
	return results, nil
}

// normalizeQuery validates the query and applies the page size clamp.
// Sort defaults belong to the API boundary; anything unrecognized here is
// rejected rather than silently replaced.
func normalizeQuery(q *domain.SearchQuery) error {
	if q.Page < 1 {
		return domain.NewAppError(domain.CodeValidation, "page must be at least 1", nil)
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}

	switch q.OrderBy {
	case domain.OrderByCreatedAt, domain.OrderByPrice, domain.OrderByName:
	default:
		return domain.NewAppError(domain.CodeValidation, "order_by must be one of created_at, price, name", nil)
	}
	switch q.OrderDir {
	case domain.OrderAsc, domain.OrderDesc:
	default:
		return domain.NewAppError(domain.CodeValidation, "order_dir must be asc or desc", nil)
	}

	if q.MinPrice != nil && *q.MinPrice < 0 {
		return domain.NewAppError(domain.CodeValidation, "min_price must not be negative", nil)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return domain.NewAppError(domain.CodeValidation, "min_price must not exceed max_price", nil)
	}

	if (q.Latitude == nil) != (q.Longitude == nil) {
		return domain.NewAppError(domain.CodeValidation, "latitude and longitude must be provided together", nil)
	}
	if q.HasCenter() && !geo.ValidCoordinates(*q.Latitude, *q.Longitude) {
		return domain.NewAppError(domain.CodeValidation, "invalid coordinates", nil)
	}
	if q.RadiusKm != nil {
		if !q.HasCenter() {
			return domain.NewAppError(domain.CodeValidation, "radius_km requires latitude and longitude", nil)
		}
		if *q.RadiusKm <= 0 {
			return domain.NewAppError(domain.CodeValidation, "radius_km must be positive", nil)
		}
	}

	return nil
}

// sortByDistance orders results by ascending distance; items without a
// distance sort last. The sort is stable so equal distances keep the
// directory order.
func sortByDistance(items []domain.SearchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DistanceKm, items[j].DistanceKm
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
}

// pageMeta computes pagination metadata from the pre-radius total.
func pageMeta(q domain.SearchQuery, total int64) domain.PageMeta {
	totalPages := int(math.Ceil(float64(total) / float64(q.PageSize)))
	return domain.PageMeta{
		Page:       q.Page,
		PerPage:    q.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}
}

// validateItemFields enforces the item field limits shared by create and update.
func validateItemFields(name, description string, price float64) error {
	if name == "" {
		return domain.NewAppError(domain.CodeValidation, "name is required", nil)
	}
	if utf8.RuneCountInString(name) > domain.MaxItemNameLen {
		return domain.NewAppError(domain.CodeValidation, "name must be at most 100 characters", nil)
	}
	if utf8.RuneCountInString(description) > domain.MaxItemDescriptionLen {
		return domain.NewAppError(domain.CodeValidation, "description must be at most 5000 characters", nil)
	}
	if price < 0 {
		return domain.NewAppError(domain.CodeValidation, "price must not be negative", nil)
	}
	if price > domain.MaxItemPrice {
		return domain.NewAppError(domain.CodeValidation, "price must be at most 999999", nil)
	}
	return nil
}

// validateCoordinatePair enforces the both-present-or-both-absent rule and
// the valid ranges.
func validateCoordinatePair(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return domain.NewAppError(domain.CodeValidation, "latitude and longitude must be provided together", nil)
	}
	if lat != nil && !geo.ValidCoordinates(*lat, *lon) {
		return domain.NewAppError(domain.CodeValidation, "invalid coordinates", nil)
	}
	return nil
}
