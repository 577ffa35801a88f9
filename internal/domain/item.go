package domain

import (
	"context"

	"marketplace/internal/geo"
)

// Limits for item fields, mirrored by the request DTO binding tags.
const (
	MaxItemNameLen        = 100
	MaxItemDescriptionLen = 5000
	MaxItemPrice          = 999999
)

// Item is something a seller has listed for sale. Coordinates are optional
// but must be both present or both absent. IsSold flips to true exactly once,
// when a transaction on the item completes.
type Item struct {
	BaseModel
	Name        string   `gorm:"size:100;not null" json:"name"`
	Description string   `gorm:"size:5000" json:"description,omitempty"`
	Price       float64  `gorm:"not null" json:"price"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	SellerID    uint     `gorm:"index;not null" json:"seller_id"`
	IsSold      bool     `gorm:"not null;default:false" json:"is_sold"`
}

// HasCoordinates reports whether the item carries a geographic position.
func (i *Item) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// Sort fields and directions accepted by the search engine. Defaults are
// applied at the API boundary only; the engine rejects unrecognized values.
const (
	OrderByCreatedAt = "created_at"
	OrderByPrice     = "price"
	OrderByName      = "name"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SearchQuery holds the parameters of one item search. It is transient and
// never persisted. Pointer fields distinguish "absent" from zero values.
type SearchQuery struct {
	Page     int
	PageSize int

	MinPrice *float64
	MaxPrice *float64
	Search   string
	SellerID uint

	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64

	OrderBy  string
	OrderDir string
}

// HasCenter reports whether a geographic center was supplied.
func (q *SearchQuery) HasCenter() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// SearchItem is an item in a search result, annotated with the distance from
// the query center when both the query and the item carry coordinates.
type SearchItem struct {
	Item
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// PageMeta describes the position of a result page within the full result
// set. Totals always reflect the directory count before any radius filter.
type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// SearchFilters echoes the filters that were applied to produce a result.
type SearchFilters struct {
	MinPrice         *float64 `json:"min_price"`
	MaxPrice         *float64 `json:"max_price"`
	Search           string   `json:"search,omitempty"`
	SellerID         uint     `json:"seller_id,omitempty"`
	GeographicSearch bool     `json:"geographic_search"`
	RadiusKm         *float64 `json:"radius_km"`
}

// SearchResult is one page of a search.
type SearchResult struct {
	Items      []SearchItem  `json:"items"`
	Pagination PageMeta      `json:"pagination"`
	Filters    SearchFilters `json:"filters_applied"`
}

// ItemRepository defines the data access interface for the item directory.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uint) (*Item, error)
	// Search returns one page of items matching the query's seller, price,
	// and text filters, sorted and paginated in the store, together with the
	// total match count. Geographic filtering is not pushed down.
	Search(ctx context.Context, q SearchQuery) ([]Item, int64, error)
	// FindInBox returns all items with coordinates inside the bounding box.
	FindInBox(ctx context.Context, box geo.BoundingBox) ([]Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uint) error
}

// ItemUpdate carries the mutable item fields for an update. Nil means
// "leave unchanged"; coordinates must be updated as a pair.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Latitude    *float64
	Longitude   *float64
	SetLocation bool
}

// ItemService defines the business logic interface for items, including the
// search engine.
type ItemService interface {
	CreateItem(ctx context.Context, sellerID uint, item *Item) (*Item, error)
	GetItem(ctx context.Context, id uint) (*Item, error)
	UpdateItem(ctx context.Context, id, sellerID uint, upd ItemUpdate) (*Item, error)
	DeleteItem(ctx context.Context, id, sellerID uint) error
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
	// Nearby returns items within radiusKm of the center, pre-filtered by
	// bounding box and verified by exact haversine distance, sorted nearest
	// first.
	Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]SearchItem, error)
}
