package item

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/pkg"
)

// ItemHandler handles REST API requests for the item resource.
type ItemHandler struct {
	svc domain.ItemService
}

// NewItemHandler creates a new ItemHandler with the given service.
func NewItemHandler(svc domain.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// Create handles POST /api/v1/items.
func (h *ItemHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeForbidden, "authentication required", nil))
		return
	}

	var req CreateItemRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	item := &domain.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}

	created, err := h.svc.CreateItem(c.Request.Context(), userID, item)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, created)
}

// Get handles GET /api/v1/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	item, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, item)
}

// Search handles GET /api/v1/items.
func (h *ItemHandler) Search(c *gin.Context) {
	q, err := parseSearchQuery(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	result, err := h.svc.Search(c.Request.Context(), *q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}

// Nearby handles GET /api/v1/items/nearby.
func (h *ItemHandler) Nearby(c *gin.Context) {
	lat, err := requiredFloat(c, "latitude")
	if err != nil {
		pkg.Error(c, err)
		return
	}
	lon, err := requiredFloat(c, "longitude")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	radius := 10.0
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid radius_km", nil))
			return
		}
	}
	// Clamp rather than reject so sliders and hand-typed values both work.
	if radius < 1 {
		radius = 1
	} else if radius > 100 {
		radius = 100
	}

	items, err := h.svc.Nearby(c.Request.Context(), lat, lon, radius)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, gin.H{
		"items":     items,
		"count":     len(items),
		"radius_km": radius,
	})
}

// Update handles PUT /api/v1/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
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

	var req UpdateItemRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	upd := domain.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if req.Latitude != nil || req.Longitude != nil {
		upd.SetLocation = true
		upd.Latitude = req.Latitude
		upd.Longitude = req.Longitude
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), id, userID, upd)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, item)
}

// Delete handles DELETE /api/v1/items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
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

	if err := h.svc.DeleteItem(c.Request.Context(), id, userID); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// parseSearchQuery reads the search parameters from the query string and
// fills in the API defaults: first page, twenty per page, newest first.
func parseSearchQuery(c *gin.Context) (*domain.SearchQuery, error) {
	q := domain.SearchQuery{
		Page:     1,
		PageSize: 20,
		OrderBy:  domain.OrderByCreatedAt,
		OrderDir: domain.OrderDesc,
	}

	var err error
	if raw := c.Query("page"); raw != "" {
		q.Page, err = strconv.Atoi(raw)
		if err != nil {
			return nil, domain.NewAppError(domain.CodeValidation, "invalid page", nil)
		}
	}
	if raw := c.Query("per_page"); raw != "" {
		q.PageSize, err = strconv.Atoi(raw)
		if err != nil {
			return nil, domain.NewAppError(domain.CodeValidation, "invalid per_page", nil)
		}
	}

	if q.MinPrice, err = optionalFloat(c, "min_price"); err != nil {
		return nil, err
	}
	if q.MaxPrice, err = optionalFloat(c, "max_price"); err != nil {
		return nil, err
	}
	if q.Latitude, err = optionalFloat(c, "latitude"); err != nil {
		return nil, err
	}
	if q.Longitude, err = optionalFloat(c, "longitude"); err != nil {
		return nil, err
	}
	if q.RadiusKm, err = optionalFloat(c, "radius_km"); err != nil {
		return nil, err
	}

	q.Search = strings.TrimSpace(c.Query("search"))

	if raw := c.Query("seller_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, domain.NewAppError(domain.CodeValidation, "invalid seller_id", nil)
		}
		q.SellerID = uint(id)
	}

	if raw := c.Query("order_by"); raw != "" {
		q.OrderBy = raw
	}
	if raw := c.Query("order_dir"); raw != "" {
		q.OrderDir = strings.ToLower(raw)
	}

	return &q, nil
}

func optionalFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeValidation, "invalid "+name, nil)
	}
	return &v, nil
}

func requiredFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, domain.NewAppError(domain.CodeValidation, name+" is required", nil)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewAppError(domain.CodeValidation, "invalid "+name, nil)
	}
	return v, nil
}
