package location

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace/internal/domain"
	"marketplace/internal/geo"
	"marketplace/internal/geocoding"
	"marketplace/internal/pkg"
)

// Geocoder is the slice of the geocoding client this module consumes.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Location, error)
	Search(ctx context.Context, query string, limit int) ([]geocoding.Location, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocoding.Address, error)
}

// LocationHandler handles REST API requests for geocoding and distance
// helpers backing the geographic search UI.
type LocationHandler struct {
	geocoder Geocoder
}

// NewLocationHandler creates a new LocationHandler with the given geocoder.
func NewLocationHandler(g Geocoder) *LocationHandler {
	return &LocationHandler{geocoder: g}
}

// Geocode handles GET /api/v1/geo/geocode.
func (h *LocationHandler) Geocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "address is required", nil))
		return
	}

	loc, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, loc)
}

// Search handles GET /api/v1/geo/search.
func (h *LocationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "q is required", nil))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid limit", nil))
			return
		}
	}

	locs, err := h.geocoder.Search(c.Request.Context(), query, limit)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, gin.H{
		"results": locs,
		"count":   len(locs),
	})
}

// Reverse handles GET /api/v1/geo/reverse.
func (h *LocationHandler) Reverse(c *gin.Context) {
	lat, err := queryFloat(c, "latitude")
	if err != nil {
		pkg.Error(c, err)
		return
	}
	lon, err := queryFloat(c, "longitude")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	addr, err := h.geocoder.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, addr)
}

// Distance handles GET /api/v1/geo/distance. It is a pure computation and
// never calls the geocoding provider.
func (h *LocationHandler) Distance(c *gin.Context) {
	var coords [4]float64
	for i, name := range []string{"lat1", "lon1", "lat2", "lon2"} {
		v, err := queryFloat(c, name)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		coords[i] = v
	}

	if !geo.ValidCoordinates(coords[0], coords[1]) || !geo.ValidCoordinates(coords[2], coords[3]) {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid coordinates", nil))
		return
	}

	km := geo.DistanceKm(coords[0], coords[1], coords[2], coords[3])
	pkg.Success(c, gin.H{
		"distance_km": km,
		"distance_m":  km * 1000,
		"from":        gin.H{"latitude": coords[0], "longitude": coords[1]},
		"to":          gin.H{"latitude": coords[2], "longitude": coords[3]},
	})
}

func queryFloat(c *gin.Context, name string) (float64, error) {
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
