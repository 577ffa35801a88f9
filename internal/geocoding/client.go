// Package geocoding wraps the Nominatim HTTP API with cooperative rate
// limiting and an in-memory result cache.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain"
	"marketplace/internal/geo"
)

// Location is a geocoding result: a named point on the map.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
}

// Address is a reverse geocoding result: the components of the place at a
// coordinate pair.
type Address struct {
	DisplayName string `json:"display_name"`
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Client talks to a Nominatim-compatible geocoding provider. All outbound
// calls share one rate limiter: the provider's usage policy allows at most
// one request per second, so callers queue on the limiter and block until
// their turn. The wait is bounded by the configured interval and is not
// cancellable.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	minInterval time.Duration

	// mu serializes outbound calls and guards lastCall. Holding it across
	// the sleep is what enforces the spacing process-wide.
	mu       sync.Mutex
	lastCall time.Time

	// Injected clock, replaced in tests to avoid real waits.
	now   func() time.Time
	sleep func(time.Duration)

	cacheMu sync.RWMutex
	cache   map[string]Location
}

// New creates a Client from the validated geocoding configuration.
func New(cfg config.GeocodingConfig) *Client {
	interval, _ := time.ParseDuration(cfg.MinRequestInterval)
	timeout, _ := time.ParseDuration(cfg.Timeout)

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		minInterval: interval,
		now:         time.Now,
		sleep:       time.Sleep,
		cache:       make(map[string]Location),
	}
}

// nominatimResult is the wire shape of one Nominatim search result.
// Coordinates arrive as strings.
type nominatimResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Geocode resolves a free-text address to a location. Results are cached for
// the lifetime of the client; only cache misses hit the provider.
func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	address = strings.TrimSpace(address)
	if len(address) < 3 {
		return nil, domain.NewAppError(domain.CodeValidation, "address must be at least 3 characters", nil)
	}

	c.cacheMu.RLock()
	cached, ok := c.cache[address]
	c.cacheMu.RUnlock()
	if ok {
		loc := cached
		return &loc, nil
	}

	results, err := c.search(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.NewAppError(domain.CodeNotFound, "address not found", nil)
	}

	loc := results[0]
	c.cacheMu.Lock()
	c.cache[address] = loc
	c.cacheMu.Unlock()

	return &loc, nil
}

// Search returns up to limit locations matching the query, for address
// autocompletion. limit is clamped to [1, 10]; 0 means 5. An empty result
// list is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, domain.NewAppError(domain.CodeValidation, "query must be at least 2 characters", nil)
	}
	if limit == 0 {
		limit = 5
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}
	return c.search(ctx, query, limit)
}

// Reverse resolves coordinates to the address at that point.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, domain.NewAppError(domain.CodeValidation, "invalid coordinates", nil)
	}

	params := url.Values{
		"lat":            []string{strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            []string{strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         []string{"json"},
		"addressdetails": []string{"1"},
	}

	var result nominatimResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" || result.DisplayName == "" {
		return nil, domain.NewAppError(domain.CodeNotFound, "no address at coordinates", nil)
	}

	addr := &Address{
		DisplayName: result.DisplayName,
		Road:        result.Address["road"],
		HouseNumber: result.Address["house_number"],
		Postcode:    result.Address["postcode"],
		Country:     result.Address["country"],
	}
	// Nominatim reports the locality under different keys by place size.
	for _, key := range []string{"city", "town", "village"} {
		if v := result.Address[key]; v != "" {
			addr.City = v
			break
		}
	}
	return addr, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]Location, error) {
	params := url.Values{
		"q":              []string{query},
		"format":         []string{"json"},
		"limit":          []string{strconv.Itoa(limit)},
		"addressdetails": []string{"1"},
	}

	var results []nominatimResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		locations = append(locations, Location{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: r.DisplayName,
			Type:        r.Type,
			Importance:  r.Importance,
		})
	}
	return locations, nil
}

// get performs one rate-limited GET against the provider and decodes the
// JSON response into out. Transport and HTTP-level failures are reported as
// Unavailable so callers can distinguish them from empty results.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	c.waitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "build geocoding request", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewAppError(domain.CodeUnavailable, "geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewAppError(domain.CodeUnavailable, fmt.Sprintf("geocoding provider returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewAppError(domain.CodeUnavailable, "decode geocoding response", err)
	}
	return nil
}

// waitTurn blocks until at least minInterval has passed since the previous
// outbound call, then claims the current slot.
func (c *Client) waitTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCall.IsZero() {
		if elapsed := c.now().Sub(c.lastCall); elapsed < c.minInterval {
			c.sleep(c.minInterval - elapsed)
		}
	}
	c.lastCall = c.now()
}
