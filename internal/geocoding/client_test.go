package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain"
)

// newTestClient builds a Client against the given test server with a fake
// clock so no test ever sleeps for real.
func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *fakeClock) {
	t.Helper()
	c := New(config.GeocodingConfig{
		BaseURL:            srv.URL,
		UserAgent:          "marketplace-test/1.0",
		MinRequestInterval: "1s",
		Timeout:            "5s",
	})
	clk := &fakeClock{current: time.Unix(1000, 0)}
	c.now = clk.Now
	c.sleep = clk.Sleep
	return c, clk
}

// fakeClock advances instantly instead of sleeping and records total time slept.
type fakeClock struct {
	current time.Time
	slept   time.Duration
}

func (f *fakeClock) Now() time.Time { return f.current }

func (f *fakeClock) Sleep(d time.Duration) {
	f.slept += d
	f.current = f.current.Add(d)
}

func searchServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

const milanJSON = `[{"lat":"45.4642","lon":"9.1900","display_name":"Milano, Lombardia, Italia","type":"city","importance":0.9}]`

func TestGeocode(t *testing.T) {
	srv := searchServer(t, milanJSON)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	loc, err := c.Geocode(context.Background(), "Milano")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc.Latitude != 45.4642 || loc.Longitude != 9.19 {
		t.Errorf("got (%v, %v); want (45.4642, 9.19)", loc.Latitude, loc.Longitude)
	}
	if loc.DisplayName != "Milano, Lombardia, Italia" {
		t.Errorf("DisplayName=%q", loc.DisplayName)
	}
}

func TestGeocode_TooShort(t *testing.T) {
	srv := searchServer(t, milanJSON)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	_, err := c.Geocode(context.Background(), "Mi")
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGeocode_NotFound(t *testing.T) {
	srv := searchServer(t, `[]`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	_, err := c.Geocode(context.Background(), "Nowhereville")
	if !domain.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestGeocode_CachedResultSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(milanJSON))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := c.Geocode(ctx, "Milano"); err != nil {
		t.Fatalf("first Geocode: %v", err)
	}
	if _, err := c.Geocode(ctx, "Milano"); err != nil {
		t.Fatalf("second Geocode: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("provider called %d times; want 1", calls.Load())
	}
}

func TestGeocode_TransportFailureIsUnavailable(t *testing.T) {
	srv := searchServer(t, milanJSON)
	srv.Close() // refuse connections

	c, _ := newTestClient(t, srv)

	_, err := c.Geocode(context.Background(), "Milano")
	if !domain.IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestGeocode_ProviderErrorStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	_, err := c.Geocode(context.Background(), "Milano")
	if !domain.IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestRateLimit_SecondCallWaits(t *testing.T) {
	srv := searchServer(t, `[]`)
	defer srv.Close()

	c, clk := newTestClient(t, srv)
	ctx := context.Background()

	c.Search(ctx, "first query", 5)
	c.Search(ctx, "second query", 5)

	if clk.slept < 900*time.Millisecond {
		t.Errorf("second call slept %v; want about 1s", clk.slept)
	}
}

func TestRateLimit_SpacedCallsDoNotWait(t *testing.T) {
	srv := searchServer(t, `[]`)
	defer srv.Close()

	c, clk := newTestClient(t, srv)
	ctx := context.Background()

	c.Search(ctx, "first query", 5)
	clk.current = clk.current.Add(2 * time.Second)
	slept := clk.slept
	c.Search(ctx, "second query", 5)

	if clk.slept != slept {
		t.Errorf("second call slept %v despite 2s gap", clk.slept-slept)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	ctx := context.Background()

	tests := []struct {
		limit int
		want  string
	}{
		{0, "5"},
		{-3, "1"},
		{7, "7"},
		{50, "10"},
	}
	for _, tt := range tests {
		if _, err := c.Search(ctx, "piazza duomo", tt.limit); err != nil {
			t.Fatalf("Search(limit=%d): %v", tt.limit, err)
		}
		if gotLimit != tt.want {
			t.Errorf("limit=%d sent %q; want %q", tt.limit, gotLimit, tt.want)
		}
	}
}

func TestSearch_EmptyResultIsNotError(t *testing.T) {
	srv := searchServer(t, `[]`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	locs, err := c.Search(context.Background(), "xyzzy", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("got %d results; want 0", len(locs))
	}
}

func TestReverse(t *testing.T) {
	srv := searchServer(t, `{"display_name":"Via Roma 1, Milano, Italia","address":{"road":"Via Roma","house_number":"1","city":"Milano","postcode":"20121","country":"Italia"}}`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	addr, err := c.Reverse(context.Background(), 45.4642, 9.19)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if addr.City != "Milano" || addr.Road != "Via Roma" || addr.Postcode != "20121" {
		t.Errorf("unexpected address: %+v", addr)
	}
}

func TestReverse_TownFallsBackToCity(t *testing.T) {
	srv := searchServer(t, `{"display_name":"Somewhere","address":{"town":"Legnano","country":"Italia"}}`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	addr, err := c.Reverse(context.Background(), 45.59, 8.91)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if addr.City != "Legnano" {
		t.Errorf("City=%q; want Legnano", addr.City)
	}
}

func TestReverse_InvalidCoordinates(t *testing.T) {
	srv := searchServer(t, `{}`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	_, err := c.Reverse(context.Background(), 91, 0)
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReverse_NoResult(t *testing.T) {
	srv := searchServer(t, `{"error":"Unable to geocode"}`)
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	_, err := c.Reverse(context.Background(), 0, 0)
	if !domain.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
