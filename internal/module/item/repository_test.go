package item

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/domain"
	"marketplace/internal/geo"
)

// setupTestDB creates an in-memory SQLite database with the Item table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func ptr(v float64) *float64 { return &v }

func baseQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Page:     1,
		PageSize: 20,
		OrderBy:  domain.OrderByCreatedAt,
		OrderDir: domain.OrderDesc,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	it := &domain.Item{Name: "Vintage bicycle", Price: 120, SellerID: 1}
	if err := repo.Create(ctx, it); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if it.ID == 0 {
		t.Fatal("expected non-zero ID after Create")
	}

	got, err := repo.GetByID(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Vintage bicycle" || got.Price != 120 {
		t.Errorf("got %+v; want Name=Vintage bicycle, Price=120", got)
	}
	if got.HasCoordinates() {
		t.Error("item created without coordinates should have none")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	if !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearch_PriceRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	prices := []float64{10, 50, 100, 500}
	for i, p := range prices {
		it := &domain.Item{Name: fmt.Sprintf("Item%d", i), Price: p, SellerID: 1}
		if err := repo.Create(ctx, it); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	q := baseQuery()
	q.MinPrice = ptr(50)
	q.MaxPrice = ptr(100)

	items, total, err := repo.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Errorf("total=%d; want 2", total)
	}
	for _, it := range items {
		if it.Price < 50 || it.Price > 100 {
			t.Errorf("price %v outside [50, 100]", it.Price)
		}
	}
}

func TestSearch_TextMatchesNameAndDescription(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	items := []domain.Item{
		{Name: "Mountain Bike", Description: "great condition", Price: 200, SellerID: 1},
		{Name: "Helmet", Description: "fits any BIKE", Price: 30, SellerID: 1},
		{Name: "Desk lamp", Description: "warm light", Price: 15, SellerID: 1},
	}
	for i := range items {
		if err := repo.Create(ctx, &items[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	q := baseQuery()
	q.Search = "bike"

	_, total, err := repo.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Errorf("total=%d; want 2 (name match and description match)", total)
	}
}

func TestSearch_SellerFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	for i, sellerID := range []uint{1, 1, 2} {
		it := &domain.Item{Name: fmt.Sprintf("Item%d", i), Price: 10, SellerID: sellerID}
		if err := repo.Create(ctx, it); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	q := baseQuery()
	q.SellerID = 1

	items, total, err := repo.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Errorf("total=%d; want 2", total)
	}
	for _, it := range items {
		if it.SellerID != 1 {
			t.Errorf("item %d belongs to seller %d; want 1", it.ID, it.SellerID)
		}
	}
}

func TestSearch_PaginationAndOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		it := &domain.Item{Name: fmt.Sprintf("Item%02d", i), Price: float64(i), SellerID: 1}
		if err := repo.Create(ctx, it); err != nil {
			t.Fatalf("Create item %d: %v", i, err)
		}
	}

	q := baseQuery()
	q.Page = 2
	q.PageSize = 10
	q.OrderBy = domain.OrderByPrice
	q.OrderDir = domain.OrderAsc

	items, total, err := repo.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 25 {
		t.Errorf("total=%d; want 25", total)
	}
	if len(items) != 10 {
		t.Fatalf("page size=%d; want 10", len(items))
	}
	if items[0].Price != 11 || items[9].Price != 20 {
		t.Errorf("page 2 spans prices %v..%v; want 11..20", items[0].Price, items[9].Price)
	}
}

func TestSearch_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	items, total, err := repo.Search(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 0 {
		t.Errorf("total=%d; want 0", total)
	}
	if len(items) != 0 {
		t.Errorf("items=%d; want 0", len(items))
	}
}

func TestFindInBox(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	items := []domain.Item{
		{Name: "In Milan", Price: 10, SellerID: 1, Latitude: ptr(45.4642), Longitude: ptr(9.19)},
		{Name: "In Monza", Price: 10, SellerID: 1, Latitude: ptr(45.5845), Longitude: ptr(9.2744)},
		{Name: "In Turin", Price: 10, SellerID: 1, Latitude: ptr(45.0703), Longitude: ptr(7.6869)},
		{Name: "No location", Price: 10, SellerID: 1},
	}
	for i := range items {
		if err := repo.Create(ctx, &items[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	box := geo.NewBoundingBox(45.4642, 9.19, 30)
	got, err := repo.FindInBox(ctx, box)
	if err != nil {
		t.Fatalf("FindInBox: %v", err)
	}

	names := make(map[string]bool, len(got))
	for _, it := range got {
		names[it.Name] = true
	}
	if !names["In Milan"] || !names["In Monza"] {
		t.Errorf("box around Milan should contain Milan and Monza; got %v", names)
	}
	if names["In Turin"] {
		t.Error("Turin is ~126km away and outside a 30km box")
	}
	if names["No location"] {
		t.Error("items without coordinates must never match a box")
	}
}

func TestUpdate_MarksSold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	it := &domain.Item{Name: "Sofa", Price: 80, SellerID: 1}
	if err := repo.Create(ctx, it); err != nil {
		t.Fatalf("Create: %v", err)
	}

	it.IsSold = true
	if err := repo.Update(ctx, it); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := repo.GetByID(ctx, it.ID)
	if !got.IsSold {
		t.Error("IsSold not persisted")
	}
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	it := &domain.Item{Name: "Chair", Price: 20, SellerID: 1}
	if err := repo.Create(ctx, it); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, it.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := repo.GetByID(ctx, it.ID)
	if !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	err := repo.Delete(context.Background(), 999)
	if !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
