package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
	"github.com/xside333/tamx-website-sub001/internal/repository"
)

// --- Mock хранилища ---

// mockListingStore — мок ListingStore для unit-тестов.
type mockListingStore struct {
	searchFn  func(ctx context.Context, q repository.ListingQuery) ([]model.Listing, int, error)
	getByIDFn func(ctx context.Context, id int64) (*model.Listing, error)
}

func (m *mockListingStore) Search(ctx context.Context, q repository.ListingQuery) ([]model.Listing, int, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, 0, nil
}

func (m *mockListingStore) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

// --- Тесты CatalogService ---

// TestCatalogService_Search проверяет выполнение поиска через хранилище.
func TestCatalogService_Search(t *testing.T) {
	store := &mockListingStore{
		searchFn: func(ctx context.Context, q repository.ListingQuery) ([]model.Listing, int, error) {
			if q.Page != 2 {
				t.Errorf("Page = %d, ожидалась 2", q.Page)
			}
			if _, ok := ctx.Deadline(); !ok {
				t.Error("ожидался контекст с таймаутом запроса")
			}
			return []model.Listing{{ID: 1}, {ID: 2}}, 62, nil
		},
	}
	svc := NewCatalogService(store, 5*time.Second, slog.Default())

	result, err := svc.Search(context.Background(), repository.ListingQuery{Page: 2})
	if err != nil {
		t.Fatalf("Search ошибка: %v", err)
	}
	if result.Total != 62 {
		t.Errorf("Total = %d, ожидался 62", result.Total)
	}
	if len(result.Items) != 2 {
		t.Errorf("Items count = %d, ожидался 2", len(result.Items))
	}
	// offset 30 + 2 < 62
	if !result.HasMore {
		t.Error("HasMore = false, ожидался true")
	}
}

// TestCatalogService_Search_LastPage проверяет HasMore на последней странице.
func TestCatalogService_Search_LastPage(t *testing.T) {
	store := &mockListingStore{
		searchFn: func(_ context.Context, _ repository.ListingQuery) ([]model.Listing, int, error) {
			return []model.Listing{{ID: 61}, {ID: 62}}, 62, nil
		},
	}
	svc := NewCatalogService(store, 0, slog.Default())

	result, err := svc.Search(context.Background(), repository.ListingQuery{Page: 3})
	if err != nil {
		t.Fatalf("Search ошибка: %v", err)
	}
	if result.HasMore {
		t.Error("HasMore = true, ожидался false (offset 60 + 2 = 62)")
	}
}

// TestCatalogService_Search_Error проверяет проброс ошибки хранилища.
func TestCatalogService_Search_Error(t *testing.T) {
	dbErr := errors.New("connection refused")
	store := &mockListingStore{
		searchFn: func(_ context.Context, _ repository.ListingQuery) ([]model.Listing, int, error) {
			return nil, 0, dbErr
		},
	}
	svc := NewCatalogService(store, 0, slog.Default())

	_, err := svc.Search(context.Background(), repository.ListingQuery{Page: 1})
	if !errors.Is(err, dbErr) {
		t.Errorf("err = %v, ожидалась обёрнутая ошибка хранилища", err)
	}
}

// TestCatalogService_GetListing проверяет получение объявления.
func TestCatalogService_GetListing(t *testing.T) {
	store := &mockListingStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Listing, error) {
			return &model.Listing{ID: id, Details: []byte(`{}`)}, nil
		},
	}
	svc := NewCatalogService(store, 0, slog.Default())

	l, err := svc.GetListing(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetListing ошибка: %v", err)
	}
	if l.ID != 7 {
		t.Errorf("ID = %d, ожидался 7", l.ID)
	}
}

// TestCatalogService_GetListing_NotFound проверяет ErrNotFound.
func TestCatalogService_GetListing_NotFound(t *testing.T) {
	svc := NewCatalogService(&mockListingStore{}, 0, slog.Default())

	_, err := svc.GetListing(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидался ErrNotFound", err)
	}
}

// TestCatalogService_GetListing_Error проверяет, что прочие ошибки не становятся ErrNotFound.
func TestCatalogService_GetListing_Error(t *testing.T) {
	store := &mockListingStore{
		getByIDFn: func(_ context.Context, _ int64) (*model.Listing, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := NewCatalogService(store, 0, slog.Default())

	_, err := svc.GetListing(context.Background(), 1)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидалась ошибка хранилища", err)
	}
}
