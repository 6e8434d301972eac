package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/internal/catalog"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func requestWithParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

type stubCatalogService struct {
	catalog.Service

	getProduct   func(ctx context.Context, idOrSlug string) (*catalog.ProductDTO, error)
	listProducts func(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListDTO, error)
	categories   []catalog.CategoryDTO
}

func (s *stubCatalogService) GetProduct(ctx context.Context, idOrSlug string) (*catalog.ProductDTO, error) {
	return s.getProduct(ctx, idOrSlug)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListDTO, error) {
	return s.listProducts(ctx, input)
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	return s.categories, nil
}

func TestGetProduct(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &stubCatalogService{
			getProduct: func(ctx context.Context, idOrSlug string) (*catalog.ProductDTO, error) {
				if idOrSlug != "hex-bolt-m8" {
					t.Fatalf("unexpected lookup value %q", idOrSlug)
				}
				return &catalog.ProductDTO{ID: productID, Name: "Hex Bolt M8", Slug: "hex-bolt-m8"}, nil
			},
		}

		req := requestWithParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/hex-bolt-m8", nil), "idOrSlug", "hex-bolt-m8")
		rec := httptest.NewRecorder()
		GetProduct(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body struct {
			Data catalog.ProductDTO `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if body.Data.Slug != "hex-bolt-m8" {
			t.Fatalf("unexpected slug %q", body.Data.Slug)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		req := requestWithParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil), "idOrSlug", "x")
		rec := httptest.NewRecorder()
		GetProduct(nil, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestListProducts(t *testing.T) {
	logg := testLogger()

	t.Run("passes filters through", func(t *testing.T) {
		categoryID := uuid.New()
		var captured catalog.ListProductsInput
		svc := &stubCatalogService{
			listProducts: func(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListDTO, error) {
				captured = input
				return &catalog.ProductListDTO{Products: []catalog.ProductDTO{}}, nil
			},
		}

		target := "/api/v1/products?limit=10&cursor=abc&q=bolt&category_id=" + categoryID.String()
		rec := httptest.NewRecorder()
		ListProducts(svc, logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if captured.Limit != 10 || captured.Cursor != "abc" || captured.Query != "bolt" {
			t.Fatalf("filters not forwarded: %+v", captured)
		}
		if captured.CategoryID == nil || *captured.CategoryID != categoryID {
			t.Fatalf("category filter not forwarded")
		}
	})

	t.Run("defaults limit", func(t *testing.T) {
		svc := &stubCatalogService{
			listProducts: func(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListDTO, error) {
				if input.Limit != pagination.DefaultLimit {
					t.Fatalf("expected default limit, got %d", input.Limit)
				}
				return &catalog.ProductListDTO{}, nil
			},
		}
		rec := httptest.NewRecorder()
		ListProducts(svc, logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("rejects bad category id", func(t *testing.T) {
		svc := &stubCatalogService{
			listProducts: func(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListDTO, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		rec := httptest.NewRecorder()
		ListProducts(svc, logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id=nope", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListCategories(t *testing.T) {
	logg := testLogger()
	svc := &stubCatalogService{categories: []catalog.CategoryDTO{{Name: "Fasteners", Slug: "fasteners"}}}

	rec := httptest.NewRecorder()
	ListCategories(svc, logg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data struct {
			Categories []catalog.CategoryDTO `json:"categories"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Data.Categories) != 1 || body.Data.Categories[0].Slug != "fasteners" {
		t.Fatalf("unexpected categories payload: %+v", body.Data)
	}
}
