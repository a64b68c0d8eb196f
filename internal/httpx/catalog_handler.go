package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/productapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Products is the backend product API; *productapi.Client implements it.
type Products interface {
	List(ctx context.Context, opts productapi.ListOptions) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, draft catalog.ProductDraft) (catalog.Product, error)
	Update(ctx context.Context, id string, draft catalog.ProductDraft) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
	Clean(ctx context.Context) (productapi.CleanResult, error)
}

// ProductCache is optional; *redisx.ProductCache implements it.
type ProductCache interface {
	GetList(ctx context.Context) ([]catalog.Product, bool, error)
	SetList(ctx context.Context, products []catalog.Product) error
	GetProduct(ctx context.Context, id string) (catalog.Product, bool, error)
	SetProduct(ctx context.Context, p catalog.Product) error
	Invalidate(ctx context.Context, productID string) error
}

// CatalogReader serves product reads through the cache when one is set.
type CatalogReader struct {
	Products Products
	Cache    ProductCache
	Log      *zap.Logger
}

func (c *CatalogReader) All(ctx context.Context) ([]catalog.Product, error) {
	if c.Cache != nil {
		if ps, ok, err := c.Cache.GetList(ctx); err == nil && ok {
			return ps, nil
		} else if err != nil {
			c.Log.Warn("product cache read failed", zap.Error(err))
		}
	}
	ps, err := c.Products.List(ctx, productapi.ListOptions{})
	if err != nil {
		return nil, err
	}
	visible := ps[:0:0]
	for _, p := range ps {
		if !p.IsDeleted {
			visible = append(visible, p)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.SetList(ctx, visible); err != nil {
			c.Log.Warn("product cache write failed", zap.Error(err))
		}
	}
	return visible, nil
}

// Product returns one live product. Soft-deleted products read as not found
// so they can neither be shown nor added to a cart.
func (c *CatalogReader) Product(ctx context.Context, id string) (catalog.Product, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	if p.IsDeleted {
		return catalog.Product{}, &productapi.APIError{Status: http.StatusNotFound, Message: "Product not found"}
	}
	return p, nil
}

func (c *CatalogReader) product(ctx context.Context, id string) (catalog.Product, error) {
	if c.Cache != nil {
		if p, ok, err := c.Cache.GetProduct(ctx, id); err == nil && ok {
			return p, nil
		} else if err != nil {
			c.Log.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	p, err := c.Products.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	if c.Cache != nil {
		if err := c.Cache.SetProduct(ctx, p); err != nil {
			c.Log.Warn("product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

type CatalogHandler struct {
	Reader *CatalogReader
	Log    *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/categories", h.categories)
	r.Get("/products/{id}", h.getProduct)
}

type productListResp struct {
	Category string            `json:"category,omitempty"`
	SortBy   catalog.SortKey   `json:"sortBy"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	all, err := h.Reader.All(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	category := r.URL.Query().Get("category")
	key := catalog.ParseSortKey(r.URL.Query().Get("sortBy"))
	out := catalog.FilterAndSort(all, category, key)
	writeJSON(w, http.StatusOK, productListResp{Category: category, SortBy: key, Count: len(out), Products: out})
}

func (h *CatalogHandler) categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cats, err := h.Reader.Products.Categories(ctx)
	if err != nil {
		h.Log.Warn("category endpoint failed, deriving from product list", zap.Error(err))
		all, lerr := h.Reader.All(ctx)
		if lerr != nil {
			writeError(w, h.Log, err)
			return
		}
		cats = catalog.Categories(all)
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Reader.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
