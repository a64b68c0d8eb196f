package productapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second)
}

func TestListEncodesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, `["toys","bouquets"]`, r.URL.Query().Get("category"))
		assert.Equal(t, "price-low-to-high", r.URL.Query().Get("sortBy"))
		_, _ = w.Write([]byte(`[{"id":"1","name":"Bear","category":"toys","price":299.5}]`))
	})

	got, err := c.List(context.Background(), ListOptions{
		Categories: []string{"toys", "bouquets"},
		SortBy:     catalog.SortPriceLowToHigh,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("299.5").Equal(got[0].Price))
}

func TestListWithoutOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	})
	got, err := c.List(context.Background(), ListOptions{SortBy: catalog.SortDefault})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetNotFoundUnwrapsMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Product not found"}`))
	})

	_, err := c.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestErrorFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.Categories(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCreateUpdateDeleteClean(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/products":
			body, _ := io.ReadAll(r.Body)
			var m map[string]any
			require.NoError(t, json.Unmarshal(body, &m))
			assert.Equal(t, "Rose", m["name"])
			assert.NotContains(t, m, "stock")
			_, _ = w.Write([]byte(`{"id":"new","name":"Rose","category":"flowers","price":10}`))
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"id":"new","name":"Red Rose","category":"flowers","price":12}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/products/clean":
			_, _ = w.Write([]byte(`{"updatedCount":2,"totalProducts":9}`))
		}
	})
	ctx := context.Background()

	name := "Rose"
	p, err := c.Create(ctx, catalog.ProductDraft{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "new", p.ID)

	name = "Red Rose"
	p, err = c.Update(ctx, "new", catalog.ProductDraft{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Red Rose", p.Name)

	require.NoError(t, c.Delete(ctx, "new"))

	res, err := c.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanResult{UpdatedCount: 2, TotalProducts: 9}, res)

	assert.Equal(t, []string{
		"POST /api/products",
		"PUT /api/products/new",
		"DELETE /api/products/new",
		"POST /api/products/clean",
	}, seen)
}
