package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","name":"Boot","category":"shoes","price":50,"dateAdded":"2024-01-02"},
			{"id":"b","name":"Ring","category":"fine-jewellery","price":"20","rating":4.5},
			{"id":"c","name":"Clog","category":"shoes","price":30}
		]`))
	})
	mux.HandleFunc("GET /api/products/category", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["shoes","fine-jewellery"]`))
	})
	mux.HandleFunc("DELETE /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "a" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Product not found"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/products/clean", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"updatedCount":2,"totalProducts":3}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	listCategory, listSort, listJSON = "", string(catalog.SortDefault), false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProductsListFiltersAndSorts(t *testing.T) {
	srv := backend(t)

	out, err := run(t, "--backend", srv.URL, "products", "list", "--category", "shoes", "--sort", "price-low-to-high")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "c "))
	assert.True(t, strings.HasPrefix(lines[2], "a "))
	assert.Contains(t, lines[2], "50.00")
}

func TestProductsListJSON(t *testing.T) {
	srv := backend(t)

	out, err := run(t, "--backend", srv.URL, "products", "list", "--sort", "rating-high-to-low", "--json")
	require.NoError(t, err)
	assert.True(t, strings.Index(out, `"id": "b"`) < strings.Index(out, `"id": "a"`))
}

func TestProductsDeleteNotFound(t *testing.T) {
	srv := backend(t)

	_, err := run(t, "--backend", srv.URL, "products", "delete", "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Product not found")

	_, err = run(t, "--backend", srv.URL, "products", "delete", "a")
	assert.NoError(t, err)
}

func TestProductsCleanAndCategories(t *testing.T) {
	srv := backend(t)

	out, err := run(t, "--backend", srv.URL, "products", "clean")
	require.NoError(t, err)
	assert.Equal(t, "updated 2 of 3 products\n", out)

	out, err = run(t, "--backend", srv.URL, "products", "categories")
	require.NoError(t, err)
	assert.Equal(t, "shoes\nfine-jewellery\n", out)
}

func TestUploadRequiresMediaConfig(t *testing.T) {
	cfg.MediaCloudName, cfg.MediaPreset = "", ""

	_, err := run(t, "upload", "does-not-matter.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLOUDINARY_CLOUD_NAME")
}
