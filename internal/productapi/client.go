// Package productapi is the HTTP client for the external product backend.
package productapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apierr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
)

var ErrNotFound = errors.New("product not found")

// APIError is a non-2xx answer from the backend. Message is taken from the
// {"message": ...} body when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("product api: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type ListOptions struct {
	Categories []string
	SortBy     catalog.SortKey
}

type CleanResult struct {
	UpdatedCount  int `json:"updatedCount"`
	TotalProducts int `json:"totalProducts"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]catalog.Product, error) {
	q := url.Values{}
	if len(opts.Categories) > 0 {
		b, err := json.Marshal(opts.Categories)
		if err != nil {
			return nil, fmt.Errorf("encode categories: %w", err)
		}
		q.Set("category", string(b))
	}
	if opts.SortBy != "" && opts.SortBy != catalog.SortDefault {
		q.Set("sortBy", string(opts.SortBy))
	}
	path := "/api/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []catalog.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p)
	return p, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/products/category", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, draft catalog.ProductDraft) (catalog.Product, error) {
	var p catalog.Product
	err := c.do(ctx, http.MethodPost, "/api/products", draft, &p)
	return p, err
}

func (c *Client) Update(ctx context.Context, id string, draft catalog.ProductDraft) (catalog.Product, error) {
	var p catalog.Product
	err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), draft, &p)
	return p, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Clean(ctx context.Context) (CleanResult, error) {
	var res CleanResult
	err := c.do(ctx, http.MethodPost, "/api/products/clean", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: apierr.Message(resp)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
