package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/redis/go-redis/v9"
)

// ProductCache caches backend product reads. A miss is (nil, false, nil).
type ProductCache struct {
	rdb redis.Cmdable
}

func NewProductCache(rdb redis.Cmdable) *ProductCache {
	return &ProductCache{rdb: rdb}
}

func (c *ProductCache) GetList(ctx context.Context) ([]catalog.Product, bool, error) {
	var out []catalog.Product
	ok, err := c.get(ctx, KeyProductList, &out)
	return out, ok, err
}

func (c *ProductCache) SetList(ctx context.Context, products []catalog.Product) error {
	return c.set(ctx, KeyProductList, products)
}

func (c *ProductCache) GetProduct(ctx context.Context, id string) (catalog.Product, bool, error) {
	var p catalog.Product
	ok, err := c.get(ctx, fmt.Sprintf(KeyProduct, id), &p)
	return p, ok, err
}

func (c *ProductCache) SetProduct(ctx context.Context, p catalog.Product) error {
	return c.set(ctx, fmt.Sprintf(KeyProduct, p.ID), p)
}

// Invalidate drops the list and, when id is set, that product.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	keys := []string{KeyProductList}
	if id != "" {
		keys = append(keys, fmt.Sprintf(KeyProduct, id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate products: %w", err)
	}
	return nil
}

func (c *ProductCache) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *ProductCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, TTLProductList).Err()
}
