package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/redis/go-redis/v9"
)

type PincodeCache struct {
	rdb redis.Cmdable
}

func NewPincodeCache(rdb redis.Cmdable) *PincodeCache {
	return &PincodeCache{rdb: rdb}
}

func (c *PincodeCache) GetPlace(ctx context.Context, pin string) (checkout.Place, bool, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(KeyPincode, pin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return checkout.Place{}, false, nil
	}
	if err != nil {
		return checkout.Place{}, false, err
	}
	var p checkout.Place
	if err := json.Unmarshal(raw, &p); err != nil {
		return checkout.Place{}, false, fmt.Errorf("decode pincode %s: %w", pin, err)
	}
	return p, true, nil
}

func (c *PincodeCache) SetPlace(ctx context.Context, pin string, p checkout.Place) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyPincode, pin), b, TTLPincode).Err()
}
