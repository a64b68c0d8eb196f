package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const updateAttempts = 5

// CartStore keeps each session cart as one JSON value with a sliding TTL.
// Update runs under WATCH so concurrent writers retry instead of
// overwriting each other.
type CartStore struct {
	rdb    redis.UniversalClient
	limits cart.Limits
	log    *zap.Logger
}

func NewCartStore(rdb redis.UniversalClient, limits cart.Limits, log *zap.Logger) *CartStore {
	return &CartStore{rdb: rdb, limits: limits, log: log}
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.load(ctx, s.rdb, fmt.Sprintf(KeyCart, sessionID))
}

func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	return s.write(ctx, s.rdb, fmt.Sprintf(KeyCart, sessionID), c)
}

func (s *CartStore) Update(ctx context.Context, sessionID string, fn cart.Mutation) (*cart.Cart, cart.Result, error) {
	key := fmt.Sprintf(KeyCart, sessionID)
	var (
		c   *cart.Cart
		res cart.Result
	)
	txf := func(tx *redis.Tx) error {
		var err error
		if c, err = s.load(ctx, tx, key); err != nil {
			return err
		}
		if res, err = fn(c); err != nil || res.Rejected() {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.write(ctx, pipe, key, c)
		})
		return err
	}

	for i := 0; i < updateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			if s.log != nil {
				s.log.Debug("cart update raced, retrying", zap.String("session_id", sessionID), zap.Int("attempt", i+1))
			}
			continue
		}
		if err != nil {
			return nil, cart.Result{}, err
		}
		return c, res, nil
	}
	return nil, cart.Result{}, cart.ErrContended
}

func (s *CartStore) load(ctx context.Context, rdb redis.Cmdable, key string) (*cart.Cart, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(s.limits, s.log), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart.Restore(s.limits, s.log, items), nil
}

func (s *CartStore) write(ctx context.Context, rdb redis.Cmdable, key string, c *cart.Cart) error {
	if c.Len() == 0 {
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
	b, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := rdb.Set(ctx, key, b, TTLCart).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
