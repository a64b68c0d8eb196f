// Package catalogsync drops cached product reads when the catalog changes.
package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Invalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// MarkFunc reports whether key is seen for the first time.
type MarkFunc func(ctx context.Context, key string) (bool, error)

type Service struct {
	Cache       Invalidator
	Mark        MarkFunc
	ServiceName string
	Log         *zap.Logger
}

// HandleProductChanged is installed as the consumer handler.
func (s *Service) HandleProductChanged(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, commit and move on
		s.Log.Warn("skip undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	switch env.EventType {
	case events.EventProductCreated, events.EventProductUpdated, events.EventProductDeleted, events.EventProductsCleaned:
	default:
		return nil
	}

	if s.Mark != nil {
		first, err := s.Mark(ctx, fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID))
		if err != nil {
			s.Log.Warn("dedup check failed, processing anyway", zap.Error(err))
		} else if !first {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[events.ProductChangedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := s.Cache.Invalidate(ctx, p.ProductID); err != nil {
		return fmt.Errorf("invalidate %q: %w", p.ProductID, err)
	}
	s.Log.Info("product cache invalidated",
		zap.String("event_type", env.EventType), zap.String("product_id", p.ProductID))
	return nil
}
