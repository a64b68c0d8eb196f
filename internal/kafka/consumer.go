package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the message was processed and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r          Reader
	workers    int
	retryDelay time.Duration
	log        *zap.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return NewConsumerWithReader(r, workers, log)
}

func NewConsumerWithReader(r Reader, workers int, log *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{r: r, workers: workers, retryDelay: 200 * time.Millisecond, log: log}
}

// Start fetches messages and fans them out to the worker pool until ctx is
// done or the reader fails. Each partition is pinned to one worker, so its
// messages are handled in offset order.
//
// A failed message is logged and left uncommitted. Later messages of the
// same partition are still handled but not committed either, since a commit
// would move the group offset past the failure; after a restart the group
// resumes from the failed offset. Handlers must therefore be idempotent.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(id int, in <-chan kafka.Message) {
			defer wg.Done()
			c.work(ctx, id, in, h)
		}(i, jobs[i])
	}
	defer wg.Wait()
	defer func() {
		for _, ch := range jobs {
			close(ch)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) work(ctx context.Context, id int, in <-chan kafka.Message, h Handler) {
	// partition -> first failed offset; only this worker sees these partitions
	stalled := map[int]int64{}
	for m := range in {
		log := c.log.With(zap.Int("worker", id), zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))
		if err := h(ctx, m); err != nil {
			log.Warn("handler failed", zap.Error(err))
			if _, ok := stalled[m.Partition]; !ok {
				stalled[m.Partition] = m.Offset
			}
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
			continue
		}
		if first, ok := stalled[m.Partition]; ok {
			log.Debug("commit held back by earlier failure", zap.Int64("failed_offset", first))
			continue
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Warn("commit failed", zap.Error(err))
		}
	}
}
