package cart

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ErrContended is returned when an update kept losing to concurrent writers.
var ErrContended = errors.New("cart is busy, retry")

// Mutation edits c in place. A rejected Result or an error leaves the stored
// cart untouched. It may run more than once, always on a freshly loaded cart.
type Mutation func(c *Cart) (Result, error)

// Store persists carts by session id. Load of an unknown session returns an
// empty cart. Update is the read-modify-write path: concurrent Updates on one
// session never lose each other's changes.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Update(ctx context.Context, sessionID string, fn Mutation) (*Cart, Result, error)
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	limits Limits
	log    *zap.Logger

	mu    sync.Mutex
	carts map[string][]Item
	locks map[string]*sessionLock
}

func NewMemoryStore(limits Limits, log *zap.Logger) *MemoryStore {
	return &MemoryStore{limits: limits, log: log, carts: map[string][]Item{}, locks: map[string]*sessionLock{}}
}

// lock takes the per-session lock; the returned func releases it and drops
// the entry once nobody waits on it.
func (s *MemoryStore) lock(sessionID string) func() {
	s.mu.Lock()
	l := s.locks[sessionID]
	if l == nil {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	items := slices.Clone(s.carts[sessionID])
	s.mu.Unlock()
	return Restore(s.limits, s.log, items), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, c *Cart) error {
	defer s.lock(sessionID)()
	s.put(sessionID, c)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn Mutation) (*Cart, Result, error) {
	defer s.lock(sessionID)()

	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, Result{}, err
	}
	res, err := fn(c)
	if err != nil {
		return nil, Result{}, err
	}
	if !res.Rejected() {
		s.put(sessionID, c)
	}
	return c, res, nil
}

func (s *MemoryStore) put(sessionID string, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Len() == 0 {
		delete(s.carts, sessionID)
		return
	}
	s.carts[sessionID] = c.Items()
}
