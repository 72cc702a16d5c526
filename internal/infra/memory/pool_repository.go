package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pair-quiz-service/internal/domain"
)

// PoolLoader fetches the trivia catalog from a backing store (e.g., Postgres).
type PoolLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.TriviaItem, error)
}

// PoolRepository caches the catalog with TTL to avoid repeated DB hits.
type PoolRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	catalog   []domain.TriviaItem
	expiresAt time.Time
}

func NewPoolRepository(loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) Catalog(ctx context.Context) ([]domain.TriviaItem, error) {
	now := r.clock()

	r.mu.RLock()
	if r.catalog != nil && r.expiresAt.After(now) {
		items := r.catalog
		r.mu.RUnlock()
		return items, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.catalog != nil && r.expiresAt.After(now) {
			items := r.catalog
			r.mu.RUnlock()
			return items, nil
		}
		r.mu.RUnlock()

		items, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.catalog = items
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TriviaItem), nil
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticPoolLoader serves a fixed catalog (useful for tests and demo runs).
type StaticPoolLoader struct {
	items []domain.TriviaItem
}

func NewStaticPoolLoader(items []domain.TriviaItem) *StaticPoolLoader {
	return &StaticPoolLoader{items: items}
}

func (l *StaticPoolLoader) LoadCatalog(_ context.Context) ([]domain.TriviaItem, error) {
	if len(l.items) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return l.items, nil
}
