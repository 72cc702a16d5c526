package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pair-quiz-service/internal/domain"
)

// PoolLoader fetches the trivia catalog from a backing store (e.g., Postgres).
type PoolLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.TriviaItem, error)
}

// PoolRepository caches the trivia catalog in Redis (one hash, prompt ->
// correct answer) and falls back to a loader on cache miss.
type PoolRepository struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const catalogKey = "quizpool:catalog"

func NewPoolRepository(client *redis.Client, loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) Catalog(ctx context.Context) ([]domain.TriviaItem, error) {
	cached, err := r.client.HGetAll(ctx, catalogKey).Result()
	if err == nil && len(cached) > 0 {
		return catalogFromCache(cached), nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, catalogKey).Result()
		if err == nil && len(cached) > 0 {
			return catalogFromCache(cached), nil
		}

		items, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		pipe := r.client.Pipeline()
		for _, item := range items {
			pipe.HSet(ctx, catalogKey, item.Body, item.CorrectAnswer)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, catalogKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TriviaItem), nil
}

func catalogFromCache(cached map[string]string) []domain.TriviaItem {
	items := make([]domain.TriviaItem, 0, len(cached))
	for body, answer := range cached {
		items = append(items, domain.TriviaItem{Body: body, CorrectAnswer: answer})
	}
	return items
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
