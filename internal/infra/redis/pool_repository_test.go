package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
)

func TestPoolRepositoryCachesCatalogInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{
		PoolLoader: memory.NewStaticPoolLoader(sampleCatalog()),
	}
	repo := NewPoolRepository(client, loader, time.Minute)

	items, err := repo.Catalog(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(items) != len(sampleCatalog()) {
		t.Fatalf("expected %d items, got %d", len(sampleCatalog()), len(items))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(catalogKey) {
		t.Fatalf("expected redis hash to be populated")
	}

	// Second call should hit cache, loader not incremented.
	if _, err := repo.Catalog(context.Background()); err != nil {
		t.Fatalf("cached catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestPoolRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{PoolLoader: memory.NewStaticPoolLoader(sampleCatalog())}
	repo := NewPoolRepository(client, loader, time.Minute)

	if _, err := repo.Catalog(context.Background()); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := repo.Catalog(context.Background()); err != nil {
		t.Fatalf("catalog after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.PoolLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) ([]domain.TriviaItem, error) {
	l.calls++
	return l.PoolLoader.LoadCatalog(ctx)
}

func sampleCatalog() []domain.TriviaItem {
	return []domain.TriviaItem{
		{Body: "What is 2 + 2?", CorrectAnswer: "4"},
		{Body: "Capital of France?", CorrectAnswer: "Paris"},
		{Body: "Deepest ocean?", CorrectAnswer: "Pacific"},
	}
}
