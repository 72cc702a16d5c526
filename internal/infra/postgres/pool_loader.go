package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"pair-quiz-service/internal/domain"
)

// PoolLoader loads the trivia catalog from Postgres.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadCatalog(ctx context.Context) ([]domain.TriviaItem, error) {
	rows, err := l.pool.Query(ctx, `SELECT body, correct_answer FROM pool_questions ORDER BY body`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var items []domain.TriviaItem
	for rows.Next() {
		var item domain.TriviaItem
		if err := rows.Scan(&item.Body, &item.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return items, nil
}
