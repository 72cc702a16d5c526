package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"pair-quiz-service/internal/domain"
)

// PlayerRepository stores per-match player records in Postgres. The answer
// sequence lives in a JSONB column; appends are predicated on the current
// array length so a stale read can never produce a duplicate question index.
type PlayerRepository struct {
	db *bun.DB
}

func NewPlayerRepository(db *bun.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, player *domain.Player) error {
	row := rowFromPlayer(player)
	if row.Answers == nil {
		row.Answers = []answerDoc{}
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (domain.Player, error) {
	row := new(playerRow)
	err := r.db.NewSelect().Model(row).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("select player: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) FindActiveByUserID(ctx context.Context, userID string) (domain.Player, error) {
	row := new(playerRow)
	err := r.db.NewSelect().Model(row).
		Where("p.user_id = ?", userID).
		Where("p.active = TRUE").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("select active player: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) AppendAnswers(ctx context.Context, playerID string, expectedIndex int, answers []domain.Answer) (domain.Player, error) {
	if expectedIndex+len(answers) > domain.QuestionsPerGame {
		return domain.Player{}, domain.ErrConflict
	}

	payload, err := json.Marshal(docsFromAnswers(answers))
	if err != nil {
		return domain.Player{}, fmt.Errorf("marshal answers: %w", err)
	}
	delta := 0
	for _, a := range answers {
		if a.Verdict == domain.VerdictCorrect {
			delta++
		}
	}

	row := new(playerRow)
	res, err := r.db.NewUpdate().Model(row).
		Set("answers = answers || ?::jsonb", string(payload)).
		Set("score = score + ?", delta).
		Where("id = ?", playerID).
		Where("jsonb_array_length(answers) = ?", expectedIndex).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, r.missingOrConflict(ctx, playerID)
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("append answers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Player{}, r.missingOrConflict(ctx, playerID)
	}
	return row.toDomain(), nil
}

// missingOrConflict decides why a predicated update matched nothing.
func (r *PlayerRepository) missingOrConflict(ctx context.Context, playerID string) error {
	exists, err := r.db.NewSelect().Model((*playerRow)(nil)).Where("p.id = ?", playerID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check player existence: %w", err)
	}
	if !exists {
		return domain.ErrPlayerNotFound
	}
	return domain.ErrConflict
}

func (r *PlayerRepository) Deactivate(ctx context.Context, playerID string) error {
	res, err := r.db.NewUpdate().Model((*playerRow)(nil)).
		Set("active = FALSE").
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deactivate player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}
