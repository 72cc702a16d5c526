package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
)

// GameRepository stores games in Postgres. Both lifecycle transitions
// (pairing and finishing) are single predicated UPDATEs, so at most one
// concurrent caller can win each transition.
type GameRepository struct {
	db *bun.DB
}

func NewGameRepository(db *bun.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	if _, err := r.db.NewInsert().Model(rowFromGame(game)).Exec(ctx); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (domain.Game, error) {
	row := new(gameRow)
	err := r.db.NewSelect().Model(row).Where("g.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("select game: %w", err)
	}
	return row.toDomain(), nil
}

func (r *GameRepository) FindPending(ctx context.Context) (domain.Game, error) {
	row := new(gameRow)
	err := r.db.NewSelect().Model(row).
		Where("g.status = ?", string(domain.StatusPendingSecondPlayer)).
		Order("start_game_date ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("select pending game: %w", err)
	}
	return row.toDomain(), nil
}

func (r *GameRepository) AttachSecondPlayer(ctx context.Context, gameID, playerID string, pairedAt time.Time) (domain.Game, error) {
	row := new(gameRow)
	res, err := r.db.NewUpdate().Model(row).
		Set("status = ?", string(domain.StatusActive)).
		Set("second_player_id = ?", playerID).
		Set("pair_created_date = ?", pairedAt).
		Where("id = ?", gameID).
		Where("status = ?", string(domain.StatusPendingSecondPlayer)).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, r.missingOrConflict(ctx, gameID)
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("attach second player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Game{}, r.missingOrConflict(ctx, gameID)
	}
	return row.toDomain(), nil
}

func (r *GameRepository) Finish(ctx context.Context, fin app.FinishGame) (domain.Game, error) {
	var winner any
	if fin.WinnerUserID != "" {
		winner = fin.WinnerUserID
	}
	row := new(gameRow)
	res, err := r.db.NewUpdate().Model(row).
		Set("status = ?", string(domain.StatusFinished)).
		Set("winner_user_id = ?", winner).
		Set("finish_game_date = ?", fin.FinishedAt).
		Set("first_player_score = ?", fin.FirstPlayerScore).
		Set("second_player_score = ?", fin.SecondPlayerScore).
		Where("id = ?", fin.GameID).
		Where("status = ?", string(domain.StatusActive)).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, r.missingOrConflict(ctx, fin.GameID)
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("finish game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Game{}, r.missingOrConflict(ctx, fin.GameID)
	}
	return row.toDomain(), nil
}

// missingOrConflict decides why a predicated update matched nothing.
func (r *GameRepository) missingOrConflict(ctx context.Context, gameID string) error {
	exists, err := r.db.NewSelect().Model((*gameRow)(nil)).Where("g.id = ?", gameID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check game existence: %w", err)
	}
	if !exists {
		return domain.ErrGameNotFound
	}
	return domain.ErrConflict
}
