package memory

import (
	"context"
	"sync"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
)

// GameRepository is an in-memory implementation of app.GameRepository. All
// conditional updates are enforced under the lock, which gives the same
// compare-and-set semantics the Postgres tier gets from predicated UPDATEs.
type GameRepository struct {
	mu    sync.RWMutex
	games map[string]*domain.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{games: make(map[string]*domain.Game)}
}

func (r *GameRepository) Create(_ context.Context, game *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneGame(game)
	r.games[game.ID] = &stored
	return nil
}

func (r *GameRepository) GetByID(_ context.Context, id string) (domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (r *GameRepository) FindPending(_ context.Context) (domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var pending *domain.Game
	for _, game := range r.games {
		if game.Status != domain.StatusPendingSecondPlayer {
			continue
		}
		if pending == nil || game.StartGameDate.Before(pending.StartGameDate) {
			pending = game
		}
	}
	if pending == nil {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return cloneGame(pending), nil
}

func (r *GameRepository) AttachSecondPlayer(_ context.Context, gameID, playerID string, pairedAt time.Time) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if game.Status != domain.StatusPendingSecondPlayer {
		return domain.Game{}, domain.ErrConflict
	}
	game.Status = domain.StatusActive
	game.SecondPlayerID = playerID
	game.PairCreatedDate = pairedAt
	return cloneGame(game), nil
}

func (r *GameRepository) Finish(_ context.Context, fin app.FinishGame) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[fin.GameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if game.Status != domain.StatusActive {
		return domain.Game{}, domain.ErrConflict
	}
	first, second := fin.FirstPlayerScore, fin.SecondPlayerScore
	game.Status = domain.StatusFinished
	game.WinnerUserID = fin.WinnerUserID
	game.FinishGameDate = fin.FinishedAt
	game.FirstPlayerScore = &first
	game.SecondPlayerScore = &second
	return cloneGame(game), nil
}

func cloneGame(g *domain.Game) domain.Game {
	clone := *g
	clone.Questions = append([]domain.Question(nil), g.Questions...)
	if g.FirstPlayerScore != nil {
		v := *g.FirstPlayerScore
		clone.FirstPlayerScore = &v
	}
	if g.SecondPlayerScore != nil {
		v := *g.SecondPlayerScore
		clone.SecondPlayerScore = &v
	}
	return clone
}
