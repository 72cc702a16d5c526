package memory

import (
	"context"
	"sync"

	"pair-quiz-service/internal/domain"
)

// PlayerRepository is an in-memory implementation of app.PlayerRepository.
type PlayerRepository struct {
	mu      sync.RWMutex
	players map[string]*domain.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{players: make(map[string]*domain.Player)}
}

func (r *PlayerRepository) Create(_ context.Context, player *domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := clonePlayer(player)
	r.players[player.ID] = &stored
	return nil
}

func (r *PlayerRepository) GetByID(_ context.Context, id string) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return clonePlayer(player), nil
}

func (r *PlayerRepository) FindActiveByUserID(_ context.Context, userID string) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, player := range r.players {
		if player.UserID == userID && player.Active {
			return clonePlayer(player), nil
		}
	}
	return domain.Player{}, domain.ErrPlayerNotFound
}

// AppendAnswers is the conditional append that serializes submissions per
// player: it only succeeds while the stored sequence still has exactly
// expectedIndex entries, so concurrent duplicates cannot both land.
func (r *PlayerRepository) AppendAnswers(_ context.Context, playerID string, expectedIndex int, answers []domain.Answer) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if len(player.Answers) != expectedIndex {
		return domain.Player{}, domain.ErrConflict
	}
	if len(player.Answers)+len(answers) > domain.QuestionsPerGame {
		return domain.Player{}, domain.ErrConflict
	}
	for _, answer := range answers {
		player.Answers = append(player.Answers, answer)
		if answer.Verdict == domain.VerdictCorrect {
			player.Score++
		}
	}
	return clonePlayer(player), nil
}

func (r *PlayerRepository) Deactivate(_ context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.Active = false
	return nil
}

func clonePlayer(p *domain.Player) domain.Player {
	clone := *p
	clone.Answers = append([]domain.Answer(nil), p.Answers...)
	return clone
}
