package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pair-quiz-service/internal/domain"
)

func newID() string {
	return uuid.NewString()
}

// JoinQueue places the user into the matchmaking queue: either pairing them
// into the single pending game or opening a fresh one with a newly sampled
// question set. A user who already holds an unfinished match gets that match
// back instead of a duplicate.
func (s *QuizService) JoinQueue(ctx context.Context, userID, login string) (domain.GameSnapshot, error) {
	if snap, ok, err := s.gameForActiveUser(ctx, userID); err != nil || ok {
		return snap, err
	}

	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	// Re-check under the lock: a concurrent join by the same user may have
	// placed them into a game after the unlocked fast path ran.
	if snap, ok, err := s.gameForActiveUser(ctx, userID); err != nil || ok {
		return snap, err
	}

	now := s.now()

	pending, err := s.games.FindPending(ctx)
	switch {
	case err == nil:
		owner, err := s.players.GetByID(ctx, pending.FirstPlayerID)
		if err != nil {
			return domain.GameSnapshot{}, err
		}
		if owner.UserID == userID {
			// The pending game is the caller's own; never pair them against
			// themselves.
			return domain.SnapshotOf(pending), nil
		}
		game, err := s.joinPending(ctx, pending, userID, login, now)
		if err == nil {
			s.watchers.publish(game.ID, domain.SnapshotOf(game))
			return domain.SnapshotOf(game), nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.GameSnapshot{}, err
		}
		// Pending game vanished under us; fall through and open a fresh one.
	case !errors.Is(err, domain.ErrGameNotFound):
		return domain.GameSnapshot{}, err
	}

	game, err := s.openGame(ctx, userID, login, now)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	s.watchers.publish(game.ID, domain.SnapshotOf(game))
	return domain.SnapshotOf(game), nil
}

// gameForActiveUser returns the game behind the user's unfinished match, or
// ok=false when they have none.
func (s *QuizService) gameForActiveUser(ctx context.Context, userID string) (domain.GameSnapshot, bool, error) {
	existing, err := s.players.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return domain.GameSnapshot{}, false, nil
		}
		return domain.GameSnapshot{}, false, err
	}
	game, err := s.games.GetByID(ctx, existing.GameID)
	if err != nil {
		return domain.GameSnapshot{}, false, err
	}
	return domain.SnapshotOf(game), true, nil
}

// joinPending claims the pending game for the user as its second player. The
// player record is written before the claim so the game never turns Active
// while its second player is missing; a failed claim deactivates the record
// again, and a failed create leaves the game untouched and still claimable.
func (s *QuizService) joinPending(ctx context.Context, pending domain.Game, userID, login string, now time.Time) (domain.Game, error) {
	player := &domain.Player{
		ID:     newID(),
		UserID: userID,
		GameID: pending.ID,
		Login:  login,
		Active: true,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return domain.Game{}, fmt.Errorf("create second player: %w", err)
	}

	game, err := s.games.AttachSecondPlayer(ctx, pending.ID, player.ID, now)
	if err != nil {
		_ = s.players.Deactivate(ctx, player.ID)
		return domain.Game{}, err
	}
	return game, nil
}

// openGame creates a fresh pending game with this user as first player.
func (s *QuizService) openGame(ctx context.Context, userID, login string, now time.Time) (domain.Game, error) {
	questions, err := s.sampleQuestions(ctx, domain.QuestionsPerGame)
	if err != nil {
		return domain.Game{}, err
	}

	player := &domain.Player{
		ID:     newID(),
		UserID: userID,
		GameID: newID(),
		Login:  login,
		Active: true,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return domain.Game{}, fmt.Errorf("create first player: %w", err)
	}

	game := &domain.Game{
		ID:            player.GameID,
		Status:        domain.StatusPendingSecondPlayer,
		Questions:     questions,
		FirstPlayerID: player.ID,
		StartGameDate: now,
	}
	if err := s.games.Create(ctx, game); err != nil {
		// Never leave a player active against a game that was not created.
		_ = s.players.Deactivate(ctx, player.ID)
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	return *game, nil
}
