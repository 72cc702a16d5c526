package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"pair-quiz-service/internal/domain"
)

// GameRepository abstracts how pair games are stored (in-memory, Postgres).
type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	GetByID(ctx context.Context, id string) (domain.Game, error)
	// FindPending returns the single game waiting for a second player, or
	// domain.ErrGameNotFound when the queue is empty.
	FindPending(ctx context.Context) (domain.Game, error)
	// AttachSecondPlayer pairs a player into a pending game. The update is
	// conditional on the game still being PendingSecondPlayer and returns
	// domain.ErrConflict when that precondition no longer holds.
	AttachSecondPlayer(ctx context.Context, gameID, playerID string, pairedAt time.Time) (domain.Game, error)
	// Finish transitions Active -> Finished. The update is conditional on the
	// game still being Active; exactly one concurrent finalizer can win, the
	// rest receive domain.ErrConflict.
	Finish(ctx context.Context, fin FinishGame) (domain.Game, error)
}

// FinishGame carries the terminal fields written by the single winning finalizer.
type FinishGame struct {
	GameID            string
	WinnerUserID      string
	FirstPlayerScore  int
	SecondPlayerScore int
	FinishedAt        time.Time
}

// PlayerRepository abstracts per-match player records.
type PlayerRepository interface {
	Create(ctx context.Context, player *domain.Player) error
	GetByID(ctx context.Context, id string) (domain.Player, error)
	// FindActiveByUserID returns the caller's unfinished-match record, or
	// domain.ErrPlayerNotFound.
	FindActiveByUserID(ctx context.Context, userID string) (domain.Player, error)
	// AppendAnswers appends entries iff the player's answer sequence still has
	// exactly expectedIndex entries, and bumps the score by the number of
	// correct entries appended. Losing the race returns domain.ErrConflict
	// with no mutation.
	AppendAnswers(ctx context.Context, playerID string, expectedIndex int, answers []domain.Answer) (domain.Player, error)
	// Deactivate marks the record historical once its game is finished.
	Deactivate(ctx context.Context, playerID string) error
}

// QuestionPool loads the shared trivia catalog that games sample from.
type QuestionPool interface {
	Catalog(ctx context.Context) ([]domain.TriviaItem, error)
}

// UserClaims is the verified caller identity produced by an Identity implementation.
type UserClaims struct {
	UserID string
	Login  string
}

// Identity resolves a bearer credential into a verified user. Issuance and
// user persistence live outside this service.
type Identity interface {
	Identify(ctx context.Context, token string) (UserClaims, error)
}

// QuizService contains the pair-game use cases: matchmaking, answer
// submission, the forfeit timer, and live game watching.
type QuizService struct {
	games   GameRepository
	players PlayerRepository
	pool    QuestionPool

	// finishWindow is how long the trailing player may keep answering after
	// the opponent completes all questions.
	finishWindow time.Duration
	now          func() time.Time
	rnd          *rand.Rand

	// joinMu serializes the find-pending-or-create step so two concurrent
	// joiners cannot both open fresh games.
	joinMu sync.Mutex

	watchers *watchHub
}

func NewQuizService(games GameRepository, players PlayerRepository, pool QuestionPool, finishWindow time.Duration) *QuizService {
	return NewQuizServiceWithClock(games, players, pool, finishWindow, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps and
// forfeit-window checks.
func NewQuizServiceWithClock(games GameRepository, players PlayerRepository, pool QuestionPool, finishWindow time.Duration, now func() time.Time) *QuizService {
	return &QuizService{
		games:        games,
		players:      players,
		pool:         pool,
		finishWindow: finishWindow,
		now:          now,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		watchers:     newWatchHub(),
	}
}

// CurrentGame resolves the caller's unfinished match, running the forfeit
// check for both sides first. Returns domain.ErrNoActiveGame when the caller
// has none and domain.ErrGameOver when a forfeit check just closed the game.
func (s *QuizService) CurrentGame(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	_, game, err := s.resolveCurrent(ctx, userID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return domain.SnapshotOf(game), nil
}

// resolveCurrent loads the caller's active player and game and applies the
// forfeit timer to both participants before handing the game back.
func (s *QuizService) resolveCurrent(ctx context.Context, userID string) (domain.Player, domain.Game, error) {
	player, err := s.players.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return domain.Player{}, domain.Game{}, domain.ErrNoActiveGame
		}
		return domain.Player{}, domain.Game{}, err
	}

	game, err := s.games.GetByID(ctx, player.GameID)
	if err != nil {
		return domain.Player{}, domain.Game{}, err
	}

	if game.Status == domain.StatusActive {
		for _, id := range []string{game.FirstPlayerID, game.SecondPlayerID} {
			side, err := s.players.GetByID(ctx, id)
			if err != nil {
				return domain.Player{}, domain.Game{}, err
			}
			verdict, err := s.CheckTimer(ctx, side)
			if err != nil {
				return domain.Player{}, domain.Game{}, err
			}
			if verdict == TimerGameOver {
				return domain.Player{}, domain.Game{}, domain.ErrGameOver
			}
		}
		// Timer checks may have advanced state; re-read before answering.
		game, err = s.games.GetByID(ctx, player.GameID)
		if err != nil {
			return domain.Player{}, domain.Game{}, err
		}
		player, err = s.players.GetByID(ctx, player.ID)
		if err != nil {
			return domain.Player{}, domain.Game{}, err
		}
	}

	return player, game, nil
}

// finalize is the single Active -> Finished transition, shared by the
// both-complete path and the forfeit path. Whoever wins the conditional
// update deactivates both player records; losers see domain.ErrConflict.
func (s *QuizService) finalize(ctx context.Context, game domain.Game, first, second domain.Player, winner string, finishedAt time.Time) (domain.Game, error) {
	finished, err := s.games.Finish(ctx, FinishGame{
		GameID:            game.ID,
		WinnerUserID:      winner,
		FirstPlayerScore:  first.Score,
		SecondPlayerScore: second.Score,
		FinishedAt:        finishedAt,
	})
	if err != nil {
		return domain.Game{}, err
	}

	if err := s.players.Deactivate(ctx, first.ID); err != nil {
		return domain.Game{}, err
	}
	if err := s.players.Deactivate(ctx, second.ID); err != nil {
		return domain.Game{}, err
	}

	s.watchers.publish(finished.ID, domain.SnapshotOf(finished))
	return finished, nil
}

// sampleQuestions draws n catalog items without replacement and stamps each
// copy with a fresh id so questions stay owned by their game.
func (s *QuizService) sampleQuestions(ctx context.Context, n int) ([]domain.Question, error) {
	catalog, err := s.pool.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) < n {
		return nil, domain.ErrEmptyPool
	}

	questions := make([]domain.Question, 0, n)
	for _, i := range s.rnd.Perm(len(catalog))[:n] {
		questions = append(questions, domain.Question{
			ID:            newID(),
			Body:          catalog[i].Body,
			CorrectAnswer: catalog[i].CorrectAnswer,
		})
	}
	return questions, nil
}
