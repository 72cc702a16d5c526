package app

import (
	"context"
	"errors"

	"pair-quiz-service/internal/domain"
)

// TimerVerdict is the outcome of a forfeit check.
type TimerVerdict string

const (
	// TimerOk means the game is still playable for both sides.
	TimerOk TimerVerdict = "ok"
	// TimerGameOver means the game is finished, either because this check
	// just forfeited the trailing player or because it already ended.
	TimerGameOver TimerVerdict = "gameOver"
)

// CheckTimer applies the forfeit rule for one participant. It is pull-based:
// callers run it on every game-scoped access instead of relying on a
// background scheduler. When the given player finished all questions and the
// opponent's finish window has elapsed, the opponent's remaining questions
// are recorded Incorrect and the game is finalized with the finished player
// as winner. Calling it on an already-finished game is a no-op that reports
// TimerGameOver.
func (s *QuizService) CheckTimer(ctx context.Context, player domain.Player) (TimerVerdict, error) {
	game, err := s.games.GetByID(ctx, player.GameID)
	if err != nil {
		return TimerOk, err
	}
	if game.Status == domain.StatusFinished {
		return TimerGameOver, nil
	}
	if game.Status != domain.StatusActive || !player.Finished() {
		return TimerOk, nil
	}

	// The window is read once per check from the injected config value.
	if s.now().Sub(player.FinishedAt()) <= s.finishWindow {
		return TimerOk, nil
	}

	opponent, err := s.players.GetByID(ctx, game.OpponentPlayerID(player.ID))
	if err != nil {
		return TimerOk, err
	}

	if !opponent.Finished() {
		opponent, err = s.forceComplete(ctx, game, opponent)
		if errors.Is(err, domain.ErrConflict) {
			// The opponent squeezed in an answer (or another check already
			// forced them); re-read and let the winning path report.
			game, rerr := s.games.GetByID(ctx, player.GameID)
			if rerr != nil {
				return TimerOk, rerr
			}
			if game.Status == domain.StatusFinished {
				return TimerGameOver, nil
			}
			return TimerOk, nil
		}
		if err != nil {
			return TimerOk, err
		}
	}

	first, second := orientPlayers(game, player, opponent)
	if _, err := s.finalize(ctx, game, first, second, player.UserID, s.now()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return TimerGameOver, nil
		}
		return TimerOk, err
	}
	return TimerGameOver, nil
}

// forceComplete fills the opponent's unanswered questions with Incorrect
// entries. The append is conditional on their current sequence length so a
// real concurrent answer can never be overwritten.
func (s *QuizService) forceComplete(ctx context.Context, game domain.Game, opponent domain.Player) (domain.Player, error) {
	now := s.now()
	forced := make([]domain.Answer, 0, domain.QuestionsPerGame-len(opponent.Answers))
	for i := len(opponent.Answers); i < domain.QuestionsPerGame; i++ {
		question, ok := game.QuestionAt(i)
		if !ok {
			break
		}
		forced = append(forced, domain.Answer{
			QuestionID: question.ID,
			Verdict:    domain.VerdictIncorrect,
			AddedAt:    now,
		})
	}
	return s.players.AppendAnswers(ctx, opponent.ID, len(opponent.Answers), forced)
}
