package app

import (
	"context"
	"errors"
	"time"

	"pair-quiz-service/internal/domain"
)

// SubmitAnswer scores the submitted text against the caller's next unanswered
// question and appends the result. Completing the fifth answer finalizes the
// game when the opponent is already done; otherwise the forfeit timer takes
// over the opponent's remaining time.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, text string) (domain.Answer, error) {
	player, game, err := s.resolveCurrent(ctx, userID)
	if err != nil {
		return domain.Answer{}, err
	}
	if game.Status != domain.StatusActive {
		return domain.Answer{}, domain.ErrNoActiveGame
	}
	if player.Finished() {
		return domain.Answer{}, domain.ErrAllQuestionsAnswered
	}

	index := len(player.Answers)
	question, ok := game.QuestionAt(index)
	if !ok {
		return domain.Answer{}, domain.ErrAllQuestionsAnswered
	}

	// Matching is exact and case-sensitive; no normalization.
	verdict := domain.VerdictIncorrect
	if text == question.CorrectAnswer {
		verdict = domain.VerdictCorrect
	}
	answer := domain.Answer{
		QuestionID: question.ID,
		Text:       text,
		Verdict:    verdict,
		AddedAt:    s.now(),
	}

	player, err = s.players.AppendAnswers(ctx, player.ID, index, []domain.Answer{answer})
	if err != nil {
		// A lost conditional append means a concurrent submission or
		// finalization already claimed this question index.
		return domain.Answer{}, err
	}

	finalized := false
	if player.Finished() {
		finalized, err = s.completeIfBothDone(ctx, game, player, answer.AddedAt)
		if err != nil {
			return domain.Answer{}, err
		}
	}
	if !finalized {
		// finalize publishes the terminal snapshot itself.
		if game, err = s.games.GetByID(ctx, game.ID); err == nil {
			s.watchers.publish(game.ID, domain.SnapshotOf(game))
		}
	}

	return answer, nil
}

// completeIfBothDone finalizes the game when the opponent has also answered
// everything. When the opponent is still playing the game stays Active and
// the forfeit window starts counting from this player's final answer.
// Reports whether a finalization (ours or a concurrent one) closed the game.
func (s *QuizService) completeIfBothDone(ctx context.Context, game domain.Game, player domain.Player, finishedAt time.Time) (bool, error) {
	opponentID := game.OpponentPlayerID(player.ID)
	opponent, err := s.players.GetByID(ctx, opponentID)
	if err != nil {
		return false, err
	}
	if !opponent.Finished() {
		return false, nil
	}

	first, second := orientPlayers(game, player, opponent)
	if _, err := s.finalize(ctx, game, first, second, decideWinner(first, second), finishedAt); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Someone else already finalized; the outcome stands.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// orientPlayers maps the (caller, opponent) pair onto the game's first/second
// player slots.
func orientPlayers(game domain.Game, a, b domain.Player) (first, second domain.Player) {
	if game.FirstPlayerID == a.ID {
		return a, b
	}
	return b, a
}

// decideWinner picks the strictly higher score, or nobody on a tie.
func decideWinner(first, second domain.Player) string {
	switch {
	case first.Score > second.Score:
		return first.UserID
	case second.Score > first.Score:
		return second.UserID
	}
	return ""
}
