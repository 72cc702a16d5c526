package domain

import "errors"

var (
	// ErrNoActiveGame is returned when the caller has no unfinished match.
	ErrNoActiveGame = errors.New("no active game for user")
	// ErrGameNotFound indicates a game id that does not resolve.
	ErrGameNotFound = errors.New("game not found")
	// ErrPlayerNotFound indicates a player id that does not resolve.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrAllQuestionsAnswered rejects submissions past the final question.
	ErrAllQuestionsAnswered = errors.New("all questions already answered")
	// ErrGameOver signals that the match was finalized (forfeit or completion)
	// and is no longer actionable for the caller.
	ErrGameOver = errors.New("game is over")
	// ErrConflict is returned when a conditional update loses a race: the
	// state already advanced past the caller's precondition.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrEmptyPool indicates the question catalog holds fewer items than a
	// match requires.
	ErrEmptyPool = errors.New("question pool has too few items")
)
