package domain

import "time"

// GameStatus is the lifecycle state of a pair game. It only ever moves
// forward: PendingSecondPlayer -> Active -> Finished.
type GameStatus string

const (
	StatusPendingSecondPlayer GameStatus = "PendingSecondPlayer"
	StatusActive              GameStatus = "Active"
	StatusFinished            GameStatus = "Finished"
)

// AnswerVerdict classifies a single submission.
type AnswerVerdict string

const (
	VerdictCorrect   AnswerVerdict = "Correct"
	VerdictIncorrect AnswerVerdict = "Incorrect"
)

// QuestionsPerGame is the fixed size of the question set assigned to a match.
const QuestionsPerGame = 5

// TriviaItem is one entry of the shared question catalog. Items are templates;
// each match gets its own Question copies with fresh IDs.
type TriviaItem struct {
	Body          string `json:"body"`
	CorrectAnswer string `json:"correctAnswer"`
}

// Question is one of the five questions owned by a single game.
type Question struct {
	ID            string `json:"id"`
	Body          string `json:"body"`
	CorrectAnswer string `json:"-"`
}

// Answer is an immutable entry in a player's answer sequence. Its position
// in the sequence identifies the question it answered.
type Answer struct {
	QuestionID string        `json:"questionId"`
	Text       string        `json:"-"`
	Verdict    AnswerVerdict `json:"answerStatus"`
	AddedAt    time.Time     `json:"addedAt"`
}

// Player is one participant's per-match record.
type Player struct {
	ID      string
	UserID  string
	GameID  string
	Login   string
	Answers []Answer
	Score   int
	Active  bool
}

// Finished reports whether the player has answered every assigned question.
func (p *Player) Finished() bool {
	return len(p.Answers) >= QuestionsPerGame
}

// FinishedAt returns the timestamp of the player's final answer. The zero
// time is returned while the player is still answering.
func (p *Player) FinishedAt() time.Time {
	if !p.Finished() {
		return time.Time{}
	}
	return p.Answers[QuestionsPerGame-1].AddedAt
}

// Game is one 2-player match. SecondPlayerID stays empty until a pair is
// formed; WinnerUserID and FinishGameDate are set exactly when the game
// reaches Finished.
type Game struct {
	ID                string
	Status            GameStatus
	Questions         []Question
	FirstPlayerID     string
	SecondPlayerID    string
	PairCreatedDate   time.Time
	StartGameDate     time.Time
	FinishGameDate    time.Time
	WinnerUserID      string
	FirstPlayerScore  *int
	SecondPlayerScore *int
}

// QuestionAt returns the question at the given answer index.
func (g *Game) QuestionAt(index int) (Question, bool) {
	if index < 0 || index >= len(g.Questions) {
		return Question{}, false
	}
	return g.Questions[index], true
}

// OpponentPlayerID returns the other side's player id, or empty when the
// game has no second player yet.
func (g *Game) OpponentPlayerID(playerID string) string {
	if g.FirstPlayerID == playerID {
		return g.SecondPlayerID
	}
	return g.FirstPlayerID
}
