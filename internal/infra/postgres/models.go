package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"pair-quiz-service/internal/domain"
)

// questionDoc and answerDoc are the JSONB shapes stored per game/player. They
// carry their own JSON tags because the domain types deliberately hide the
// correct answer and submitted text from client serialization.
type questionDoc struct {
	ID            string `json:"id"`
	Body          string `json:"body"`
	CorrectAnswer string `json:"correctAnswer"`
}

type answerDoc struct {
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	Verdict    string    `json:"verdict"`
	AddedAt    time.Time `json:"addedAt"`
}

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                string        `bun:"id,pk"`
	Status            string        `bun:"status,notnull"`
	Questions         []questionDoc `bun:"questions,type:jsonb"`
	FirstPlayerID     string        `bun:"first_player_id,notnull"`
	SecondPlayerID    string        `bun:"second_player_id,nullzero"`
	PairCreatedDate   time.Time     `bun:"pair_created_date,nullzero"`
	StartGameDate     time.Time     `bun:"start_game_date,nullzero"`
	FinishGameDate    time.Time     `bun:"finish_game_date,nullzero"`
	WinnerUserID      string        `bun:"winner_user_id,nullzero"`
	FirstPlayerScore  *int          `bun:"first_player_score"`
	SecondPlayerScore *int          `bun:"second_player_score"`
}

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID      string      `bun:"id,pk"`
	UserID  string      `bun:"user_id,notnull"`
	GameID  string      `bun:"game_id,notnull"`
	Login   string      `bun:"login"`
	Answers []answerDoc `bun:"answers,type:jsonb"`
	Score   int         `bun:"score"`
	Active  bool        `bun:"active"`
}

func rowFromGame(g *domain.Game) *gameRow {
	questions := make([]questionDoc, 0, len(g.Questions))
	for _, q := range g.Questions {
		questions = append(questions, questionDoc{ID: q.ID, Body: q.Body, CorrectAnswer: q.CorrectAnswer})
	}
	return &gameRow{
		ID:                g.ID,
		Status:            string(g.Status),
		Questions:         questions,
		FirstPlayerID:     g.FirstPlayerID,
		SecondPlayerID:    g.SecondPlayerID,
		PairCreatedDate:   g.PairCreatedDate,
		StartGameDate:     g.StartGameDate,
		FinishGameDate:    g.FinishGameDate,
		WinnerUserID:      g.WinnerUserID,
		FirstPlayerScore:  g.FirstPlayerScore,
		SecondPlayerScore: g.SecondPlayerScore,
	}
}

func (r *gameRow) toDomain() domain.Game {
	questions := make([]domain.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		questions = append(questions, domain.Question{ID: q.ID, Body: q.Body, CorrectAnswer: q.CorrectAnswer})
	}
	return domain.Game{
		ID:                r.ID,
		Status:            domain.GameStatus(r.Status),
		Questions:         questions,
		FirstPlayerID:     r.FirstPlayerID,
		SecondPlayerID:    r.SecondPlayerID,
		PairCreatedDate:   r.PairCreatedDate,
		StartGameDate:     r.StartGameDate,
		FinishGameDate:    r.FinishGameDate,
		WinnerUserID:      r.WinnerUserID,
		FirstPlayerScore:  r.FirstPlayerScore,
		SecondPlayerScore: r.SecondPlayerScore,
	}
}

func rowFromPlayer(p *domain.Player) *playerRow {
	return &playerRow{
		ID:      p.ID,
		UserID:  p.UserID,
		GameID:  p.GameID,
		Login:   p.Login,
		Answers: docsFromAnswers(p.Answers),
		Score:   p.Score,
		Active:  p.Active,
	}
}

func (r *playerRow) toDomain() domain.Player {
	answers := make([]domain.Answer, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, domain.Answer{
			QuestionID: a.QuestionID,
			Text:       a.Text,
			Verdict:    domain.AnswerVerdict(a.Verdict),
			AddedAt:    a.AddedAt,
		})
	}
	return domain.Player{
		ID:      r.ID,
		UserID:  r.UserID,
		GameID:  r.GameID,
		Login:   r.Login,
		Answers: answers,
		Score:   r.Score,
		Active:  r.Active,
	}
}

func docsFromAnswers(answers []domain.Answer) []answerDoc {
	docs := make([]answerDoc, 0, len(answers))
	for _, a := range answers {
		docs = append(docs, answerDoc{
			QuestionID: a.QuestionID,
			Text:       a.Text,
			Verdict:    string(a.Verdict),
			AddedAt:    a.AddedAt,
		})
	}
	return docs
}
