package domain

import "time"

// GameSnapshot is the client-facing view of a game. Undetermined fields
// render as JSON null; the correct answers never leave the server.
type GameSnapshot struct {
	ID                string     `json:"id"`
	GameStatus        GameStatus `json:"gameStatus"`
	Questions         []Question `json:"questions"`
	FirstPlayerID     string     `json:"firstPlayerId"`
	SecondPlayerID    *string    `json:"secondPlayerId"`
	PairCreatedDate   *time.Time `json:"pairCreatedDate"`
	StartGameDate     *time.Time `json:"startGameDate"`
	FinishGameDate    *time.Time `json:"finishGameDate"`
	WinnerUserID      *string    `json:"winnerUserId"`
	FirstPlayerScore  *int       `json:"firstPlayerScore"`
	SecondPlayerScore *int       `json:"secondPlayerScore"`
}

// SnapshotOf converts a game into its client-facing view.
func SnapshotOf(g Game) GameSnapshot {
	return GameSnapshot{
		ID:                g.ID,
		GameStatus:        g.Status,
		Questions:         g.Questions,
		FirstPlayerID:     g.FirstPlayerID,
		SecondPlayerID:    optStr(g.SecondPlayerID),
		PairCreatedDate:   optTime(g.PairCreatedDate),
		StartGameDate:     optTime(g.StartGameDate),
		FinishGameDate:    optTime(g.FinishGameDate),
		WinnerUserID:      optStr(g.WinnerUserID),
		FirstPlayerScore:  g.FirstPlayerScore,
		SecondPlayerScore: g.SecondPlayerScore,
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
