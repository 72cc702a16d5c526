package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	service *app.QuizService
	games   *memory.GameRepository
	players *memory.PlayerRepository
	clock   *fakeClock
}

func newTestEnv(t *testing.T, finishWindow time.Duration) *testEnv {
	t.Helper()
	return newTestEnvWithCatalog(t, finishWindow, testCatalog())
}

func newTestEnvWithCatalog(t *testing.T, finishWindow time.Duration, catalog []domain.TriviaItem) *testEnv {
	t.Helper()
	games := memory.NewGameRepository()
	players := memory.NewPlayerRepository()
	pool := memory.NewPoolRepository(memory.NewStaticPoolLoader(catalog), 5*time.Minute)
	clock := newFakeClock()
	return &testEnv{
		service: app.NewQuizServiceWithClock(games, players, pool, finishWindow, clock.Now),
		games:   games,
		players: players,
		clock:   clock,
	}
}

func testCatalog() []domain.TriviaItem {
	return []domain.TriviaItem{
		{Body: "What is 2 + 2?", CorrectAnswer: "4"},
		{Body: "Capital of France?", CorrectAnswer: "Paris"},
		{Body: "Chemical symbol for gold?", CorrectAnswer: "Au"},
		{Body: "Largest planet?", CorrectAnswer: "Jupiter"},
		{Body: "Square root of 144?", CorrectAnswer: "12"},
		{Body: "Deepest ocean?", CorrectAnswer: "Pacific"},
		{Body: "Atomic number 1?", CorrectAnswer: "Hydrogen"},
	}
}

// pairUp joins both users and returns the shared game snapshot as seen by u2.
func pairUp(t *testing.T, env *testEnv, u1, u2 string) domain.GameSnapshot {
	t.Helper()
	ctx := context.Background()
	if _, err := env.service.JoinQueue(ctx, u1, "login-"+u1); err != nil {
		t.Fatalf("join %s: %v", u1, err)
	}
	snap, err := env.service.JoinQueue(ctx, u2, "login-"+u2)
	if err != nil {
		t.Fatalf("join %s: %v", u2, err)
	}
	return snap
}

// answerAll submits every question for the user; correct controls whether the
// canonical answer or a deliberate miss is sent.
func answerAll(t *testing.T, env *testEnv, snap domain.GameSnapshot, userID string, correct int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < domain.QuestionsPerGame; i++ {
		text := "wrong answer"
		if i < correct {
			text = snap.Questions[i].CorrectAnswer
		}
		if _, err := env.service.SubmitAnswer(ctx, userID, text); err != nil {
			t.Fatalf("submit answer %d for %s: %v", i, userID, err)
		}
	}
}
