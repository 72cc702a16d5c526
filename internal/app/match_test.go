package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
)

func TestJoinQueueOpensPendingGame(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	snap, err := env.service.JoinQueue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if snap.GameStatus != domain.StatusPendingSecondPlayer {
		t.Fatalf("expected pending status, got %s", snap.GameStatus)
	}
	if len(snap.Questions) != domain.QuestionsPerGame {
		t.Fatalf("expected %d questions, got %d", domain.QuestionsPerGame, len(snap.Questions))
	}
	if snap.SecondPlayerID != nil {
		t.Fatalf("expected no second player, got %v", *snap.SecondPlayerID)
	}
	if snap.PairCreatedDate != nil {
		t.Fatalf("expected no pair date yet")
	}
	if snap.FirstPlayerID == "" || snap.StartGameDate == nil {
		t.Fatalf("expected first player and start date, got %+v", snap)
	}

	player, err := env.players.GetByID(ctx, snap.FirstPlayerID)
	if err != nil {
		t.Fatalf("load first player: %v", err)
	}
	if player.UserID != "u1" || !player.Active {
		t.Fatalf("unexpected first player record: %+v", player)
	}
}

func TestJoinQueuePairsSecondUser(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	first, err := env.service.JoinQueue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("join u1: %v", err)
	}

	env.clock.Advance(3 * time.Second)
	second, err := env.service.JoinQueue(ctx, "u2", "bob")
	if err != nil {
		t.Fatalf("join u2: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the same game, got %s vs %s", second.ID, first.ID)
	}
	if second.GameStatus != domain.StatusActive {
		t.Fatalf("expected active status, got %s", second.GameStatus)
	}
	if second.SecondPlayerID == nil {
		t.Fatalf("expected second player set")
	}
	if second.PairCreatedDate == nil {
		t.Fatalf("expected pair date set")
	}
	if !second.StartGameDate.Equal(*first.StartGameDate) {
		t.Fatalf("start date changed on pairing: %v vs %v", second.StartGameDate, first.StartGameDate)
	}
	// Both sides see the same question set in the same order.
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question order differs at %d", i)
		}
	}
}

func TestJoinQueueIsIdempotentForActiveUser(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	first, err := env.service.JoinQueue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	again, err := env.service.JoinQueue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected existing game %s, got %s", first.ID, again.ID)
	}
	if again.GameStatus != domain.StatusPendingSecondPlayer {
		t.Fatalf("rejoin must not change status, got %s", again.GameStatus)
	}
}

// flakyPlayerRepo fails a configured number of Create calls before delegating.
type flakyPlayerRepo struct {
	*memory.PlayerRepository
	failCreates int
}

func (r *flakyPlayerRepo) Create(ctx context.Context, player *domain.Player) error {
	if r.failCreates > 0 {
		r.failCreates--
		return errors.New("storage unavailable")
	}
	return r.PlayerRepository.Create(ctx, player)
}

func TestJoinQueueFailedSecondPlayerKeepsGameJoinable(t *testing.T) {
	games := memory.NewGameRepository()
	players := &flakyPlayerRepo{PlayerRepository: memory.NewPlayerRepository()}
	pool := memory.NewPoolRepository(memory.NewStaticPoolLoader(testCatalog()), 5*time.Minute)
	clock := newFakeClock()
	service := app.NewQuizServiceWithClock(games, players, pool, time.Minute, clock.Now)
	ctx := context.Background()

	first, err := service.JoinQueue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("join u1: %v", err)
	}

	players.failCreates = 1
	if _, err := service.JoinQueue(ctx, "u2", "bob"); err == nil {
		t.Fatalf("expected join to fail while player storage is down")
	}

	// The failed join must not claim the game or disturb the first player.
	game, err := games.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	if game.Status != domain.StatusPendingSecondPlayer || game.SecondPlayerID != "" {
		t.Fatalf("failed join mutated the game: %+v", game)
	}
	current, err := service.CurrentGame(ctx, "u1")
	if err != nil {
		t.Fatalf("current game for u1 after failed join: %v", err)
	}
	if current.ID != first.ID {
		t.Fatalf("u1 lost their game: %s vs %s", current.ID, first.ID)
	}

	// The retry pairs into the very same game.
	second, err := service.JoinQueue(ctx, "u2", "bob")
	if err != nil {
		t.Fatalf("retry join: %v", err)
	}
	if second.ID != first.ID || second.GameStatus != domain.StatusActive {
		t.Fatalf("retry did not claim the pending game: %+v", second)
	}
}

func TestJoinQueueConcurrentSameUserNeverSelfPairs(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	const joins = 8
	var wg sync.WaitGroup
	ids := make([]string, joins)
	errs := make([]error, joins)
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := env.service.JoinQueue(ctx, "u1", "alice")
			ids[i], errs[i] = snap.ID, err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("joins landed in different games: %v", ids)
		}
	}

	game, err := env.games.GetByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	if game.Status != domain.StatusPendingSecondPlayer || game.SecondPlayerID != "" {
		t.Fatalf("user was paired against themselves: %+v", game)
	}
}

func TestJoinQueueConcurrentUsersAllPaired(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()
	users := []string{"u1", "u2", "u3", "u4"}

	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			if _, err := env.service.JoinQueue(ctx, user, "login-"+user); err != nil {
				errs <- err
			}
		}(user)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent join: %v", err)
	}

	// Every game referenced by a user must hold exactly two of them.
	gameUsers := make(map[string][]string)
	for _, user := range users {
		snap, err := env.service.CurrentGame(ctx, user)
		if err != nil {
			t.Fatalf("current game for %s: %v", user, err)
		}
		gameUsers[snap.ID] = append(gameUsers[snap.ID], user)
	}
	if len(gameUsers) != 2 {
		t.Fatalf("expected 2 games for 4 users, got %d", len(gameUsers))
	}
	for id, members := range gameUsers {
		if len(members) != 2 {
			t.Fatalf("game %s has %d members: %v", id, len(members), members)
		}
	}
}
