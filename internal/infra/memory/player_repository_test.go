package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pair-quiz-service/internal/domain"
)

func TestAppendAnswersIsConditionalOnIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()

	player := &domain.Player{ID: "p1", UserID: "u1", GameID: "g1", Login: "alice", Active: true}
	if err := repo.Create(ctx, player); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := domain.Answer{QuestionID: "q1", Text: "4", Verdict: domain.VerdictCorrect, AddedAt: time.Now()}
	updated, err := repo.AppendAnswers(ctx, "p1", 0, []domain.Answer{first})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(updated.Answers) != 1 || updated.Score != 1 {
		t.Fatalf("unexpected state after append: %+v", updated)
	}

	// A stale append at the same index must lose.
	if _, err := repo.AppendAnswers(ctx, "p1", 0, []domain.Answer{first}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on stale index, got %v", err)
	}

	// Appending past the question count must lose too.
	bulk := make([]domain.Answer, domain.QuestionsPerGame)
	if _, err := repo.AppendAnswers(ctx, "p1", 1, bulk); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on overflow, got %v", err)
	}
}

func TestFindActiveByUserID(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()

	if err := repo.Create(ctx, &domain.Player{ID: "p1", UserID: "u1", GameID: "g1", Active: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &domain.Player{ID: "p0", UserID: "u1", GameID: "g0", Active: false}); err != nil {
		t.Fatalf("create historical: %v", err)
	}

	player, err := repo.FindActiveByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if player.ID != "p1" {
		t.Fatalf("expected active record p1, got %s", player.ID)
	}

	if err := repo.Deactivate(ctx, "p1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := repo.FindActiveByUserID(ctx, "u1"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected not found after deactivate, got %v", err)
	}
}
