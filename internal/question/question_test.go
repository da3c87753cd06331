package question_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/quizrally/laneracer/internal/database"
	"github.com/quizrally/laneracer/internal/migrations"
	"github.com/quizrally/laneracer/internal/question"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func TestRepositoryCount(t *testing.T) {
	repo := question.NewRepository(testDB(t))

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count == 0 {
		t.Fatal("expected seeded questions")
	}
}

func TestRepositoryGetConvertsRecord(t *testing.T) {
	repo := question.NewRepository(testDB(t))
	ctx := context.Background()

	// Seed question 1 has four options, stored correct answer 1.
	q, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(q.Options) != 4 {
		t.Errorf("options = %d, want 4", len(q.Options))
	}
	if q.Correct != 0 {
		t.Errorf("correct index = %d, want 0 (converted from 1-based)", q.Correct)
	}

	// Seed question 14 has two options; the empty slots are dropped.
	q, err = repo.Get(ctx, 14)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(q.Options) != 2 {
		t.Errorf("options = %d, want 2 (null slots filtered)", len(q.Options))
	}
	if q.Text == "" {
		t.Error("question text missing")
	}
}

func TestSelectorNeverRepeats(t *testing.T) {
	repo := question.NewRepository(testDB(t))
	ctx := context.Background()

	sel, err := question.NewSelector(ctx, repo)
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	seen := make(map[int]struct{})
	for range sel.PoolSize() {
		_, id, err := sel.Pick(ctx, seen)
		if err != nil {
			t.Fatalf("pick with %d seen: %v", len(seen), err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("id %d picked twice", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSelectorReportsExhaustion(t *testing.T) {
	repo := question.NewRepository(testDB(t))
	ctx := context.Background()

	sel, err := question.NewSelector(ctx, repo)
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	seen := make(map[int]struct{})
	for id := 1; id <= sel.PoolSize(); id++ {
		seen[id] = struct{}{}
	}

	_, _, err = sel.Pick(ctx, seen)
	if !errors.Is(err, question.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}
