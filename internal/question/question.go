// Package question provides read-only access to the question pool and the
// selection of unseen questions for players.
package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrExhausted = errors.New("question pool exhausted")

// Question is the player-facing view of a question. Options holds the 2-4
// non-empty answer options; Correct is the 0-based index into Options.
type Question struct {
	Text    string
	Options []string
	Correct int
}

// Repository reads questions from the SQLite store. Ids are densely numbered
// from 1, so the row count doubles as the highest valid id.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return count, nil
}

// Get fetches a question by id and converts it to its player-facing form:
// unset option slots are dropped and the stored 1-based correct answer is
// converted to a 0-based index.
func (r *Repository) Get(ctx context.Context, id int) (Question, error) {
	var (
		text             string
		answer1, answer2 string
		answer3, answer4 sql.NullString
		correct          int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT question, answer1, answer2, answer3, answer4, correct_answer
		FROM questions
		WHERE question_id = ?
	`, id).Scan(&text, &answer1, &answer2, &answer3, &answer4, &correct)
	if err != nil {
		return Question{}, fmt.Errorf("fetching question %d: %w", id, err)
	}

	options := []string{answer1, answer2}
	if answer3.Valid {
		options = append(options, answer3.String)
	}
	if answer4.Valid {
		options = append(options, answer4.String)
	}

	return Question{
		Text:    text,
		Options: options,
		Correct: correct - 1,
	}, nil
}
