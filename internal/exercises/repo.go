// internal/exercises/repo.go
//
// SQLite repository for user-authored exercises.
// The exercise is stored in its file form (body column), so whatever Decode
// accepts round-trips through the database unchanged.

package exercises

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/puzzli/internal/puzzle"
)

// Repo persists exercises in the exercises table.
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Save inserts or replaces ex. authorID may be empty.
func (r *Repo) Save(ctx context.Context, ex puzzle.Exercise, authorID string) error {
	if err := ex.Validate(); err != nil {
		return err
	}
	body, err := Encode(ex)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO exercises (id, author_id, type, task, body, created_at, updated_at)
        VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            type=excluded.type, task=excluded.task, body=excluded.body, updated_at=excluded.updated_at`,
		ex.ID, authorID, ex.Type.String(), ex.Task, string(body), now, now,
	)
	if err != nil {
		return fmt.Errorf("save exercise %s: %w", ex.ID, err)
	}
	return nil
}

// Get loads one exercise.
func (r *Repo) Get(ctx context.Context, id string) (puzzle.Exercise, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM exercises WHERE id=?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return puzzle.Exercise{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return puzzle.Exercise{}, err
	}
	return Decode([]byte(body))
}

// Author returns the author of an exercise, "" if anonymous.
func (r *Repo) Author(ctx context.Context, id string) (string, error) {
	var author sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT author_id FROM exercises WHERE id=?`, id).Scan(&author)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return author.String, err
}

// List returns summaries ordered by creation time, newest first.
func (r *Repo) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT body, COALESCE(author_id, '')
        FROM exercises
        ORDER BY created_at DESC, id ASC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var body, author string
		if err := rows.Scan(&body, &author); err != nil {
			return nil, err
		}
		ex, err := Decode([]byte(body))
		if err != nil {
			return nil, err
		}
		s := Summarize(ex)
		s.Author = author
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes an exercise.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exercises WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
