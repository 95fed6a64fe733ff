package faqs

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/charitybridge/nico/internal/db"
)

// FAQ is a question/answer entry. Answers are stored as markdown.
type FAQ struct {
	ID       int64
	Question string
	Answer   string
}

// DetailPath returns the site-relative URL of the FAQ's detail page.
func (f FAQ) DetailPath() string {
	return fmt.Sprintf("/faqs/%d/", f.ID)
}

// AnswerHTML renders the markdown answer to HTML for page display.
func (f FAQ) AnswerHTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(f.Answer), &buf); err != nil {
		return "", fmt.Errorf("rendering answer: %w", err)
	}
	return buf.String(), nil
}

// Store provides queries over FAQ entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert adds an FAQ and returns its assigned id.
func (s *Store) Insert(ctx context.Context, f FAQ) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (question, answer) VALUES (?, ?)`, f.Question, f.Answer)
	if err != nil {
		return 0, fmt.Errorf("inserting faq: %w", err)
	}
	return res.LastInsertId()
}

// Get fetches a single FAQ by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*FAQ, error) {
	var f FAQ
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer FROM faqs WHERE id = ?`, id,
	).Scan(&f.ID, &f.Question, &f.Answer)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching faq %d: %w", id, err)
	}
	return &f, nil
}

// ByIDs fetches FAQs by id, preserving the order of the input list.
// Ids with no matching entry are skipped.
func (s *Store) ByIDs(ctx context.Context, ids []int64) ([]FAQ, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer FROM faqs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching faqs by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]FAQ, len(ids))
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer); err != nil {
			return nil, err
		}
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]FAQ, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// All returns every FAQ ordered by id, used when (re)building the
// vector index.
func (s *Store) All(ctx context.Context) ([]FAQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer FROM faqs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing faqs: %w", err)
	}
	defer rows.Close()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// List returns a page of FAQs ordered by id.
func (s *Store) List(ctx context.Context, limit, offset int) ([]FAQ, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer FROM faqs ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing faqs: %w", err)
	}
	defer rows.Close()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
