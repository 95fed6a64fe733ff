package children

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charitybridge/nico/internal/db"
)

const dateLayout = "2006-01-02"

// Store provides queries over child records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert adds a child and returns its assigned id.
func (s *Store) Insert(ctx context.Context, c Child) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO children (name, age, gender, country, profile_description, date_of_birth, image_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Age, c.Gender, c.Country, c.ProfileDescription,
		c.DateOfBirth.Format(dateLayout), c.ImagePath,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting child: %w", err)
	}
	return res.LastInsertId()
}

// FilterIDs returns the ids of live children matching the filter,
// ordered by id so results are deterministic.
func (s *Store) FilterIDs(ctx context.Context, f Filter) ([]int64, error) {
	where, args := buildWhere(f)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM children WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering children: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ByIDs fetches children by id, preserving the order of the input list.
// Ids with no matching live record are skipped.
func (s *Store) ByIDs(ctx context.Context, ids []int64) ([]Child, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		selectCols+` FROM children WHERE deleted_at IS NULL AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching children by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]Child, len(ids))
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]Child, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// Random returns one uniformly random live child. The caller supplies
// the RNG so selection is reproducible under a fixed seed.
func (s *Store) Random(ctx context.Context, rng *rand.Rand) (*Child, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("no children available")
	}

	offset := rng.Intn(count)
	row := s.db.QueryRowContext(ctx,
		selectCols+` FROM children WHERE deleted_at IS NULL ORDER BY id LIMIT 1 OFFSET ?`, offset)
	c, err := scanChild(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Count returns the number of live children.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM children WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting children: %w", err)
	}
	return count, nil
}

// Get fetches a single child by id.
func (s *Store) Get(ctx context.Context, id int64) (*Child, error) {
	row := s.db.QueryRowContext(ctx,
		selectCols+` FROM children WHERE deleted_at IS NULL AND id = ?`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns a page of live children for the public listing.
func (s *Store) List(ctx context.Context, q ListQuery) ([]Child, error) {
	where, args := buildWhere(q.Filter)

	for _, kw := range strings.Fields(q.Keywords) {
		where += ` AND (name LIKE ? OR profile_description LIKE ?)`
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx,
		selectCols+` FROM children WHERE `+where+` ORDER BY name, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	var out []Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllProfiles returns id and profile description for every live child,
// used when (re)building the vector index.
func (s *Store) AllProfiles(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_description FROM children WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading child profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[int64]string)
	for rows.Next() {
		var id int64
		var desc string
		if err := rows.Scan(&id, &desc); err != nil {
			return nil, err
		}
		profiles[id] = desc
	}
	return profiles, rows.Err()
}

const selectCols = `SELECT id, name, age, gender, country, profile_description, date_of_birth, image_path, created_at, updated_at`

// buildWhere translates a Filter into a WHERE clause over live rows.
func buildWhere(f Filter) (string, []any) {
	where := `deleted_at IS NULL`
	var args []any

	if f.Gender != "" {
		where += ` AND gender = ? COLLATE NOCASE`
		args = append(args, f.Gender)
	}
	if f.Country != "" {
		where += ` AND country = ? COLLATE NOCASE`
		args = append(args, f.Country)
	}
	if f.MinAge != nil {
		where += ` AND age >= ?`
		args = append(args, *f.MinAge)
	}
	if f.MaxAge != nil {
		where += ` AND age <= ?`
		args = append(args, *f.MaxAge)
	}
	if f.BirthMonth != nil {
		where += ` AND CAST(strftime('%m', date_of_birth) AS INTEGER) = ?`
		args = append(args, *f.BirthMonth)
	}
	if f.BirthDay != nil {
		where += ` AND CAST(strftime('%d', date_of_birth) AS INTEGER) = ?`
		args = append(args, *f.BirthDay)
	}
	return where, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChild(row scanner) (Child, error) {
	var c Child
	var dob string
	var createdAt, updatedAt time.Time
	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.Gender, &c.Country,
		&c.ProfileDescription, &dob, &c.ImagePath, &createdAt, &updatedAt)
	if err != nil {
		return Child{}, err
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	if c.DateOfBirth, err = time.Parse(dateLayout, dob); err != nil {
		return Child{}, fmt.Errorf("parsing date of birth %q: %w", dob, err)
	}
	return c, nil
}
