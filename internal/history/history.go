// Package history persists per-session chat transcripts. Entries are
// append-only and expire after a TTL, mirroring the lifetime of an
// anonymous visitor session.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charitybridge/nico/internal/db"
	"github.com/charitybridge/nico/internal/llm"
)

// DefaultTTL is how long a session transcript is kept.
const DefaultTTL = time.Hour

// Store is an append-only, TTL-bounded chat history store.
type Store struct {
	db  *db.DB
	ttl time.Duration
}

// NewStore creates a Store backed by the given database. A non-positive
// ttl falls back to DefaultTTL.
func NewStore(database *db.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: database, ttl: ttl}
}

// Append records one chat turn for the session.
func (s *Store) Append(ctx context.Context, sessionID string, role llm.Role, content string) error {
	if role != llm.RoleUser && role != llm.RoleAssistant {
		return fmt.Errorf("history: unsupported role %q", role)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, expires_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(role), content, time.Now().UTC().Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("appending chat message: %w", err)
	}
	return nil
}

// Get returns the session's unexpired turns, oldest first, in the
// message shape the completion gateway consumes.
func (s *Store) Get(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM chat_messages
		 WHERE session_id = ? AND expires_at > ?
		 ORDER BY id`,
		sessionID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		msgs = append(msgs, llm.Message{Role: llm.Role(role), Content: content})
	}
	return msgs, rows.Err()
}

// PruneExpired deletes expired messages across all sessions and
// returns how many rows were removed.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning chat messages: %w", err)
	}
	return res.RowsAffected()
}
