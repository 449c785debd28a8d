// File path: internal/store/conversations.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationTurn is one persisted dialogue entry.
type ConversationTurn struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// AppendTurn records one conversation turn for a session.
func (s *Store) AppendTurn(ctx context.Context, sessionID, role, content string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if sessionID == "" {
		return errors.New("session id required")
	}
	const query = `INSERT INTO conversation_turns (id, session_id, role, content, created_at)
                VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), sessionID, role, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("append turn for session %s: %w", sessionID, err)
	}
	return nil
}

// TurnsForSession returns a session's turns in insertion order.
func (s *Store) TurnsForSession(ctx context.Context, sessionID string) ([]ConversationTurn, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var turns []ConversationTurn
	const query = `SELECT id, session_id, role, content, created_at
                FROM conversation_turns WHERE session_id = ? ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &turns, query, sessionID); err != nil {
		return nil, fmt.Errorf("load turns for session %s: %w", sessionID, err)
	}
	return turns, nil
}

// RecordEval stores the question/answer/context triple produced by one
// grounded answer, for later quality review.
func (s *Store) RecordEval(ctx context.Context, sessionID, question, answer, contextBlock string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	const query = `INSERT INTO answer_evals (id, session_id, question, answer, context, created_at)
                VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), sessionID, question, answer, contextBlock, time.Now().UTC()); err != nil {
		return fmt.Errorf("record eval for session %s: %w", sessionID, err)
	}
	return nil
}
