// Package chatinfra holds the storage implementations behind the chat
// ports: a Postgres transcript repository and a Redis session cache.
package chatinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/chat"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// PostgresTranscriptRepo persists completed turns in the chat_turns table
type PostgresTranscriptRepo struct {
	db *sqlx.DB
}

// NewPostgresTranscriptRepo creates the repo over an open connection
func NewPostgresTranscriptRepo(db *sqlx.DB) *PostgresTranscriptRepo {
	return &PostgresTranscriptRepo{db: db}
}

type turnRow struct {
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	Messages  []byte    `db:"messages"`
	Usage     []byte    `db:"usage"`
	CreatedAt time.Time `db:"created_at"`
}

// SaveTurn appends one turn's messages to the session transcript
func (r *PostgresTranscriptRepo) SaveTurn(ctx context.Context, t chat.Transcript) error {
	messages, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("marshal transcript messages: %w", err)
	}
	usage, err := json.Marshal(t.Usage)
	if err != nil {
		return fmt.Errorf("marshal transcript usage: %w", err)
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chat_turns (session_id, user_id, messages, usage, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.SessionID.String(), t.UserID.String(), messages, usage, createdAt)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// History returns the session's messages across all persisted turns, in
// chronological order.
func (r *PostgresTranscriptRepo) History(ctx context.Context, sessionID kernel.SessionID) ([]llm.Message, error) {
	var rows []turnRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT session_id, user_id, messages, usage, created_at
		FROM chat_turns
		WHERE session_id = $1
		ORDER BY created_at ASC`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("select chat turns: %w", err)
	}

	var history []llm.Message
	for _, row := range rows {
		var messages []llm.Message
		if err := json.Unmarshal(row.Messages, &messages); err != nil {
			return nil, fmt.Errorf("unmarshal transcript messages: %w", err)
		}
		history = append(history, messages...)
	}
	return history, nil
}
