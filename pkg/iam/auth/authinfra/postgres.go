// Package authinfra holds the storage implementation behind the auth
// key store.
package authinfra

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/chatstream/pkg/iam/auth"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresKeyStore reads API keys from the api_keys table
type PostgresKeyStore struct {
	db *sqlx.DB
}

// NewPostgresKeyStore creates the store over an open connection
func NewPostgresKeyStore(db *sqlx.DB) *PostgresKeyStore {
	return &PostgresKeyStore{db: db}
}

type keyRow struct {
	ID      string         `db:"id"`
	UserID  string         `db:"user_id"`
	Name    string         `db:"name"`
	Prefix  string         `db:"prefix"`
	KeyHash string         `db:"key_hash"`
	Scopes  pq.StringArray `db:"scopes"`
	Revoked bool           `db:"revoked"`
}

// FindByPrefix returns the keys whose public prefix matches
func (s *PostgresKeyStore) FindByPrefix(ctx context.Context, prefix string) ([]auth.APIKey, error) {
	var rows []keyRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, name, prefix, key_hash, scopes, revoked
		FROM api_keys
		WHERE prefix = $1`,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("select api keys: %w", err)
	}

	keys := make([]auth.APIKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, auth.APIKey{
			ID:      row.ID,
			UserID:  kernel.UserID(row.UserID),
			Name:    row.Name,
			Prefix:  row.Prefix,
			KeyHash: row.KeyHash,
			Scopes:  row.Scopes,
			Revoked: row.Revoked,
		})
	}
	return keys, nil
}
