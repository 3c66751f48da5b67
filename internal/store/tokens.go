// Package store provides persistent storage for provider session tokens.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
)

const tokenSchema = `
CREATE TABLE IF NOT EXISTS provider_tokens (
	provider      TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	token_type    TEXT NOT NULL DEFAULT 'Bearer',
	expires_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);`

// StoredToken is a provider session token as persisted across restarts.
type StoredToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry, with a small
// safety margin so a token is refreshed before it actually lapses.
func (t StoredToken) Expired() bool {
	return time.Now().After(t.ExpiresAt.Add(-30 * time.Second))
}

// TokenStore persists provider tokens in a local sqlite database.
type TokenStore struct {
	db *sql.DB
}

// Open opens (and if needed creates) the token database at path.
func Open(path string) (*TokenStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open token database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping token database: %w", err)
	}

	if _, err := db.Exec(tokenSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create token schema: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Save upserts the token for a provider.
func (s *TokenStore) Save(ctx context.Context, provider string, token StoredToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_tokens (provider, access_token, refresh_token, token_type, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		provider, token.AccessToken, token.RefreshToken, token.TokenType, token.ExpiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save token for %s: %w", provider, err)
	}

	return nil
}

// Load returns the stored token for a provider. The second return value is
// false when no token has been stored.
func (s *TokenStore) Load(ctx context.Context, provider string) (StoredToken, bool, error) {
	var token StoredToken

	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, expires_at
		FROM provider_tokens WHERE provider = ?`, provider)

	err := row.Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &token.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredToken{}, false, nil
	}
	if err != nil {
		return StoredToken{}, false, fmt.Errorf("load token for %s: %w", provider, err)
	}

	return token, true, nil
}

// Delete removes the stored token for a provider.
func (s *TokenStore) Delete(ctx context.Context, provider string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM provider_tokens WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("delete token for %s: %w", provider, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
