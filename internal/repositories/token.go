package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plstat/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository persists OAuth tokens in the oauth_tokens table, keyed by client id.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// LoadToken returns the cached token and the scope it was granted for.
//
// Returns [shared.ErrNoCachedToken] when the client has no row.
func (r *TokenRepository) LoadToken(ctx context.Context, clientID string) (*oauth2.Token, string, error) {
	query := `
		SELECT access_token, refresh_token, token_type, scope, expiry
		FROM oauth_tokens
		WHERE client_id = ?
	`

	var (
		token  oauth2.Token
		scope  string
		expiry sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, clientID).Scan(
		&token.AccessToken, &token.RefreshToken, &token.TokenType, &scope, &expiry,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", shared.ErrNoCachedToken
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query token: %w", err)
	}

	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return &token, scope, nil
}

// SaveToken inserts or replaces the token for clientID.
func (r *TokenRepository) SaveToken(ctx context.Context, clientID, scope string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	var expiry sql.NullTime
	if !token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: token.Expiry.UTC(), Valid: true}
	}
	now := r.now().UTC()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// A refresh response may omit the refresh token; keep the stored one.
		query := `
			INSERT INTO oauth_tokens (id, client_id, access_token, refresh_token, token_type, scope, expiry, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(client_id) DO UPDATE SET
				access_token = excluded.access_token,
				refresh_token = CASE WHEN excluded.refresh_token = '' THEN oauth_tokens.refresh_token ELSE excluded.refresh_token END,
				token_type = excluded.token_type,
				scope = excluded.scope,
				expiry = excluded.expiry,
				updated_at = excluded.updated_at
		`
		_, err := tx.ExecContext(ctx, query,
			shared.GenerateID(), clientID, token.AccessToken, token.RefreshToken, token.TokenType, scope, expiry, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// DeleteToken removes the cached token for clientID. Deleting a missing row is not an error.
func (r *TokenRepository) DeleteToken(ctx context.Context, clientID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM oauth_tokens WHERE client_id = ?", clientID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
