package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/plstat/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	scope := "playlist-read-private playlist-read-collaborative"

	t.Run("Load missing", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		_, _, err := repo.LoadToken(ctx, "client")
		if !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken, got %v", err)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

		err := repo.SaveToken(ctx, "client", scope, &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		})
		if err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		token, gotScope, err := repo.LoadToken(ctx, "client")
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" || token.TokenType != "Bearer" {
			t.Errorf("unexpected token: %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
		if gotScope != scope {
			t.Errorf("expected scope %q, got %q", scope, gotScope)
		}
	})

	t.Run("Save replaces and keeps refresh token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		if err := repo.SaveToken(ctx, "client", scope, &oauth2.Token{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		if err := repo.SaveToken(ctx, "client", scope, &oauth2.Token{AccessToken: "a2"}); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		token, _, err := repo.LoadToken(ctx, "client")
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if token.AccessToken != "a2" {
			t.Errorf("expected replaced access token a2, got %s", token.AccessToken)
		}
		if token.RefreshToken != "r1" {
			t.Errorf("expected refresh token to be kept, got %q", token.RefreshToken)
		}
		if !token.Expiry.IsZero() {
			t.Errorf("expected zero expiry, got %v", token.Expiry)
		}

		var rows int
		if err := repo.db.QueryRow("SELECT COUNT(*) FROM oauth_tokens").Scan(&rows); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if rows != 1 {
			t.Errorf("expected a single row, got %d", rows)
		}
	})

	t.Run("Save rejects empty token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		if err := repo.SaveToken(ctx, "client", scope, &oauth2.Token{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := repo.SaveToken(ctx, "client", scope, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for nil, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		if err := repo.SaveToken(ctx, "client", scope, &oauth2.Token{AccessToken: "a"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := repo.DeleteToken(ctx, "client"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, _, err := repo.LoadToken(ctx, "client"); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected token to be gone, got %v", err)
		}
		if err := repo.DeleteToken(ctx, "client"); err != nil {
			t.Errorf("deleting a missing token should succeed, got %v", err)
		}
	})

	t.Run("Clients are isolated", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		if err := repo.SaveToken(ctx, "one", scope, &oauth2.Token{AccessToken: "a"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if _, _, err := repo.LoadToken(ctx, "two"); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected no token for other client, got %v", err)
		}
	})
}
