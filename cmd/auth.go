package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plstat/internal/services"
	"github.com/desertthunder/plstat/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin discards any cached token and runs the browser authorization.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := shared.LoadCredentials(r.getenv)
	if err != nil {
		return err
	}

	store, err := r.tokenStore()
	if err != nil {
		return err
	}
	if err := store.DeleteToken(ctx, creds.ClientID); err != nil {
		return fmt.Errorf("failed to clear cached token: %w", err)
	}

	r.logger.Info("starting spotify authorization")

	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	name, err := r.analyzer(session).DisplayName(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Authorization successful\n")
	return r.writePlain("Logged in as %s\n", name)
}

// AuthStatus reports whether a token is cached for the configured client and who it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds, err := shared.LoadCredentials(r.getenv)
	if err != nil {
		return err
	}

	store, err := r.tokenStore()
	if err != nil {
		return err
	}

	token, scope, err := store.LoadToken(ctx, creds.ClientID)
	if errors.Is(err, shared.ErrNoCachedToken) {
		return r.writePlain("✗ Not logged in\nRun 'plstat auth login' to authorize.\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Token cached\n")
	r.writePlain("Scope: %s\n", scope)
	if !token.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", token.Expiry.Local().Format("2006-01-02 15:04:05"))
	}

	if !services.GrantsScope(scope) {
		return r.writePlain("Cached scope differs from the required scope; the next run will ask to authorize again.\n")
	}

	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	name, err := r.analyzer(session).DisplayName(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Logged in as %s\n", name)
}

// AuthLogout deletes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	creds, err := shared.LoadCredentials(r.getenv)
	if err != nil {
		return err
	}

	store, err := r.tokenStore()
	if err != nil {
		return err
	}
	if err := store.DeleteToken(ctx, creds.ClientID); err != nil {
		return fmt.Errorf("failed to delete cached token: %w", err)
	}

	r.logger.Info("cached token removed", "client", creds.ClientID)
	return r.writePlain("✓ Logged out\n")
}
