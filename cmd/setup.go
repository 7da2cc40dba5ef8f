package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/plstat/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the configuration file when missing, then initializes the token cache and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	r.config = config

	path, err := config.Database.ResolvedPath()
	if err != nil {
		return err
	}
	r.logger.Info("initializing token cache", "path", path)

	if _, err := r.tokenStore(); err != nil {
		return err
	}
	r.writePlain("✓ Token cache ready at %s\n", path)

	if _, err := shared.LoadCredentials(r.getenv); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set %s, %s and %s in the environment or a .env file\n",
			shared.EnvClientID, shared.EnvClientSecret, shared.EnvRedirectURI)
		r.writePlain("2. Run 'plstat auth login'\n")
		return nil
	}

	r.writePlainln("Next: run 'plstat auth login' or just 'plstat'")
	return nil
}
