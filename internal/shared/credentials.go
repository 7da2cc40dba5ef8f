package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/desertthunder/plstat/internal/models"
	"github.com/joho/godotenv"
)

// Environment variable names for the Spotify application credentials.
const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment without overriding variables that are already set.
//
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// LoadCredentials reads the three credential values using getenv (defaults to [os.Getenv]).
//
// Returns an error wrapping [ErrMissingCredentials] that names every missing variable.
func LoadCredentials(getenv func(string) string) (models.Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	creds := models.Credentials{
		ClientID:     strings.TrimSpace(getenv(EnvClientID)),
		ClientSecret: strings.TrimSpace(getenv(EnvClientSecret)),
		RedirectURI:  strings.TrimSpace(getenv(EnvRedirectURI)),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if creds.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if creds.RedirectURI == "" {
		missing = append(missing, EnvRedirectURI)
	}

	if len(missing) > 0 {
		return models.Credentials{}, fmt.Errorf(
			"%w: set %s in your environment or .env file", ErrMissingCredentials, strings.Join(missing, ", "),
		)
	}

	return creds, nil
}
