// Package repositories implements SQLite persistence for plstat.
//
// The only persisted entity is the OAuth token: [TokenRepository] keeps one row per Spotify client id
// so an earlier authorization can be reused across process restarts without prompting the user again.
// The schema lives in the shared package's embedded migrations.
package repositories
