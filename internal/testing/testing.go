// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/services"
	"github.com/desertthunder/plstat/internal/shared"
)

const fakeCursor = "fake://page/"

// FakeSession is an in-memory [services.Session].
//
// Tracks are paginated by PageSize (100 when zero). Artists missing from Artists come back as nil entries.
type FakeSession struct {
	User         *services.SpotifyUser
	UserErr      error
	Playlists    []*services.SpotifySimplePlaylist
	PlaylistsErr error
	Tracks       map[string][]*services.SpotifyPlaylistItem
	TracksErr    error
	NextErr      error // returned when following any cursor
	PageSize     int
	Artists      map[string]*services.SpotifyArtist
	// ArtistsErr, when set, decides per batch whether the lookup fails.
	ArtistsErr func(batch []string) error

	mu            sync.Mutex
	artistCalls   [][]string
	playlistLimit int
	pagesServed   int
}

var _ services.Session = (*FakeSession)(nil)

func (f *FakeSession) CurrentUser(_ context.Context) (*services.SpotifyUser, error) {
	if f.UserErr != nil {
		return nil, f.UserErr
	}
	if f.User == nil {
		return &services.SpotifyUser{ID: "tester", DisplayName: "Tester"}, nil
	}
	return f.User, nil
}

func (f *FakeSession) UserPlaylists(_ context.Context, limit int) (*services.SpotifyPlaylistPage, error) {
	f.mu.Lock()
	f.playlistLimit = limit
	f.mu.Unlock()

	if f.PlaylistsErr != nil {
		return nil, f.PlaylistsErr
	}
	items := f.Playlists
	if len(items) > limit {
		items = items[:limit]
	}
	return &services.SpotifyPlaylistPage{Items: items, Total: len(f.Playlists)}, nil
}

func (f *FakeSession) PlaylistTracks(_ context.Context, playlistID string, _ int) (*services.SpotifyTrackPage, error) {
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	items, ok := f.Tracks[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return f.page(playlistID, items, 0), nil
}

func (f *FakeSession) NextTracks(_ context.Context, page *services.SpotifyTrackPage) (*services.SpotifyTrackPage, error) {
	if !page.HasNext() {
		return nil, nil
	}
	if f.NextErr != nil {
		return nil, f.NextErr
	}

	cursor := strings.TrimPrefix(*page.Next, fakeCursor)
	playlistID, rawOffset, _ := strings.Cut(cursor, "/")
	offset, err := strconv.Atoi(rawOffset)
	if err != nil {
		return nil, fmt.Errorf("bad cursor %q", *page.Next)
	}
	return f.page(playlistID, f.Tracks[playlistID], offset), nil
}

func (f *FakeSession) page(playlistID string, items []*services.SpotifyPlaylistItem, offset int) *services.SpotifyTrackPage {
	size := f.PageSize
	if size <= 0 {
		size = services.MaxTracksPerRequest
	}

	f.mu.Lock()
	f.pagesServed++
	f.mu.Unlock()

	end := min(offset+size, len(items))
	page := &services.SpotifyTrackPage{
		Items:  items[offset:end],
		Total:  len(items),
		Limit:  size,
		Offset: offset,
	}
	if end < len(items) {
		next := fmt.Sprintf("%s%s/%d", fakeCursor, playlistID, end)
		page.Next = &next
	}
	return page
}

func (f *FakeSession) SeveralArtists(_ context.Context, artistIDs []string) ([]*services.SpotifyArtist, error) {
	batch := append([]string(nil), artistIDs...)

	f.mu.Lock()
	f.artistCalls = append(f.artistCalls, batch)
	f.mu.Unlock()

	if len(artistIDs) > services.MaxArtistsPerRequest {
		return nil, &services.APIError{StatusCode: 400, Message: "too many ids requested"}
	}
	if f.ArtistsErr != nil {
		if err := f.ArtistsErr(batch); err != nil {
			return nil, err
		}
	}

	artists := make([]*services.SpotifyArtist, len(artistIDs))
	for i, id := range artistIDs {
		artists[i] = f.Artists[id]
	}
	return artists, nil
}

// ArtistCalls returns a copy of every batch passed to SeveralArtists.
func (f *FakeSession) ArtistCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.artistCalls...)
}

// PlaylistLimit returns the limit of the last UserPlaylists call.
func (f *FakeSession) PlaylistLimit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playlistLimit
}

// PagesServed counts track pages handed out.
func (f *FakeSession) PagesServed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pagesServed
}

// FakeAuthenticator returns Session or Err and counts calls.
type FakeAuthenticator struct {
	Session services.Session
	Err     error

	mu    sync.Mutex
	calls int
	last  models.Credentials
}

func (f *FakeAuthenticator) Authenticate(_ context.Context, creds models.Credentials) (services.Session, error) {
	f.mu.Lock()
	f.calls++
	f.last = creds
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return f.Session, nil
}

// Calls returns how many times Authenticate ran.
func (f *FakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Artist builds a nested artist reference. An empty id models an artist Spotify returned without one.
func Artist(id, name string) *services.SpotifyArtistRef {
	return &services.SpotifyArtistRef{ID: id, Name: name}
}

// Item builds a playlist item with album "Album" and the given artists.
func Item(id, name string, durationMS, popularity *int, artists ...*services.SpotifyArtistRef) *services.SpotifyPlaylistItem {
	return &services.SpotifyPlaylistItem{
		Track: &services.SpotifyTrack{
			ID:         id,
			Name:       name,
			Artists:    artists,
			Album:      &services.SpotifyAlbumRef{Name: "Album"},
			DurationMS: durationMS,
			Popularity: popularity,
		},
	}
}

// RemovedItem is a playlist entry whose track is gone.
func RemovedItem() *services.SpotifyPlaylistItem {
	return &services.SpotifyPlaylistItem{}
}

// Genres builds a full artist with the given genres.
func Genres(id string, genres ...string) *services.SpotifyArtist {
	if genres == nil {
		genres = []string{}
	}
	return &services.SpotifyArtist{ID: id, Name: id, Genres: genres}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
