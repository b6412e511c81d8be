// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
)

// PlaylistInsert records one InsertPlaylistItem call.
type PlaylistInsert struct {
	PlaylistID string
	VideoID    string
}

// MockClient is an in-memory test double for [services.MetadataClient]. Safe for concurrent use.
type MockClient struct {
	Videos       map[string]models.Video
	FetchErr     map[string]error
	UpdateErr    map[string]error
	ThumbnailErr error
	InsertErr    error
	Playlists    []models.Playlist
	Recent       []models.RecentVideo

	// OnFetch runs before every FetchVideo, e.g. to block a worker mid-job.
	OnFetch func(videoID string)

	mu         sync.Mutex
	calls      []string
	updates    []models.VideoUpdate
	thumbnails []string
	inserts    []PlaylistInsert
}

// NewMockClient returns a client that knows the given videos.
func NewMockClient(videos ...models.Video) *MockClient {
	m := &MockClient{
		Videos:    make(map[string]models.Video),
		FetchErr:  make(map[string]error),
		UpdateErr: make(map[string]error),
	}
	for _, v := range videos {
		m.Videos[v.ID] = v
	}
	return m
}

func (m *MockClient) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *MockClient) FetchVideo(ctx context.Context, videoID string) (models.Video, error) {
	m.record("fetch:" + videoID)
	if m.OnFetch != nil {
		m.OnFetch(videoID)
	}
	if err := m.FetchErr[videoID]; err != nil {
		return models.Video{}, err
	}
	v, ok := m.Videos[videoID]
	if !ok {
		return models.Video{}, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, videoID)
	}
	return v, nil
}

func (m *MockClient) UpdateVideo(ctx context.Context, update models.VideoUpdate) error {
	m.record("update:" + update.ID)
	if err := m.UpdateErr[update.ID]; err != nil {
		return err
	}
	m.mu.Lock()
	m.updates = append(m.updates, update)
	m.mu.Unlock()
	return nil
}

func (m *MockClient) SetThumbnail(ctx context.Context, videoID string, media io.Reader) error {
	m.record("thumbnail:" + videoID)
	if _, err := io.Copy(io.Discard, media); err != nil {
		return err
	}
	if m.ThumbnailErr != nil {
		return m.ThumbnailErr
	}
	m.mu.Lock()
	m.thumbnails = append(m.thumbnails, videoID)
	m.mu.Unlock()
	return nil
}

func (m *MockClient) PlaylistExists(ctx context.Context, playlistID string) bool {
	m.record("playlist:" + playlistID)
	for _, p := range m.Playlists {
		if p.ID == playlistID {
			return true
		}
	}
	return false
}

func (m *MockClient) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	m.record("insert:" + playlistID + ":" + videoID)
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	m.inserts = append(m.inserts, PlaylistInsert{PlaylistID: playlistID, VideoID: videoID})
	m.mu.Unlock()
	return nil
}

func (m *MockClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.record("playlists")
	return append([]models.Playlist(nil), m.Playlists...), nil
}

func (m *MockClient) RecentVideos(ctx context.Context, maxResults int64) ([]models.RecentVideo, error) {
	m.record("recent")
	if int64(len(m.Recent)) > maxResults {
		return append([]models.RecentVideo(nil), m.Recent[:maxResults]...), nil
	}
	return append([]models.RecentVideo(nil), m.Recent...), nil
}

// Calls returns every recorded call in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Updates returns the committed update bodies.
func (m *MockClient) Updates() []models.VideoUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VideoUpdate(nil), m.updates...)
}

// UpdateFor returns the committed update for videoID.
func (m *MockClient) UpdateFor(videoID string) (models.VideoUpdate, bool) {
	for _, u := range m.Updates() {
		if u.ID == videoID {
			return u, true
		}
	}
	return models.VideoUpdate{}, false
}

// Thumbnails returns the IDs whose thumbnail was set.
func (m *MockClient) Thumbnails() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.thumbnails...)
}

// Inserts returns the successful playlist insertions.
func (m *MockClient) Inserts() []PlaylistInsert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PlaylistInsert(nil), m.inserts...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustWriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}
