package services

import (
	"context"
	"io"

	"github.com/desertthunder/ytmeta/internal/models"
)

// MetadataClient is the set of remote video and playlist operations the update pipeline consumes.
//
// Implementations are used by a single worker and need not be safe for concurrent use.
type MetadataClient interface {
	// FetchVideo returns the current snippet and status of a video.
	// Returns [shared.ErrVideoNotFound] when the platform reports no such video.
	FetchVideo(ctx context.Context, videoID string) (models.Video, error)

	// UpdateVideo commits both the snippet and status blocks of update.
	UpdateVideo(ctx context.Context, update models.VideoUpdate) error

	// SetThumbnail uploads media as the custom thumbnail of a video.
	SetThumbnail(ctx context.Context, videoID string, media io.Reader) error

	// PlaylistExists reports whether the playlist is visible to the caller.
	// Any remote error is reported as false.
	PlaylistExists(ctx context.Context, playlistID string) bool

	// InsertPlaylistItem appends a video to a playlist.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error

	// ListPlaylists pages through every playlist owned by the caller.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// RecentVideos returns up to maxResults of the caller's uploads, newest first.
	RecentVideos(ctx context.Context, maxResults int64) ([]models.RecentVideo, error)
}

// Authenticator produces an authenticated [MetadataClient].
//
// Each pipeline worker calls NewClient once, so every worker holds its own transport.
type Authenticator interface {
	NewClient(ctx context.Context) (MetadataClient, error)
}

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc func(ctx context.Context) (MetadataClient, error)

// NewClient calls f.
func (f AuthenticatorFunc) NewClient(ctx context.Context) (MetadataClient, error) {
	return f(ctx)
}
