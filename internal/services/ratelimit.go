package services

import (
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
	"golang.org/x/time/rate"
)

// NewLimiter returns a token bucket for rps requests per second, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// RateLimitedClient waits on a shared limiter before every remote call.
//
// Several workers wrap their own clients around the same limiter to bound the aggregate call rate.
type RateLimitedClient struct {
	next    MetadataClient
	limiter *rate.Limiter
}

// WithRateLimit wraps client. A nil limiter returns client unchanged.
func WithRateLimit(client MetadataClient, limiter *rate.Limiter) MetadataClient {
	if limiter == nil {
		return client
	}
	return &RateLimitedClient{next: client, limiter: limiter}
}

func (c *RateLimitedClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", shared.ErrTimeout, err)
	}
	return nil
}

func (c *RateLimitedClient) FetchVideo(ctx context.Context, videoID string) (models.Video, error) {
	if err := c.wait(ctx); err != nil {
		return models.Video{}, err
	}
	return c.next.FetchVideo(ctx, videoID)
}

func (c *RateLimitedClient) UpdateVideo(ctx context.Context, update models.VideoUpdate) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.next.UpdateVideo(ctx, update)
}

func (c *RateLimitedClient) SetThumbnail(ctx context.Context, videoID string, media io.Reader) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.next.SetThumbnail(ctx, videoID, media)
}

func (c *RateLimitedClient) PlaylistExists(ctx context.Context, playlistID string) bool {
	if err := c.wait(ctx); err != nil {
		return false
	}
	return c.next.PlaylistExists(ctx, playlistID)
}

func (c *RateLimitedClient) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.next.InsertPlaylistItem(ctx, playlistID, videoID)
}

func (c *RateLimitedClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ListPlaylists(ctx)
}

func (c *RateLimitedClient) RecentVideos(ctx context.Context, maxResults int64) ([]models.RecentVideo, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.next.RecentVideos(ctx, maxResults)
}
