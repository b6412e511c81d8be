package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const playlistPageSize int64 = 50

// YouTubeClient implements [MetadataClient] on the YouTube Data API v3.
type YouTubeClient struct {
	service *youtube.Service
}

// NewYouTubeClient creates a client. Callers pass [option.WithHTTPClient] with an authorized client.
func NewYouTubeClient(ctx context.Context, opts ...option.ClientOption) (*YouTubeClient, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeClient{service: service}, nil
}

func apiError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
}

// FetchVideo calls videos.list for the snippet and status parts.
func (c *YouTubeClient) FetchVideo(ctx context.Context, videoID string) (models.Video, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "status"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return models.Video{}, apiError("videos.list", err)
	}
	if len(resp.Items) == 0 {
		return models.Video{}, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, videoID)
	}
	return videoFromAPI(resp.Items[0]), nil
}

func videoFromAPI(v *youtube.Video) models.Video {
	video := models.Video{ID: v.Id}

	if s := v.Snippet; s != nil {
		video.Snippet.Title = s.Title
		video.Snippet.Description = s.Description
		if s.CategoryId != "" {
			video.Snippet.CategoryID = models.Some(s.CategoryId)
		}
		if s.Tags != nil {
			video.Snippet.Tags = models.Some(s.Tags)
		}
	}

	if s := v.Status; s != nil {
		if s.PrivacyStatus != "" {
			video.Status.PrivacyStatus = models.Some(s.PrivacyStatus)
		}
		video.Status.MadeForKids = models.Some(s.SelfDeclaredMadeForKids)
		video.Status.PublishAt = s.PublishAt
	}

	return video
}

func videoToAPI(u models.VideoUpdate) *youtube.Video {
	snippet := &youtube.VideoSnippet{
		Title:           u.Snippet.Title,
		Description:     u.Snippet.Description,
		CategoryId:      u.Snippet.CategoryID,
		ForceSendFields: []string{"Title", "Description", "CategoryId"},
	}
	if tags, ok := u.Snippet.Tags.Get(); ok {
		snippet.Tags = tags
		snippet.ForceSendFields = append(snippet.ForceSendFields, "Tags")
	}

	return &youtube.Video{
		Id:      u.ID,
		Snippet: snippet,
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.Status.PrivacyStatus,
			SelfDeclaredMadeForKids: u.Status.MadeForKids,
			PublishAt:               u.Status.PublishAt,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

// UpdateVideo calls videos.update for the snippet and status parts.
func (c *YouTubeClient) UpdateVideo(ctx context.Context, update models.VideoUpdate) error {
	_, err := c.service.Videos.Update([]string{"snippet", "status"}, videoToAPI(update)).Context(ctx).Do()
	if err != nil {
		return apiError("videos.update", err)
	}
	return nil
}

// SetThumbnail calls thumbnails.set with media as the upload body.
func (c *YouTubeClient) SetThumbnail(ctx context.Context, videoID string, media io.Reader) error {
	if _, err := c.service.Thumbnails.Set(videoID).Media(media).Context(ctx).Do(); err != nil {
		return apiError("thumbnails.set", err)
	}
	return nil
}

// PlaylistExists calls playlists.list for a single ID.
func (c *YouTubeClient) PlaylistExists(ctx context.Context, playlistID string) bool {
	if playlistID == "" {
		return false
	}
	resp, err := c.service.Playlists.List([]string{"id"}).Id(playlistID).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return false
	}
	return len(resp.Items) > 0
}

// InsertPlaylistItem calls playlistItems.insert.
func (c *YouTubeClient) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}
	if _, err := c.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return apiError("playlistItems.insert", err)
	}
	return nil
}

// ListPlaylists follows nextPageToken until every playlist has been read.
func (c *YouTubeClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	pageToken := ""

	for {
		call := c.service.Playlists.List([]string{"id", "snippet"}).Mine(true).MaxResults(playlistPageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, apiError("playlists.list", err)
		}

		for _, item := range resp.Items {
			p := models.Playlist{ID: item.Id}
			if item.Snippet != nil {
				p.Title = item.Snippet.Title
			}
			playlists = append(playlists, p)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return playlists, nil
		}
	}
}

// RecentVideos calls search.list restricted to the caller's uploads ordered by date.
func (c *YouTubeClient) RecentVideos(ctx context.Context, maxResults int64) ([]models.RecentVideo, error) {
	resp, err := c.service.Search.List([]string{"id", "snippet"}).
		ForMine(true).
		Type("video").
		Order("date").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("search.list", err)
	}

	videos := make([]models.RecentVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		v := models.RecentVideo{ID: item.Id.VideoId}
		if item.Snippet != nil {
			v.Title = item.Snippet.Title
			v.PublishedAt, _ = time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		}
		videos = append(videos, v)
	}
	return videos, nil
}
