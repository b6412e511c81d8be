package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// fakeAPI serves the subset of the Data API the client calls and records request bodies.
type fakeAPI struct {
	mu        sync.Mutex
	updates   []map[string]any
	inserts   []map[string]any
	thumbnail string
	failWrite bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// The client library may send part as one joined value or as repeated parameters.
			if got := strings.Join(r.URL.Query()["part"], ","); got != "snippet,status" {
				t.Errorf("videos.list part = %q", got)
			}
			if r.URL.Query().Get("id") != "abc123" {
				writeJSON(w, map[string]any{"items": []any{}})
				return
			}
			writeJSON(w, map[string]any{"items": []any{map[string]any{
				"id": "abc123",
				"snippet": map[string]any{
					"title":       "Old Title",
					"description": "Old description",
					"categoryId":  "27",
					"tags":        []string{"old"},
				},
				"status": map[string]any{
					"privacyStatus":           "unlisted",
					"selfDeclaredMadeForKids": true,
				},
			}}})
		case http.MethodPut:
			if f.failWrite {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode update: %v", err)
			}
			f.mu.Lock()
			f.updates = append(f.updates, body)
			f.mu.Unlock()
			writeJSON(w, body)
		}
	})

	mux.HandleFunc("/upload/youtube/v3/thumbnails/set", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.thumbnail = r.URL.Query().Get("videoId") + ":" + string(data)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"kind": "youtube#thumbnailSetResponse"})
	})

	mux.HandleFunc("/youtube/v3/playlists", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if id := q.Get("id"); id != "" {
			if id == "PLerror" {
				writeError(w, http.StatusInternalServerError, "backend error")
				return
			}
			items := []any{}
			if id == "PLfound" {
				items = append(items, map[string]any{"id": id})
			}
			writeJSON(w, map[string]any{"items": items})
			return
		}

		if q.Get("mine") != "true" || q.Get("maxResults") != "50" {
			t.Errorf("playlists.list query = %v", q)
		}
		if q.Get("pageToken") == "" {
			writeJSON(w, map[string]any{
				"nextPageToken": "page2",
				"items":         []any{map[string]any{"id": "PL1", "snippet": map[string]any{"title": "First"}}},
			})
			return
		}
		writeJSON(w, map[string]any{
			"items": []any{map[string]any{"id": "PL2", "snippet": map[string]any{"title": "Second"}}},
		})
	})

	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if f.failWrite {
			writeError(w, http.StatusNotFound, "playlist not found")
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.inserts = append(f.inserts, body)
		f.mu.Unlock()
		writeJSON(w, body)
	})

	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("forMine") != "true" || q.Get("type") != "video" || q.Get("order") != "date" {
			t.Errorf("search.list query = %v", q)
		}
		writeJSON(w, map[string]any{"items": []any{
			map[string]any{
				"id":      map[string]any{"kind": "youtube#video", "videoId": "v1"},
				"snippet": map[string]any{"title": "Newest", "publishedAt": "2024-05-01T10:00:00Z"},
			},
			map[string]any{"id": map[string]any{"kind": "youtube#channel"}},
		}})
	})

	return mux
}

func (f *fakeAPI) snapshot() (updates, inserts []map[string]any, thumbnail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(updates, f.updates...), append(inserts, f.inserts...), f.thumbnail
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": code, "message": msg}})
}

func newTestClient(t *testing.T, api *fakeAPI) *YouTubeClient {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client, err := NewYouTubeClient(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewYouTubeClient: %v", err)
	}
	return client
}

func TestYouTubeClient(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchVideo", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{})

		v, err := client.FetchVideo(ctx, "abc123")
		if err != nil {
			t.Fatalf("FetchVideo: %v", err)
		}
		if v.Snippet.Title != "Old Title" {
			t.Errorf("title = %q", v.Snippet.Title)
		}
		if cat, ok := v.Snippet.CategoryID.Get(); !ok || cat != "27" {
			t.Errorf("category = %q, %v", cat, ok)
		}
		if tags, ok := v.Snippet.Tags.Get(); !ok || len(tags) != 1 || tags[0] != "old" {
			t.Errorf("tags = %q, %v", tags, ok)
		}
		if p, _ := v.Status.PrivacyStatus.Get(); p != "unlisted" {
			t.Errorf("privacy = %q", p)
		}
		if kids, _ := v.Status.MadeForKids.Get(); !kids {
			t.Error("made for kids should be true")
		}
	})

	t.Run("FetchVideo not found", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{})

		_, err := client.FetchVideo(ctx, "missing")
		if !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("UpdateVideo sends both blocks", func(t *testing.T) {
		api := &fakeAPI{}
		client := newTestClient(t, api)

		err := client.UpdateVideo(ctx, models.VideoUpdate{
			ID: "abc123",
			Snippet: models.UpdateSnippet{
				Title:      "New Title",
				CategoryID: "22",
				Tags:       models.Some([]string{}),
			},
			Status: models.UpdateStatus{PrivacyStatus: "private", PublishAt: "2030-01-01T00:00:00Z"},
		})
		if err != nil {
			t.Fatalf("UpdateVideo: %v", err)
		}
		updates, _, _ := api.snapshot()
		if len(updates) != 1 {
			t.Fatalf("expected 1 update, got %d", len(updates))
		}

		body := updates[0]
		snippet := body["snippet"].(map[string]any)
		status := body["status"].(map[string]any)
		if snippet["title"] != "New Title" || snippet["categoryId"] != "22" {
			t.Errorf("snippet = %v", snippet)
		}
		if tags, ok := snippet["tags"].([]any); !ok || len(tags) != 0 {
			t.Errorf("present empty tags should be sent, snippet = %v", snippet)
		}
		if _, ok := snippet["description"]; !ok {
			t.Error("description should always be sent")
		}
		if status["selfDeclaredMadeForKids"] != false {
			t.Errorf("made for kids flag should be sent as false, status = %v", status)
		}
		if status["publishAt"] != "2030-01-01T00:00:00Z" {
			t.Errorf("publishAt = %v", status["publishAt"])
		}
	})

	t.Run("UpdateVideo omits absent tags", func(t *testing.T) {
		api := &fakeAPI{}
		client := newTestClient(t, api)

		if err := client.UpdateVideo(ctx, models.VideoUpdate{ID: "abc123"}); err != nil {
			t.Fatalf("UpdateVideo: %v", err)
		}
		updates, _, _ := api.snapshot()
		snippet := updates[0]["snippet"].(map[string]any)
		if _, ok := snippet["tags"]; ok {
			t.Errorf("absent tags should be omitted, snippet = %v", snippet)
		}
	})

	t.Run("UpdateVideo remote error", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{failWrite: true})

		err := client.UpdateVideo(ctx, models.VideoUpdate{ID: "abc123"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		var gerr *googleapi.Error
		if !errors.As(err, &gerr) || gerr.Code != http.StatusForbidden {
			t.Errorf("expected wrapped 403, got %v", err)
		}
	})

	t.Run("SetThumbnail", func(t *testing.T) {
		api := &fakeAPI{}
		client := newTestClient(t, api)

		if err := client.SetThumbnail(ctx, "abc123", strings.NewReader("PNGDATA")); err != nil {
			t.Fatalf("SetThumbnail: %v", err)
		}
		_, _, thumbnail := api.snapshot()
		if !strings.HasPrefix(thumbnail, "abc123:") || !strings.Contains(thumbnail, "PNGDATA") {
			t.Errorf("thumbnail upload = %q", thumbnail)
		}
	})

	t.Run("PlaylistExists", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{})

		tests := []struct {
			id   string
			want bool
		}{
			{"PLfound", true},
			{"PLmissing", false},
			{"PLerror", false},
			{"", false},
		}
		for _, tt := range tests {
			if got := client.PlaylistExists(ctx, tt.id); got != tt.want {
				t.Errorf("PlaylistExists(%q) = %v, want %v", tt.id, got, tt.want)
			}
		}
	})

	t.Run("InsertPlaylistItem", func(t *testing.T) {
		api := &fakeAPI{}
		client := newTestClient(t, api)

		if err := client.InsertPlaylistItem(ctx, "PLfound", "abc123"); err != nil {
			t.Fatalf("InsertPlaylistItem: %v", err)
		}
		_, inserts, _ := api.snapshot()
		snippet := inserts[0]["snippet"].(map[string]any)
		resource := snippet["resourceId"].(map[string]any)
		if snippet["playlistId"] != "PLfound" || resource["videoId"] != "abc123" || resource["kind"] != "youtube#video" {
			t.Errorf("insert body = %v", inserts[0])
		}
	})

	t.Run("ListPlaylists follows pages", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{})

		playlists, err := client.ListPlaylists(ctx)
		if err != nil {
			t.Fatalf("ListPlaylists: %v", err)
		}
		if len(playlists) != 2 || playlists[0].ID != "PL1" || playlists[1].Title != "Second" {
			t.Errorf("playlists = %+v", playlists)
		}
	})

	t.Run("RecentVideos skips non-video results", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{})

		videos, err := client.RecentVideos(ctx, 10)
		if err != nil {
			t.Fatalf("RecentVideos: %v", err)
		}
		if len(videos) != 1 || videos[0].ID != "v1" || videos[0].Title != "Newest" {
			t.Fatalf("videos = %+v", videos)
		}
		if videos[0].PublishedAt.Year() != 2024 {
			t.Errorf("published at = %v", videos[0].PublishedAt)
		}
	})
}
