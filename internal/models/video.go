package models

import "time"

// Video is the current remote snapshot of a video, fetched fresh for every job.
type Video struct {
	ID      string
	Snippet Snippet
	Status  Status
}

// Snippet holds title, description, category and tags as reported by the platform.
//
// CategoryID and Tags are absent when the platform omitted them.
type Snippet struct {
	Title       string
	Description string
	CategoryID  Opt[string]
	Tags        Opt[[]string]
}

// Status holds the privacy block as reported by the platform.
type Status struct {
	PrivacyStatus Opt[string]
	MadeForKids   Opt[bool]
	PublishAt     string
}

// VideoUpdate is the body of a metadata update. Both blocks are always fully formed.
type VideoUpdate struct {
	ID      string
	Snippet UpdateSnippet
	Status  UpdateStatus
}

// UpdateSnippet is the snippet block of a [VideoUpdate]. Absent Tags are omitted from the request.
type UpdateSnippet struct {
	Title       string
	Description string
	CategoryID  string
	Tags        Opt[[]string]
}

// UpdateStatus is the status block of a [VideoUpdate]. An empty PublishAt is omitted.
type UpdateStatus struct {
	PrivacyStatus string
	MadeForKids   bool
	PublishAt     string
}

// Playlist is an entry of the authenticated user's playlists.
type Playlist struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RecentVideo is an entry of the authenticated user's most recent uploads.
type RecentVideo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// WatchURL returns the public watch page for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
