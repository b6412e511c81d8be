// Package services wraps the YouTube Data API v3 behind the [MetadataClient] interface consumed by the update pipeline.
//
// # Metadata Client
//
// [YouTubeClient] maps API resources to [models.Video], [models.Playlist] and [models.RecentVideo]:
//   - FetchVideo: videos.list part=snippet,status
//   - UpdateVideo: videos.update part=snippet,status
//   - SetThumbnail: thumbnails.set (media upload)
//   - PlaylistExists: playlists.list part=id, maxResults=1
//   - InsertPlaylistItem: playlistItems.insert part=snippet
//   - ListPlaylists: playlists.list mine=true, 50 per page
//   - RecentVideos: search.list forMine=true type=video order=date
//
// # Authentication
//
// [TokenAuthenticator] reads a Google OAuth client secret and a saved token.
// The [oauth2.TokenSource] refreshes expired access tokens, and refreshed tokens are written back to disk.
// [NewOAuthConfig] builds the config used by the loopback login flow in the server package.
//
// # Rate Limiting
//
// [RateLimitedClient] decorates any MetadataClient with a token bucket shared across workers.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token has been saved yet
//   - [shared.ErrAuthFailed] : token could not be refreshed or the client secret is unusable
//   - [shared.ErrAPIRequest] : the API returned an error
//   - [shared.ErrVideoNotFound] : videos.list returned no items
package services
