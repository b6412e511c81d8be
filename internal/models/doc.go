// Package models defines the value types shared by the loader, the update pipeline and the API client.
//
// The package contains three groups of types:
//
// 1. Input: [Row], one spreadsheet record, whose optional cells are [Opt] values
// so that "keep the current value" is explicit rather than an empty string.
//
// 2. Remote state: [Video] is the snapshot fetched before an update and
// [VideoUpdate] is the body sent back. [Playlist] and [RecentVideo] back the
// listing commands.
//
// 3. Bookkeeping: [JobState] and [Run] record pipeline progress and history.
package models
