// Package tasks runs the batch metadata update: a bounded worker pool that drains a
// queue of spreadsheet rows and applies each one to the platform.
//
// # Per-Row Protocol
//
// Every row runs the same stages, strictly in order (see [Stage]):
//
//  1. Fetching : read the current snippet and status of the video
//  2. Merging : [Merge] overlays the present row fields onto the current state
//  3. Applying : commit the merged body
//  4. ThumbnailStage : validate and upload thumbnail_path unless the row is a short
//  5. PlaylistStage : append the video to playlist_id if the playlist is visible
//
// Only Fetching and Applying can fail a row. Thumbnail and playlist problems are
// logged and the row still completes, since the core update is already committed.
//
// # Queue and Cancellation
//
// [NewQueue] enqueues a snapshot of every row before any worker starts. [Queue.Stop]
// closes a broadcast channel and drains the queue; rows in progress finish their protocol.
//
// # Events
//
// Workers publish [StatusUpdate] and [LogLine] values onto one buffered channel. A single
// goroutine delivers them to every [Observer] in order, so observers never run concurrently.
// [Run.Wait] returns once all workers have exited and every event has been delivered.
package tasks
