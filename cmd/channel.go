package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytmeta/internal/normalize"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists prints every playlist owned by the authorized channel.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	playlists, err := client.ListPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found.\n")
	}
	for i, p := range playlists {
		r.writePlain("[PL%02d] %s | %s\n", i+1, p.Title, p.ID)
	}
	return nil
}

// RecentVideos prints the newest uploads of the authorized channel.
func (r *Runner) RecentVideos(ctx context.Context, cmd *cli.Command) error {
	n := cmd.Int("max")
	if n < 1 || n > 50 {
		return fmt.Errorf("%w: --max must be between 1 and 50, got %d", shared.ErrInvalidFlag, n)
	}

	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	videos, err := client.RecentVideos(ctx, int64(n))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, true)
	}

	if len(videos) == 0 {
		return r.writePlain("No videos found.\n")
	}
	for i, v := range videos {
		r.writePlain("%2d. %s | %s | %s\n", i+1, v.ID, v.PublishedAt.Local().Format(time.DateOnly), v.Title)
	}
	return nil
}

// Categories prints the category table sorted by code.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	for _, c := range normalize.Categories() {
		r.writePlain("%3s  %s\n", c.Code, c.Title)
	}
	return nil
}
