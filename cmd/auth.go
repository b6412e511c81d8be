package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/ytmeta/internal/server"
	"github.com/desertthunder/ytmeta/internal/services"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser consent flow and saves the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	yt := r.config.Credentials.YouTube
	srv := r.config.Server

	oauthConfig, err := services.NewOAuthConfig(yt.ClientSecretPath, srv.RedirectURL())
	if err != nil {
		return err
	}

	opts := server.LoginOpts{
		Config:      oauthConfig,
		Addr:        net.JoinHostPort(srv.Host, strconv.Itoa(srv.Port)),
		OpenBrowser: r.openBrowser,
		OnURL: func(url string) {
			r.writePlainln("Open this URL in your browser:")
			r.writePlain("%s\n\n", url)
		},
		Logger: r.logger,
	}
	if cmd.Bool("no-browser") {
		opts.OpenBrowser = nil
	} else {
		r.writePlain("→ Opening browser for YouTube authorization...\n")
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", server.DefaultLoginTimeout)

	token, err := server.Login(ctx, opts)
	if err != nil {
		return err
	}
	if token.RefreshToken == "" {
		r.logger.Warn("no refresh token received; revoke the app's access and log in again for unattended runs")
	}

	store := services.NewTokenStore(yt.TokenPath)
	if err := store.Save(token); err != nil {
		return err
	}

	r.logger.Info("token saved", "path", store.Path())
	return r.writePlain("✓ Authorization successful\n")
}

// AuthStatus reports what the saved token allows. With --check it also refreshes and lists one video.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := services.NewTokenStore(r.config.Credentials.YouTube.TokenPath)
	token, err := store.Load()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		r.writePlain("✗ Not authenticated (no token at %s)\n", store.Path())
		r.writePlain("Run 'ytmeta auth login' first.\n")
		return nil
	}
	if err != nil {
		return err
	}

	r.writePlainHeader("YouTube authorization")
	r.writePlain("Token file:    %s\n", store.Path())
	if token.Expiry.IsZero() {
		r.writePlain("Access token:  no expiry recorded\n")
	} else if token.Valid() {
		r.writePlain("Access token:  valid until %s\n", token.Expiry.Local().Format(time.DateTime))
	} else {
		r.writePlain("Access token:  expired %s\n", token.Expiry.Local().Format(time.DateTime))
	}
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: ✓ present\n")
	} else {
		r.writePlain("Refresh token: ✗ missing\n")
	}

	if !cmd.Bool("check") {
		return nil
	}

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.RecentVideos(ctx, 1); err != nil {
		return fmt.Errorf("API check failed: %w", err)
	}
	return r.writePlain("API access:    ✓ ok\n")
}
