package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultLoginTimeout bounds how long [Login] waits for the browser callback.
const DefaultLoginTimeout = 2 * time.Minute

// LoginOpts configures [Login].
type LoginOpts struct {
	Config      *oauth2.Config
	Addr        string                 // host:port for the callback listener; port 0 picks one
	OpenBrowser func(url string) error // Failure falls back to OnURL
	OnURL       func(url string)       // Called with the consent URL when it must be opened by hand
	Timeout     time.Duration          // Defaults to DefaultLoginTimeout
	Logger      *log.Logger
}

// Login runs the installed-app authorization code flow against a loopback listener.
//
// The redirect URL is rewritten to the address actually bound, so Addr may use port 0.
func Login(ctx context.Context, opts LoginOpts) (*oauth2.Token, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: oauth config is required", shared.ErrMissingCredentials)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoginTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	host, _, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: callback address %q: %v", shared.ErrInvalidConfig, opts.Addr, err)
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := *opts.Config
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", net.JoinHostPort(host, strconv.Itoa(port)))

	handler := NewOAuthHandler(&cfg, state)
	router := NewRouter()
	router.Use(RequestLogger(opts.Logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		opts.Logger.Infof("starting OAuth callback server at %s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			opts.Logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := handler.AuthURL()
	opened := false
	if opts.OpenBrowser != nil {
		if err := opts.OpenBrowser(authURL); err != nil {
			opts.Logger.Warnf("failed to open browser automatically: %v", err)
		} else {
			opened = true
		}
	}
	if !opened && opts.OnURL != nil {
		opts.OnURL(authURL)
	}

	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()

	var result OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
