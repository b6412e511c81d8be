package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Scopes requested during login.
var Scopes = []string{youtube.YoutubeUploadScope, youtube.YoutubeScope}

// NewOAuthConfig reads a Google "installed" or "web" client secret file.
//
// A non-empty redirectURL replaces the one in the file.
func NewOAuthConfig(clientSecretPath, redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: client secret %s not found", shared.ErrMissingCredentials, clientSecretPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
	return config, nil
}

// TokenStore persists an OAuth token as JSON. Safe for concurrent use.
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore returns a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the saved token. A missing file is [shared.ErrNotAuthenticated].
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s (run auth login)", shared.ErrNotAuthenticated, s.path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token file: %v", shared.ErrInvalidCredentials, err)
	}
	return &token, nil
}

// Save writes token with owner-only permissions.
func (s *TokenStore) Save(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// persistingTokenSource writes every newly issued access token back to the store.
//
// A failed write is logged and the token is still returned; the next refresh retries the write.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	logger *log.Logger
	mu     sync.Mutex
	last   string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		if err := p.store.Save(token); err != nil {
			if p.logger != nil {
				p.logger.Warn("could not save refreshed token", "path", p.store.Path(), "err", err)
			}
		} else {
			p.last = token.AccessToken
		}
	}
	return token, nil
}

// TokenAuthenticator implements [Authenticator] from a client secret and a saved token.
type TokenAuthenticator struct {
	config *oauth2.Config
	store  *TokenStore
	opts   []option.ClientOption
	logger *log.Logger
}

// NewTokenAuthenticator loads the client secret eagerly so configuration errors surface before any worker starts.
//
// opts are appended after the authorized HTTP client, e.g. [option.WithEndpoint] in tests.
func NewTokenAuthenticator(clientSecretPath string, store *TokenStore, opts ...option.ClientOption) (*TokenAuthenticator, error) {
	config, err := NewOAuthConfig(clientSecretPath, "")
	if err != nil {
		return nil, err
	}
	return &TokenAuthenticator{config: config, store: store, opts: opts}, nil
}

// SetLogger sets where token persistence failures are reported.
func (a *TokenAuthenticator) SetLogger(l *log.Logger) {
	a.logger = l
}

// TokenSource returns a refreshing source seeded from the saved token.
func (a *TokenAuthenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.ErrNoRefreshToken)
	}

	base := a.config.TokenSource(ctx, token)
	return oauth2.ReuseTokenSource(token, &persistingTokenSource{base: base, store: a.store, logger: a.logger, last: token.AccessToken}), nil
}

// NewClient obtains a valid access token, refreshing it if needed, and builds a [YouTubeClient].
func (a *TokenAuthenticator) NewClient(ctx context.Context) (MetadataClient, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", shared.ErrAuthFailed, shared.ErrRefreshFailed, err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, a.opts...)
	return NewYouTubeClient(ctx, opts...)
}
