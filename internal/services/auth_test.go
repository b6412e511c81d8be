package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/shared"
	"golang.org/x/oauth2"
)

func writeClientSecret(t *testing.T, dir, tokenURL string) string {
	t.Helper()
	path := filepath.Join(dir, "client_secret.json")
	body := fmt.Sprintf(`{"installed":{"client_id":"cid","client_secret":"csecret",`+
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":%q,`+
		`"redirect_uris":["http://localhost"]}}`, tokenURL)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write client secret: %v", err)
	}
	return path
}

func TestNewOAuthConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeClientSecret(t, dir, "https://oauth2.googleapis.com/token")
		cfg, err := NewOAuthConfig(path, "http://127.0.0.1:8085/callback")
		if err != nil {
			t.Fatalf("NewOAuthConfig: %v", err)
		}
		if cfg.ClientID != "cid" || cfg.RedirectURL != "http://127.0.0.1:8085/callback" {
			t.Errorf("config = %+v", cfg)
		}
		if len(cfg.Scopes) != len(Scopes) {
			t.Errorf("scopes = %v", cfg.Scopes)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewOAuthConfig(filepath.Join(dir, "nope.json"), "")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte(`{"other":{}}`), 0o600)
		_, err := NewOAuthConfig(path, "")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestTokenStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTokenStore(filepath.Join(dir, "nested", "token.json"))

	if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated before save, got %v", err)
	}

	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token permissions = %o, want 600", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "a" || got.RefreshToken != "r" {
		t.Errorf("Load() = %+v", got)
	}

	os.WriteFile(store.Path(), []byte("{"), 0o600)
	if _, err := store.Load(); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for corrupt file, got %v", err)
	}
}

func TestTokenAuthenticator(t *testing.T) {
	tokenServer := func(t *testing.T, status int, body string) string {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}))
		t.Cleanup(srv.Close)
		return srv.URL + "/token"
	}

	t.Run("valid token needs no refresh", func(t *testing.T) {
		dir := t.TempDir()
		secret := writeClientSecret(t, dir, "http://127.0.0.1:1/token")
		store := NewTokenStore(filepath.Join(dir, "token.json"))
		store.Save(&oauth2.Token{AccessToken: "live", Expiry: time.Now().Add(time.Hour)})

		auth, err := NewTokenAuthenticator(secret, store)
		if err != nil {
			t.Fatalf("NewTokenAuthenticator: %v", err)
		}
		client, err := auth.NewClient(context.Background())
		if err != nil || client == nil {
			t.Fatalf("NewClient: %v", err)
		}
	})

	t.Run("expired token is refreshed and saved", func(t *testing.T) {
		dir := t.TempDir()
		url := tokenServer(t, http.StatusOK, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
		secret := writeClientSecret(t, dir, url)
		store := NewTokenStore(filepath.Join(dir, "token.json"))
		store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)})

		auth, err := NewTokenAuthenticator(secret, store)
		if err != nil {
			t.Fatalf("NewTokenAuthenticator: %v", err)
		}
		if _, err := auth.NewClient(context.Background()); err != nil {
			t.Fatalf("NewClient: %v", err)
		}

		saved, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if saved.AccessToken != "fresh" || saved.RefreshToken != "r" {
			t.Errorf("saved token = %+v", saved)
		}
	})

	t.Run("failed save of refreshed token is logged", func(t *testing.T) {
		dir := t.TempDir()
		url := tokenServer(t, http.StatusOK, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
		secret := writeClientSecret(t, dir, url)
		store := NewTokenStore(filepath.Join(dir, "token.json"))
		store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)})

		var logs bytes.Buffer
		auth, err := NewTokenAuthenticator(secret, store)
		if err != nil {
			t.Fatalf("NewTokenAuthenticator: %v", err)
		}
		auth.SetLogger(log.New(&logs))

		ts, err := auth.TokenSource(context.Background())
		if err != nil {
			t.Fatalf("TokenSource: %v", err)
		}

		// A directory in place of the token file makes every write fail.
		os.Remove(store.Path())
		if err := os.Mkdir(store.Path(), 0o700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		token, err := ts.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if token.AccessToken != "fresh" {
			t.Errorf("token = %+v", token)
		}
		if !strings.Contains(logs.String(), "could not save refreshed token") {
			t.Errorf("expected save failure to be logged, got %q", logs.String())
		}
	})

	t.Run("refresh failure is an auth failure", func(t *testing.T) {
		dir := t.TempDir()
		url := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		secret := writeClientSecret(t, dir, url)
		store := NewTokenStore(filepath.Join(dir, "token.json"))
		store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)})

		auth, _ := NewTokenAuthenticator(secret, store)
		_, err := auth.NewClient(context.Background())
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("expired token without refresh token", func(t *testing.T) {
		dir := t.TempDir()
		secret := writeClientSecret(t, dir, "http://127.0.0.1:1/token")
		store := NewTokenStore(filepath.Join(dir, "token.json"))
		store.Save(&oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)})

		auth, _ := NewTokenAuthenticator(secret, store)
		_, err := auth.NewClient(context.Background())
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("no saved token", func(t *testing.T) {
		dir := t.TempDir()
		secret := writeClientSecret(t, dir, "http://127.0.0.1:1/token")

		auth, _ := NewTokenAuthenticator(secret, NewTokenStore(filepath.Join(dir, "token.json")))
		_, err := auth.NewClient(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
