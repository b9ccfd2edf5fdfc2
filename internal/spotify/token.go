// Package spotify provides the Spotify Web API integration: OAuth2
// credential management and an authenticated REST client for playback,
// search and library endpoints.
package spotify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"tunepilot/internal/core"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during the authorization-code flow.
var scopes = []string{
	"user-modify-playback-state",
	"user-read-playback-state",
	"user-read-currently-playing",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// NewOAuthConfig builds the OAuth2 endpoint configuration for the provider.
// The token endpoint takes client credentials via basic auth.
func NewOAuthConfig(cfg *core.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// TokenStore holds the process-wide access and refresh credentials. The
// access token carries no TTL; its validity is discovered reactively when a
// request comes back 401. Concurrent callers that both observe an expired
// token share a single in-flight refresh.
type TokenStore struct {
	conf   *oauth2.Config
	logger *zap.Logger

	mu      sync.RWMutex
	access  string
	refresh string

	flight singleflight.Group

	// OnRefresh, when set, is invoked after each successful refresh.
	OnRefresh func()
}

// NewTokenStore creates a token store, optionally pre-seeded with a refresh
// token so the interactive login can be skipped.
func NewTokenStore(conf *oauth2.Config, refreshToken string, logger *zap.Logger) *TokenStore {
	return &TokenStore{
		conf:    conf,
		logger:  logger,
		refresh: refreshToken,
	}
}

// Access returns the current access token, which may be empty.
func (s *TokenStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// AuthURL returns the provider authorization URL for the /login redirect.
func (s *TokenStore) AuthURL(state string) string {
	return s.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens and stores them.
func (s *TokenStore) Exchange(ctx context.Context, code string) error {
	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	s.mu.Lock()
	s.access = token.AccessToken
	if token.RefreshToken != "" {
		s.refresh = token.RefreshToken
	}
	s.mu.Unlock()

	s.logger.Info("Authorization code exchanged")
	return nil
}

// Ensure makes an access token available when a refresh token exists. It
// does not validate a held token; that happens when the token is used.
func (s *TokenStore) Ensure(ctx context.Context) error {
	if s.Access() != "" {
		return nil
	}

	s.mu.RLock()
	refresh := s.refresh
	s.mu.RUnlock()
	if refresh == "" {
		return nil
	}

	return s.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new access token, replacing the
// stored credentials. Rotated refresh tokens are adopted. Concurrent calls
// collapse into one upstream exchange.
func (s *TokenStore) Refresh(ctx context.Context) error {
	_, err, _ := s.flight.Do("refresh", func() (interface{}, error) {
		s.mu.RLock()
		refresh := s.refresh
		s.mu.RUnlock()

		if refresh == "" {
			return nil, core.ErrNoRefreshToken
		}

		token, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrUpstreamAuth, err)
		}

		s.mu.Lock()
		s.access = token.AccessToken
		if token.RefreshToken != "" {
			s.refresh = token.RefreshToken
		}
		s.mu.Unlock()

		s.logger.Info("Access token refreshed")
		if s.OnRefresh != nil {
			s.OnRefresh()
		}

		return nil, nil
	})

	return err
}
