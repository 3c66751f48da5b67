// Package session owns provider authentication state: one session handle
// per provider, acquired at startup and refreshed silently where the grant
// allows it. Interactive login happens only before serving begins; a
// session that dies mid-flight stays dead until an operator restarts.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"trackbridge/internal/core"
	"trackbridge/internal/store"
)

type Manager struct {
	logger *zap.Logger

	spotify *spotifySession
	tidal   *tidalSession

	mutex   sync.RWMutex
	healthy map[core.Provider]bool
}

func NewManager(cfg *core.Config, tokens *store.TokenStore, logger *zap.Logger) *Manager {
	return &Manager{
		logger:  logger,
		spotify: newSpotifySession(&cfg.Spotify, logger.Named("spotify")),
		tidal:   newTidalSession(&cfg.Tidal, tokens, logger.Named("tidal")),
		healthy: make(map[core.Provider]bool),
	}
}

// Start establishes both provider sessions. The Spotify app token is
// fetched eagerly so bad credentials fail the process at startup, and the
// TIDAL session runs its interactive device login unless a stored refresh
// token still works. The context must outlive the manager: token refresh
// keeps using it.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.spotify.start(ctx); err != nil {
		return fmt.Errorf("spotify session: %w", err)
	}
	m.setHealthy(core.ProviderSpotify, true)

	if err := m.tidal.start(ctx); err != nil {
		return fmt.Errorf("tidal session: %w", err)
	}
	m.setHealthy(core.ProviderTidal, true)

	m.logger.Info("Provider sessions established")
	return nil
}

// SpotifyHTTPClient returns an HTTP client that injects and silently
// refreshes the Spotify app token.
func (m *Manager) SpotifyHTTPClient() *http.Client {
	return m.spotify.httpClient()
}

// TidalToken returns a live TIDAL access token, refreshing it first if it
// has expired. After invalidation it fails with ErrAuthRequired.
func (m *Manager) TidalToken(ctx context.Context) (string, error) {
	return m.tidal.token(ctx)
}

// Invalidate marks a provider session unusable. No re-login is attempted:
// interactive flows must not fire mid-request.
func (m *Manager) Invalidate(provider core.Provider) {
	m.logger.Warn("Invalidating provider session", zap.String("provider", string(provider)))

	if provider == core.ProviderTidal {
		m.tidal.invalidate()
	}
	m.setHealthy(provider, false)
}

// Healthy reports whether the provider session is believed usable.
func (m *Manager) Healthy(provider core.Provider) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.healthy[provider]
}

func (m *Manager) setHealthy(provider core.Provider, ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthy[provider] = ok
}
