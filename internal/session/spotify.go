package session

import (
	"context"
	"fmt"
	"net/http"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"trackbridge/internal/core"
)

// spotifySession holds the app-level Spotify session. The client
// credentials grant needs no user interaction, so the oauth2 transport can
// refresh the token on its own for the life of the process.
type spotifySession struct {
	config *clientcredentials.Config
	logger *zap.Logger

	client *http.Client
}

func newSpotifySession(cfg *core.SpotifyConfig, logger *zap.Logger) *spotifySession {
	return &spotifySession{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
		logger: logger,
	}
}

func (s *spotifySession) start(ctx context.Context) error {
	token, err := s.config.Token(ctx)
	if err != nil {
		return fmt.Errorf("client credentials grant: %w", err)
	}

	s.client = s.config.Client(ctx)

	s.logger.Info("Spotify app token acquired",
		zap.Time("expires", token.Expiry))
	return nil
}

func (s *spotifySession) httpClient() *http.Client {
	return s.client
}
