// Package spotify provides the Spotify Web API adapter for track lookup
// and cross-catalog search.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"trackbridge/internal/core"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// Client adapts the Spotify Web API to the provider client contract. The
// HTTP client injects the app token and refreshes it transparently.
type Client struct {
	api    *spotify.Client
	logger *zap.Logger
}

func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		api:    spotify.New(httpClient),
		logger: logger,
	}
}

func (c *Client) Provider() core.Provider {
	return core.ProviderSpotify
}

// ResolveByID fetches the full metadata of a track by its Spotify ID.
func (c *Client) ResolveByID(ctx context.Context, id string) (*core.Track, error) {
	track, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, c.mapError("get track", err)
	}

	return c.convertTrack(&track.SimpleTrack, track.Album.Name, track.ExternalIDs["isrc"]), nil
}

// Search queries the Spotify catalog for candidates matching the given
// track metadata. Candidates come back in catalog relevance order.
func (c *Client) Search(ctx context.Context, track *core.Track, limit int) ([]*core.Track, error) {
	query := buildQuery(track)

	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, c.mapError("search", err)
	}

	if results.Tracks == nil {
		return nil, nil
	}

	candidates := make([]*core.Track, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		full := &results.Tracks.Tracks[i]
		candidates = append(candidates, c.convertTrack(&full.SimpleTrack, full.Album.Name, full.ExternalIDs["isrc"]))
	}

	c.logger.Debug("Spotify search",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

// TrackURL returns the canonical open.spotify.com link for a track ID.
func (c *Client) TrackURL(id string) string {
	return trackURLPrefix + id
}

// buildQuery forms a field-scoped search query from track metadata. Title
// and primary artist are scoped to their fields so a common title does not
// drown in unrelated artists.
func buildQuery(track *core.Track) string {
	query := fmt.Sprintf("track:%s", track.Title)
	if artist := track.PrimaryArtist(); artist != "" {
		query += fmt.Sprintf(" artist:%s", artist)
	}
	return query
}

func (c *Client) convertTrack(track *spotify.SimpleTrack, album, isrc string) *core.Track {
	var artists []string
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return &core.Track{
		ID:       core.ProviderID{Provider: core.ProviderSpotify, ID: string(track.ID)},
		Title:    track.Name,
		Artists:  artists,
		Album:    album,
		Duration: time.Duration(track.Duration) * time.Millisecond,
		ISRC:     isrc,
		URL:      trackURLPrefix + string(track.ID),
	}
}

// mapError translates Spotify API failures into the resolver error
// taxonomy. Catalog misses and auth failures are definitive; everything
// else stays transient.
func (c *Client) mapError(op string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound, http.StatusBadRequest:
			return fmt.Errorf("spotify %s: %w", op, core.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("spotify %s: %w", op, core.ErrAuthRequired)
		}
	}

	return fmt.Errorf("spotify %s: %w", op, err)
}
