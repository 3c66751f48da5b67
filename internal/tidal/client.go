// Package tidal provides the TIDAL API adapter for track lookup and
// cross-catalog search.
package tidal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trackbridge/internal/core"
)

const (
	apiBase        = "https://api.tidal.com/v1"
	trackURLPrefix = "https://tidal.com/browse/track/"
)

// TokenSource supplies a live TIDAL access token for each request.
type TokenSource interface {
	TidalToken(ctx context.Context) (string, error)
}

// Client adapts the TIDAL API to the provider client contract.
type Client struct {
	baseURL     string
	countryCode string
	tokens      TokenSource
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(tokens TokenSource, countryCode string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     apiBase,
		countryCode: countryCode,
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// tidalTrack mirrors the TIDAL track payload.
type tidalTrack struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ISRC     string `json:"isrc"`
	Duration int    `json:"duration"`
	Album    struct {
		Title       string `json:"title"`
		ReleaseDate string `json:"releaseDate"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type searchResponse struct {
	Items []tidalTrack `json:"items"`
}

func (c *Client) Provider() core.Provider {
	return core.ProviderTidal
}

// ResolveByID fetches the full metadata of a track by its numeric TIDAL ID.
func (c *Client) ResolveByID(ctx context.Context, id string) (*core.Track, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("tidal track ID %q is not numeric: %w", id, core.ErrNotFound)
	}

	endpoint := fmt.Sprintf("%s/tracks/%s?countryCode=%s", c.baseURL, id, c.countryCode)

	var track tidalTrack
	if err := c.get(ctx, endpoint, &track); err != nil {
		return nil, fmt.Errorf("tidal get track: %w", err)
	}

	return c.convertTrack(&track), nil
}

// Search queries the TIDAL catalog for candidates matching the given track
// metadata.
func (c *Client) Search(ctx context.Context, track *core.Track, limit int) ([]*core.Track, error) {
	query := track.Title
	if artist := track.PrimaryArtist(); artist != "" {
		query += " " + artist
	}

	endpoint := fmt.Sprintf("%s/search/tracks?query=%s&limit=%d&countryCode=%s",
		c.baseURL, url.QueryEscape(query), limit, c.countryCode)

	var results searchResponse
	if err := c.get(ctx, endpoint, &results); err != nil {
		return nil, fmt.Errorf("tidal search: %w", err)
	}

	candidates := make([]*core.Track, 0, len(results.Items))
	for i := range results.Items {
		candidates = append(candidates, c.convertTrack(&results.Items[i]))
	}

	c.logger.Debug("TIDAL search",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

// TrackURL returns the canonical tidal.com link for a track ID.
func (c *Client) TrackURL(id string) string {
	return trackURLPrefix + id
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	token, err := c.tokens.TidalToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return core.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return core.ErrAuthRequired
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tidal API returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tidal response: %w", err)
	}

	return nil
}

func (c *Client) convertTrack(track *tidalTrack) *core.Track {
	var artists []string
	for _, artist := range track.Artists {
		if artist.Name != "" {
			artists = append(artists, artist.Name)
		}
	}
	if len(artists) == 0 && track.Artist.Name != "" {
		artists = append(artists, track.Artist.Name)
	}

	id := strconv.FormatInt(track.ID, 10)

	return &core.Track{
		ID:       core.ProviderID{Provider: core.ProviderTidal, ID: id},
		Title:    strings.TrimSpace(track.Title),
		Artists:  artists,
		Album:    track.Album.Title,
		Duration: time.Duration(track.Duration) * time.Second,
		ISRC:     track.ISRC,
		URL:      trackURLPrefix + id,
	}
}
