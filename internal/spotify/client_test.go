package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"trackbridge/internal/core"
)

const trackJSON = `{
	"id": "4uLU6hMCjMI75M1A2tKUQC",
	"name": "Never Gonna Give You Up",
	"artists": [{"name": "Rick Astley"}],
	"album": {"name": "Whenever You Need Somebody"},
	"duration_ms": 213573,
	"external_ids": {"isrc": "GBARL9300135"},
	"external_urls": {"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"}
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		api:    spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/v1/")),
		logger: zap.NewNop(),
	}
}

func apiError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error": {"status": %d, "message": %q}}`, status, message)
}

func TestClient_ResolveByID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tracks/4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, trackJSON)
	})

	track, err := client.ResolveByID(context.Background(), "4uLU6hMCjMI75M1A2tKUQC")
	if err != nil {
		t.Fatalf("ResolveByID() error = %v", err)
	}

	if track.ID.Provider != core.ProviderSpotify {
		t.Errorf("provider = %q, want %q", track.ID.Provider, core.ProviderSpotify)
	}
	if track.Title != "Never Gonna Give You Up" {
		t.Errorf("title = %q", track.Title)
	}
	if len(track.Artists) != 1 || track.Artists[0] != "Rick Astley" {
		t.Errorf("artists = %v", track.Artists)
	}
	if track.ISRC != "GBARL9300135" {
		t.Errorf("isrc = %q", track.ISRC)
	}
	if want := 213573 * time.Millisecond; track.Duration != want {
		t.Errorf("duration = %v, want %v", track.Duration, want)
	}
}

func TestClient_ResolveByID_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"Missing track", http.StatusNotFound, core.ErrNotFound},
		{"Malformed ID", http.StatusBadRequest, core.ErrNotFound},
		{"Expired token", http.StatusUnauthorized, core.ErrAuthRequired},
		{"Forbidden", http.StatusForbidden, core.ErrAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
				apiError(w, tt.status, "nope")
			})

			_, err := client.ResolveByID(context.Background(), "whatever")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveByID() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_ResolveByID_ServerErrorIsTransient(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, http.StatusInternalServerError, "boom")
	})

	_, err := client.ResolveByID(context.Background(), "whatever")
	if err == nil {
		t.Fatalf("ResolveByID() error = nil")
	}
	if !core.IsTransient(err) {
		t.Errorf("IsTransient() = false for %v, want true", err)
	}
}

func TestClient_Search(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query().Get("q")
		if query != "track:Never Gonna Give You Up artist:Rick Astley" {
			t.Errorf("query = %q", query)
		}
		fmt.Fprintf(w, `{"tracks": {"items": [%s], "limit": 10, "total": 1}}`, trackJSON)
	})

	source := &core.Track{
		Title:   "Never Gonna Give You Up",
		Artists: []string{"Rick Astley"},
	}

	candidates, err := client.Search(context.Background(), source, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Search() returned %d candidates, want 1", len(candidates))
	}
	if candidates[0].ID.ID != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Errorf("candidate ID = %q", candidates[0].ID.ID)
	}
}

func TestClient_TrackURL(t *testing.T) {
	client := &Client{logger: zap.NewNop()}

	want := "https://open.spotify.com/track/abc123"
	if got := client.TrackURL("abc123"); got != want {
		t.Errorf("TrackURL() = %q, want %q", got, want)
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		track    *core.Track
		expected string
	}{
		{
			name:     "Title and artist",
			track:    &core.Track{Title: "Song", Artists: []string{"Artist", "Other"}},
			expected: "track:Song artist:Artist",
		},
		{
			name:     "Title only",
			track:    &core.Track{Title: "Song"},
			expected: "track:Song",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.track); got != tt.expected {
				t.Errorf("buildQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}
