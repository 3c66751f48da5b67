package core

import (
	"fmt"
	"time"
)

// Provider identifies a streaming service catalog.
type Provider string

const (
	// ProviderSpotify is the Spotify catalog
	ProviderSpotify Provider = "spotify"
	// ProviderTidal is the TIDAL catalog
	ProviderTidal Provider = "tidal"
)

// Other returns the opposite provider in the Spotify/TIDAL pair.
func (p Provider) Other() Provider {
	if p == ProviderSpotify {
		return ProviderTidal
	}
	return ProviderSpotify
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderSpotify || p == ProviderTidal
}

// ProviderID is a track identity scoped to one provider's catalog.
type ProviderID struct {
	Provider Provider
	ID       string
}

func (id ProviderID) String() string {
	return fmt.Sprintf("%s:%s", id.Provider, id.ID)
}

type Track struct {
	ID       ProviderID
	Title    string
	Artists  []string
	Album    string
	Duration time.Duration
	ISRC     string
	URL      string
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ResolutionRequest asks for the equivalent of Source in the Target catalog.
type ResolutionRequest struct {
	Source ProviderID
	Target Provider
}

// Key is the coalescing and cache key for the request.
func (r ResolutionRequest) Key() string {
	return fmt.Sprintf("%s:%s:%s", r.Source.Provider, r.Source.ID, r.Target)
}

type ResolutionStatus int

const (
	// StatusMatched indicates a target track was found with sufficient confidence
	StatusMatched ResolutionStatus = iota
	// StatusNoMatch indicates the search succeeded but no candidate scored above threshold
	StatusNoMatch
	// StatusSourceNotFound indicates the source track does not exist on its own provider
	StatusSourceNotFound
	// StatusTransientError indicates a temporary failure; the request may succeed later
	StatusTransientError
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusNoMatch:
		return "no_match"
	case StatusSourceNotFound:
		return "source_not_found"
	case StatusTransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

type ResolutionResult struct {
	Status     ResolutionStatus
	Request    ResolutionRequest
	Source     *Track
	Target     *Track
	Confidence float64
	ResolvedAt time.Time
}
