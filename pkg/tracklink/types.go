// Package tracklink recognizes streaming service track links in free-form
// chat text and extracts their provider-scoped track IDs.
package tracklink

// Service identifies the streaming service a link points to.
type Service string

const (
	// ServiceSpotify is the Spotify catalog.
	ServiceSpotify Service = "spotify"
	// ServiceTidal is the TIDAL catalog.
	ServiceTidal Service = "tidal"
)

// Link is a recognized track link.
type Link struct {
	Service Service // Service the link belongs to.
	TrackID string  // Provider-scoped track identifier.
	URL     string  // The matched URL, cleaned of tracking parameters.
}

// Matcher recognizes track links of a single service.
type Matcher interface {
	// Service returns the service this matcher recognizes.
	Service() Service

	// Match extracts a track link from a single URL, reporting whether the
	// URL is a track link of this service.
	Match(url string) (Link, bool)
}
