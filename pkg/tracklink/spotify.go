package tracklink

import "regexp"

// Matches open.spotify.com track URLs, with or without scheme and with
// optional locale path segments like /intl-de/.
var spotifyTrackRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]{2}(?:-[a-z]{2})?/)?track/([a-zA-Z0-9]+)`)

// spotifyURIRegex matches the spotify:track:<id> URI form used by desktop clients.
var spotifyURIRegex = regexp.MustCompile(`spotify:track:([a-zA-Z0-9]+)`)

type SpotifyMatcher struct{}

func NewSpotifyMatcher() *SpotifyMatcher {
	return &SpotifyMatcher{}
}

func (m *SpotifyMatcher) Service() Service {
	return ServiceSpotify
}

func (m *SpotifyMatcher) Match(url string) (Link, bool) {
	if matches := spotifyTrackRegex.FindStringSubmatch(url); matches != nil {
		return Link{Service: ServiceSpotify, TrackID: matches[1], URL: url}, true
	}

	if matches := spotifyURIRegex.FindStringSubmatch(url); matches != nil {
		return Link{Service: ServiceSpotify, TrackID: matches[1], URL: url}, true
	}

	return Link{}, false
}
