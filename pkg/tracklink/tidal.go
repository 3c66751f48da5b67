package tracklink

import "regexp"

// Matches tidal.com track URLs in their browse, listen and bare forms.
// TIDAL track IDs are numeric.
var tidalTrackRegex = regexp.MustCompile(`(?:https?://)?(?:www\.|listen\.)?tidal\.com/(?:browse/)?track/(\d+)`)

type TidalMatcher struct{}

func NewTidalMatcher() *TidalMatcher {
	return &TidalMatcher{}
}

func (m *TidalMatcher) Service() Service {
	return ServiceTidal
}

func (m *TidalMatcher) Match(url string) (Link, bool) {
	if matches := tidalTrackRegex.FindStringSubmatch(url); matches != nil {
		return Link{Service: ServiceTidal, TrackID: matches[1], URL: url}, true
	}

	return Link{}, false
}
