package tracklink

import (
	"trackbridge/pkg/text"
)

// Parser scans chat text for track links using an ordered list of matchers.
type Parser struct {
	matchers []Matcher
	text     *text.Parser
}

// NewParser creates a parser with all supported service matchers.
func NewParser() *Parser {
	return &Parser{
		matchers: []Matcher{
			NewSpotifyMatcher(),
			NewTidalMatcher(),
		},
		text: text.NewParser(),
	}
}

// Parse returns the first track link found in the text. Matchers are tried
// in registration order per URL, URLs in order of appearance, so a message
// carrying several links resolves deterministically.
func (p *Parser) Parse(rawText string) (Link, bool) {
	normalized := p.text.NormalizeText(rawText)

	// Desktop-client URIs carry no scheme and survive URL extraction only
	// as plain tokens, so the raw text is checked too.
	candidates := p.text.ExtractURLs(normalized)
	candidates = append(candidates, normalized)

	for _, candidate := range candidates {
		for _, matcher := range p.matchers {
			if link, ok := matcher.Match(candidate); ok {
				return link, true
			}
		}
	}

	return Link{}, false
}
