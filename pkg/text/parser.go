// Package text provides message normalization and URL extraction for chat text.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// NormalizeText canonicalizes raw chat text: Unicode NFKC, collapsed
// whitespace, blank lines dropped.
func (p *Parser) NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = norm.NFKC.String(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return text
}

// ExtractURLs returns the cleaned URLs found in the text, in order of
// appearance. Tracking parameters are stripped so the same link shared from
// different apps extracts identically.
func (p *Parser) ExtractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	var cleanURLs []string

	for _, match := range matches {
		cleanURL := p.CleanURL(match)
		if cleanURL != "" {
			cleanURLs = append(cleanURLs, cleanURL)
		}
	}

	return cleanURLs
}

// CleanURL validates a URL and strips share-tracking query parameters.
// Returns an empty string when the input is not a usable http(s) URL.
func (p *Parser) CleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;)")

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if u.Host == "" {
		return ""
	}

	q := u.Query()

	trackingParams := []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si", "ref"}
	for _, param := range trackingParams {
		q.Del(param)
	}

	u.RawQuery = q.Encode()

	return u.String()
}
