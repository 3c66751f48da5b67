// Package fuzzy provides text normalization and similarity scoring for
// comparing track metadata across streaming catalogs.
package fuzzy

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(?:feat\.?|ft\.?|featuring|with)\s+[^\)\]]*[\)\]]?\s*`)
	noiseRegex      = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(?:remaster(?:ed)?(?:\s+\d{4})?|\d{4}\s+remaster(?:ed)?|deluxe(?:\s+edition)?|bonus track|radio edit|single version|album version|explicit|clean)\s*[\)\]]?\s*`)
	bracketRegex    = regexp.MustCompile(`[\(\)\[\]]`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Duration comparison window. Catalogs routinely disagree by a few seconds
// on the same master; anything beyond half a minute is a different cut.
const (
	durationSlack  = 5 * time.Second
	durationCutoff = 30 * time.Second
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeTitle canonicalizes a track title for comparison. Featured-artist
// credits and mastering noise are dropped, but remix and version words are
// kept: "Song (Club Remix)" must not collapse into "Song".
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featRegex.ReplaceAllString(title, " ")
	title = noiseRegex.ReplaceAllString(title, " ")
	title = bracketRegex.ReplaceAllString(title, " ")

	return n.basicNormalize(title)
}

// NormalizeArtist canonicalizes an artist name for comparison.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)

	artist = strings.ReplaceAll(artist, " and ", " ")
	artist = strings.ReplaceAll(artist, " x ", " ")
	artist = strings.ReplaceAll(artist, " vs ", " ")

	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(artist), " ")
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// Similarity scores two already-normalized strings in [0, 1]. It takes the
// better of a subsequence ratio (robust to small edits) and a token overlap
// ratio (robust to word reordering, "Artist A & Artist B" vs "Artist B,
// Artist A").
func (n *Normalizer) Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		if len(s1) == 0 {
			return 0.0
		}
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	lcs := float64(n.longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
	tokens := n.tokenOverlap(s1, s2)

	if tokens > lcs {
		return tokens
	}
	return lcs
}

func (n *Normalizer) tokenOverlap(s1, s2 string) float64 {
	set1 := make(map[string]struct{})
	for _, t := range strings.Fields(s1) {
		set1[t] = struct{}{}
	}
	set2 := make(map[string]struct{})
	for _, t := range strings.Fields(s2) {
		set2[t] = struct{}{}
	}

	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	common := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			common++
		}
	}

	union := len(set1) + len(set2) - common
	return float64(common) / float64(union)
}

func (n *Normalizer) longestCommonSubsequence(s1, s2 string) int {
	m, l := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, l+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= l; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][l]
}

// DurationScore scores how well two track durations agree, in [0, 1].
// Differences within the slack get full credit, differences beyond the
// cutoff get none, with a linear falloff in between. Unknown durations
// (zero) score a neutral 0.5 so they neither confirm nor veto a match.
func (n *Normalizer) DurationScore(d1, d2 time.Duration) float64 {
	if d1 == 0 || d2 == 0 {
		return 0.5
	}

	diff := d1 - d2
	if diff < 0 {
		diff = -diff
	}

	if diff <= durationSlack {
		return 1.0
	}
	if diff >= durationCutoff {
		return 0.0
	}

	return 1.0 - float64(diff-durationSlack)/float64(durationCutoff-durationSlack)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
