// Package match scores candidate tracks against a source track to decide
// whether they are the same recording.
package match

import (
	"sort"

	"go.uber.org/zap"

	"trackbridge/internal/core"
	"trackbridge/pkg/fuzzy"
)

// Signal weights. Title carries the most evidence, artist credits nearly as
// much, duration breaks the remaining ambiguity.
const (
	titleWeight    = 0.5
	artistWeight   = 0.35
	durationWeight = 0.15
)

type Scorer struct {
	threshold  float64
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

func NewScorer(threshold float64, logger *zap.Logger) *Scorer {
	return &Scorer{
		threshold:  threshold,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// Score computes the match confidence between a source track and a
// candidate, in [0, 1]. Equal ISRCs identify the same recording and
// short-circuit to full confidence.
func (s *Scorer) Score(source, candidate *core.Track) float64 {
	if source.ISRC != "" && source.ISRC == candidate.ISRC {
		return 1.0
	}

	titleScore := s.normalizer.Similarity(
		s.normalizer.NormalizeTitle(source.Title),
		s.normalizer.NormalizeTitle(candidate.Title),
	)
	artistScore := s.artistSimilarity(source.Artists, candidate.Artists)
	durationScore := s.normalizer.DurationScore(source.Duration, candidate.Duration)

	return titleWeight*titleScore + artistWeight*artistScore + durationWeight*durationScore
}

// Best returns the highest-confidence candidate at or above the threshold.
// Scoring is deterministic: ties go to the candidate with the closest
// duration, then to the earlier position in the candidate list.
func (s *Scorer) Best(source *core.Track, candidates []*core.Track) (*core.Track, float64, bool) {
	if len(candidates) == 0 {
		return nil, 0, false
	}

	type scored struct {
		track *core.Track
		score float64
		index int
	}

	ranked := make([]scored, 0, len(candidates))
	for i, candidate := range candidates {
		ranked = append(ranked, scored{
			track: candidate,
			score: s.Score(source, candidate),
			index: i,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		di := durationDiff(source, ranked[i].track)
		dj := durationDiff(source, ranked[j].track)
		if di != dj {
			return di < dj
		}
		return ranked[i].index < ranked[j].index
	})

	best := ranked[0]

	s.logger.Debug("Scored candidates",
		zap.String("source", source.ID.String()),
		zap.Int("candidates", len(candidates)),
		zap.String("best", best.track.ID.String()),
		zap.Float64("confidence", best.score))

	if best.score < s.threshold {
		return nil, best.score, false
	}

	return best.track, best.score, true
}

func (s *Scorer) artistSimilarity(source, candidate []string) float64 {
	if len(source) == 0 || len(candidate) == 0 {
		return 0.0
	}

	// Primary credit against primary credit, but accept a strong hit
	// anywhere in the candidate list: catalogs disagree on credit order
	// for collaborations.
	best := 0.0
	normalizedSource := s.normalizer.NormalizeArtist(joinArtists(source))
	for _, joined := range []string{joinArtists(candidate), candidate[0]} {
		score := s.normalizer.Similarity(normalizedSource, s.normalizer.NormalizeArtist(joined))
		if score > best {
			best = score
		}
	}

	primary := s.normalizer.Similarity(
		s.normalizer.NormalizeArtist(source[0]),
		s.normalizer.NormalizeArtist(candidate[0]),
	)
	if primary > best {
		best = primary
	}

	return best
}

func joinArtists(artists []string) string {
	joined := ""
	for i, artist := range artists {
		if i > 0 {
			joined += " "
		}
		joined += artist
	}
	return joined
}

func durationDiff(source, candidate *core.Track) int64 {
	diff := int64(source.Duration - candidate.Duration)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
