package match

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"trackbridge/internal/core"
)

func testTrack(provider core.Provider, id, title string, artists []string, duration time.Duration, isrc string) *core.Track {
	return &core.Track{
		ID:       core.ProviderID{Provider: provider, ID: id},
		Title:    title,
		Artists:  artists,
		Duration: duration,
		ISRC:     isrc,
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(0.7, zap.NewNop())

	source := testTrack(core.ProviderSpotify, "src", "Get Lucky", []string{"Daft Punk", "Pharrell Williams"}, 4*time.Minute+8*time.Second, "USQX91300809")

	tests := []struct {
		name      string
		candidate *core.Track
		min       float64
		max       float64
	}{
		{
			name:      "ISRC match is certain",
			candidate: testTrack(core.ProviderTidal, "c1", "Different Title Entirely", nil, 0, "USQX91300809"),
			min:       1.0,
			max:       1.0,
		},
		{
			name:      "Identical metadata scores high",
			candidate: testTrack(core.ProviderTidal, "c2", "Get Lucky", []string{"Daft Punk", "Pharrell Williams"}, 4*time.Minute+8*time.Second, ""),
			min:       0.99,
			max:       1.0,
		},
		{
			name:      "Reordered artists still score high",
			candidate: testTrack(core.ProviderTidal, "c3", "Get Lucky", []string{"Pharrell Williams", "Daft Punk"}, 4*time.Minute+10*time.Second, ""),
			min:       0.85,
			max:       1.0,
		},
		{
			name:      "Remix is a different track",
			candidate: testTrack(core.ProviderTidal, "c4", "Get Lucky (Daft Punk Remix)", []string{"Daft Punk"}, 6*time.Minute, ""),
			min:       0.0,
			max:       0.7,
		},
		{
			name:      "Unrelated track scores low",
			candidate: testTrack(core.ProviderTidal, "c5", "Bohemian Rhapsody", []string{"Queen"}, 5*time.Minute+55*time.Second, ""),
			min:       0.0,
			max:       0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scorer.Score(source, tt.candidate)
			if score < tt.min || score > tt.max {
				t.Errorf("Score() = %f, want in [%f, %f]", score, tt.min, tt.max)
			}
		})
	}
}

func TestScorer_Best(t *testing.T) {
	scorer := NewScorer(0.7, zap.NewNop())

	source := testTrack(core.ProviderSpotify, "src", "Instant Crush", []string{"Daft Punk", "Julian Casablancas"}, 5*time.Minute+37*time.Second, "")

	t.Run("Picks the best candidate above threshold", func(t *testing.T) {
		exact := testTrack(core.ProviderTidal, "exact", "Instant Crush", []string{"Daft Punk", "Julian Casablancas"}, 5*time.Minute+37*time.Second, "")
		candidates := []*core.Track{
			testTrack(core.ProviderTidal, "cover", "Instant Crush (Acoustic Cover)", []string{"Somebody Else"}, 4*time.Minute, ""),
			exact,
		}

		best, confidence, ok := scorer.Best(source, candidates)
		if !ok {
			t.Fatalf("Best() ok = false, want true")
		}
		if best.ID.ID != "exact" {
			t.Errorf("Best() picked %q, want %q", best.ID.ID, "exact")
		}
		if confidence < 0.99 {
			t.Errorf("Best() confidence = %f, want >= 0.99", confidence)
		}
	})

	t.Run("Below threshold yields no match", func(t *testing.T) {
		candidates := []*core.Track{
			testTrack(core.ProviderTidal, "wrong", "Around the World", []string{"Daft Punk"}, 7*time.Minute, ""),
		}

		_, _, ok := scorer.Best(source, candidates)
		if ok {
			t.Errorf("Best() ok = true, want false")
		}
	})

	t.Run("Empty candidate list yields no match", func(t *testing.T) {
		_, _, ok := scorer.Best(source, nil)
		if ok {
			t.Errorf("Best() ok = true, want false")
		}
	})

	t.Run("Radio edit variant wins among decoys", func(t *testing.T) {
		oneMoreTime := testTrack(core.ProviderSpotify, "src2", "One More Time", []string{"Daft Punk"}, 320*time.Second, "")
		radioEdit := testTrack(core.ProviderTidal, "edit", "One More Time (Radio Edit)", []string{"Daft Punk"}, 318*time.Second, "")
		candidates := []*core.Track{
			testTrack(core.ProviderTidal, "decoy1", "One More Night", []string{"Maroon 5"}, 3*time.Minute+39*time.Second, ""),
			radioEdit,
			testTrack(core.ProviderTidal, "decoy2", "Around the World", []string{"Daft Punk"}, 7*time.Minute+9*time.Second, ""),
		}

		best, confidence, ok := scorer.Best(oneMoreTime, candidates)
		if !ok {
			t.Fatalf("Best() ok = false, want true")
		}
		if best.ID.ID != "edit" {
			t.Errorf("Best() picked %q, want %q", best.ID.ID, "edit")
		}
		// "(Radio Edit)" is mastering noise and the durations agree within
		// the slack, so the scores collapse to a full-confidence match.
		if confidence < 0.99 {
			t.Errorf("Best() confidence = %f, want >= 0.99", confidence)
		}
	})

	t.Run("Equal scores break tie on duration", func(t *testing.T) {
		near := testTrack(core.ProviderTidal, "near", "Instant Crush", []string{"Daft Punk", "Julian Casablancas"}, 5*time.Minute+37*time.Second, "")
		far := testTrack(core.ProviderTidal, "far", "Instant Crush", []string{"Daft Punk", "Julian Casablancas"}, 5*time.Minute+39*time.Second, "")

		// Both within the duration slack, identical text: same score.
		best, _, ok := scorer.Best(source, []*core.Track{far, near})
		if !ok {
			t.Fatalf("Best() ok = false, want true")
		}
		if best.ID.ID != "near" {
			t.Errorf("Best() picked %q, want %q", best.ID.ID, "near")
		}
	})
}
