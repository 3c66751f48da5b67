package tracklink

import (
	"testing"
)

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantSvc   Service
		wantTrack string
	}{
		{
			name:      "Spotify link",
			input:     "check this https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantOK:    true,
			wantSvc:   ServiceSpotify,
			wantTrack: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:      "Spotify link with share token",
			input:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=f81abcd1234",
			wantOK:    true,
			wantSvc:   ServiceSpotify,
			wantTrack: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:      "Spotify link with locale segment",
			input:     "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			wantOK:    true,
			wantSvc:   ServiceSpotify,
			wantTrack: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:      "Spotify URI",
			input:     "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			wantOK:    true,
			wantSvc:   ServiceSpotify,
			wantTrack: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:      "TIDAL browse link",
			input:     "https://tidal.com/browse/track/77646170",
			wantOK:    true,
			wantSvc:   ServiceTidal,
			wantTrack: "77646170",
		},
		{
			name:      "TIDAL listen link",
			input:     "listen to https://listen.tidal.com/track/77646170 please",
			wantOK:    true,
			wantSvc:   ServiceTidal,
			wantTrack: "77646170",
		},
		{
			name:   "TIDAL album link is not a track",
			input:  "https://tidal.com/browse/album/77646169",
			wantOK: false,
		},
		{
			name:   "Plain text",
			input:  "what a banger",
			wantOK: false,
		},
		{
			name:   "Unrelated URL",
			input:  "https://example.com/track/123",
			wantOK: false,
		},
		{
			name:      "First link wins",
			input:     "https://tidal.com/browse/track/1 https://open.spotify.com/track/abc123",
			wantOK:    true,
			wantSvc:   ServiceTidal,
			wantTrack: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, ok := parser.Parse(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Parse() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if link.Service != tt.wantSvc {
				t.Errorf("Parse() service = %q, want %q", link.Service, tt.wantSvc)
			}
			if link.TrackID != tt.wantTrack {
				t.Errorf("Parse() track ID = %q, want %q", link.TrackID, tt.wantTrack)
			}
		})
	}
}

func BenchmarkParser_Parse(b *testing.B) {
	parser := NewParser()
	msg := "have you heard https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=f81abcd1234 yet?"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		parser.Parse(msg)
	}
}
