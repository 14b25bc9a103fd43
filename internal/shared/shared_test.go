package shared

import "testing"

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "artist name:song title",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "artist name:song title",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "artist name:song title",
		},
		{
			name:   "punctuation stripped",
			title:  "Don't Stop Me Now!",
			artist: "Queen",
			want:   "queen:dont stop me now",
		},
		{
			name:   "parenthetical survives without parens",
			title:  "Song (Remastered 2011)",
			artist: "A.C.E",
			want:   "ace:song remastered 2011",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("pure function", func(t *testing.T) {
		first := NormalizeTrackKey("Same Input", "Same Artist")
		for i := 0; i < 5; i++ {
			if got := NormalizeTrackKey("Same Input", "Same Artist"); got != first {
				t.Fatalf("expected stable output, got %q then %q", first, got)
			}
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Error("expected unique IDs")
	}
}
