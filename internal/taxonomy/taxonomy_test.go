package taxonomy

import "testing"

func TestNormalize(t *testing.T) {
	tc := []struct {
		name string
		tags []string
		want string
	}{
		{
			name: "empty tags default to Other",
			tags: nil,
			want: Other,
		},
		{
			name: "exact match",
			tags: []string{"k-pop"},
			want: "K-Pop",
		},
		{
			name: "exact match wins over substring",
			tags: []string{"dance pop"},
			want: "Pop",
		},
		{
			name: "substring match",
			tags: []string{"korean k-pop girl group"},
			want: "K-Pop",
		},
		{
			name: "table order resolves ambiguity",
			tags: []string{"k-pop", "pop"},
			want: "K-Pop",
		},
		{
			name: "case and whitespace insensitive",
			tags: []string{"  Hip Hop  "},
			want: "Hip-Hop",
		},
		{
			name: "unknown tags fall through",
			tags: []string{"polka", "zydeco"},
			want: Other,
		},
		{
			name: "first matching tag in table order",
			tags: []string{"something weird", "classic rock"},
			want: "Rock",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.tags); got != tt.want {
				t.Errorf("Normalize(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}

	t.Run("deterministic across calls", func(t *testing.T) {
		tags := []string{"synthpop", "indie"}
		first := Normalize(tags)
		for i := 0; i < 10; i++ {
			if got := Normalize(tags); got != first {
				t.Fatalf("expected stable result, got %q then %q", first, got)
			}
		}
	})
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("expected non-empty category set")
	}
	if cats[len(cats)-1] != Other {
		t.Errorf("expected %q as final category, got %q", Other, cats[len(cats)-1])
	}

	seen := make(map[string]bool)
	for _, c := range cats {
		if seen[c] {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = true
	}

	for _, e := range table {
		if !seen[e.category] {
			t.Errorf("table category %q missing from Categories()", e.category)
		}
	}
}
