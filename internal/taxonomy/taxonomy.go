// package taxonomy maps free-text genre tags to a closed set of canonical categories.
package taxonomy

import "strings"

// Other is the fallback category when no tag matches the table.
const Other = "Other"

// entry pairs a lower-cased tag with its canonical category. The table is
// ordered: the first match wins, both for the exact pass and the substring
// pass. More specific tags sit above the broad ones they contain ("k-pop"
// before "pop").
type entry struct {
	tag      string
	category string
}

var table = []entry{
	{"k-pop", "K-Pop"},
	{"kpop", "K-Pop"},
	{"j-pop", "J-Pop"},
	{"jpop", "J-Pop"},
	{"hip hop", "Hip-Hop"},
	{"hip-hop", "Hip-Hop"},
	{"rap", "Hip-Hop"},
	{"trap", "Hip-Hop"},
	{"drill", "Hip-Hop"},
	{"r&b", "R&B"},
	{"rnb", "R&B"},
	{"soul", "R&B"},
	{"funk", "R&B"},
	{"synthpop", "Electronic"},
	{"electropop", "Electronic"},
	{"edm", "Electronic"},
	{"house", "Electronic"},
	{"techno", "Electronic"},
	{"trance", "Electronic"},
	{"dubstep", "Electronic"},
	{"drum and bass", "Electronic"},
	{"electronic", "Electronic"},
	{"electronica", "Electronic"},
	{"indie pop", "Indie"},
	{"indie rock", "Indie"},
	{"indie", "Indie"},
	{"alternative", "Indie"},
	{"metalcore", "Metal"},
	{"metal", "Metal"},
	{"punk", "Rock"},
	{"grunge", "Rock"},
	{"hard rock", "Rock"},
	{"classic rock", "Rock"},
	{"rock", "Rock"},
	{"reggaeton", "Latin"},
	{"latin", "Latin"},
	{"salsa", "Latin"},
	{"bachata", "Latin"},
	{"country", "Country"},
	{"bluegrass", "Country"},
	{"americana", "Country"},
	{"folk", "Folk"},
	{"acoustic", "Folk"},
	{"singer-songwriter", "Folk"},
	{"jazz", "Jazz"},
	{"blues", "Jazz"},
	{"swing", "Jazz"},
	{"classical", "Classical"},
	{"orchestra", "Classical"},
	{"opera", "Classical"},
	{"piano", "Classical"},
	{"lo-fi", "Ambient"},
	{"lofi", "Ambient"},
	{"chillout", "Ambient"},
	{"ambient", "Ambient"},
	{"reggae", "Reggae"},
	{"dancehall", "Reggae"},
	{"ska", "Reggae"},
	{"afrobeats", "Afrobeats"},
	{"afrobeat", "Afrobeats"},
	{"soundtrack", "Soundtrack"},
	{"score", "Soundtrack"},
	{"gospel", "Gospel"},
	{"christian", "Gospel"},
	{"worship", "Gospel"},
	{"dance pop", "Pop"},
	{"pop", "Pop"},
}

// Normalize derives exactly one canonical genre from a list of free-text tags.
//
// Matching is two passes over the static table: first exact match, then a
// substring scan, both evaluated in table order with the first match winning.
// Returns [Other] when no tag matches. Pure function: no state, no I/O.
func Normalize(tags []string) string {
	if len(tags) == 0 {
		return Other
	}

	lowered := make([]string, 0, len(tags))
	for _, tag := range tags {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(tag)))
	}

	for _, e := range table {
		for _, tag := range lowered {
			if tag == e.tag {
				return e.category
			}
		}
	}

	for _, e := range table {
		for _, tag := range lowered {
			if strings.Contains(tag, e.tag) {
				return e.category
			}
		}
	}

	return Other
}

// Categories returns the closed set of canonical categories in table order,
// ending with [Other].
func Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range table {
		if !seen[e.category] {
			seen[e.category] = true
			out = append(out, e.category)
		}
	}
	return append(out, Other)
}
