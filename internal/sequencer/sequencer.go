// package sequencer implements the deterministic baseline ordering for song collections.
//
// The sequencer is the engine's only hard dependency: it is pure, synchronous,
// always succeeds, and is deterministic for a fixed seed. Popularity tiering
// keeps the hits up front while constraint-aware interleaving spreads artists
// and genres apart.
package sequencer

import (
	"math/rand"
	"sort"
	"time"

	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/taxonomy"
)

// Placement scoring weights. Adjacency penalties dominate so a repeat is
// only chosen when the pool offers nothing else.
const (
	artistRepeatPenalty  = 1000
	artistNearPenalty    = 100
	genreRepeatPenalty   = 500
	genreNearPenalty     = 50
	artistNoveltyBonus   = 10
	genreNoveltyBonus    = 5
	historyWindow        = 3
	defaultPercentile    = 0.8
	minInsertionInterval = 2
)

// Config tunes the sequencer.
type Config struct {
	// PopularPercentile is the popularity cutoff fraction for the popular
	// tier (0.8 means the top 20% of songs by popularity).
	PopularPercentile float64
	// Seed drives the regular-tier shuffle. Zero seeds from the clock,
	// matching production behavior; tests pass a fixed seed.
	Seed int64
}

// Sequencer produces a baseline ordering for a song collection.
type Sequencer struct {
	percentile float64
	rng        *rand.Rand
}

// New creates a Sequencer from the given config.
func New(cfg Config) *Sequencer {
	percentile := cfg.PopularPercentile
	if percentile <= 0 || percentile >= 1 {
		percentile = defaultPercentile
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Sequencer{
		percentile: percentile,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Sequence returns the identifiers of songs in listening order.
//
// The result is always a permutation of the input identifiers. Zero songs
// yield an empty slice, one song a single-element slice.
func (s *Sequencer) Sequence(songs []models.Song) []string {
	if len(songs) == 0 {
		return []string{}
	}
	if len(songs) == 1 {
		return []string{songs[0].ID}
	}

	enriched := Enrich(songs)

	popular, regular := s.split(enriched)

	// Popular tier plays descending by popularity; ties keep input order.
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Popularity > popular[j].Popularity
	})

	// Shuffle the regular tier so it does not always play in ingestion order.
	s.rng.Shuffle(len(regular), func(i, j int) {
		regular[i], regular[j] = regular[j], regular[i]
	})

	popular = interleave(popular)
	regular = interleave(regular)

	merged := merge(popular, regular)

	ids := make([]string, len(merged))
	for i, song := range merged {
		ids[i] = song.ID
	}
	return ids
}

// Enrich derives the canonical genre for every song.
func Enrich(songs []models.Song) []models.EnrichedSong {
	enriched := make([]models.EnrichedSong, len(songs))
	for i, song := range songs {
		enriched[i] = models.EnrichedSong{
			Song:           song,
			CanonicalGenre: taxonomy.Normalize(song.Tags),
		}
	}
	return enriched
}

// split partitions songs into popular and regular tiers around the
// configured popularity percentile. Songs at or above the cutoff value are
// popular.
func (s *Sequencer) split(songs []models.EnrichedSong) (popular, regular []models.EnrichedSong) {
	values := make([]float64, len(songs))
	for i, song := range songs {
		values[i] = song.Popularity
	}
	sort.Float64s(values)

	idx := int(float64(len(values)) * s.percentile)
	if idx >= len(values) {
		idx = len(values) - 1
	}
	cutoff := values[idx]

	for _, song := range songs {
		if song.Popularity >= cutoff {
			popular = append(popular, song)
		} else {
			regular = append(regular, song)
		}
	}
	return popular, regular
}

// interleave greedily reorders a tier so adjacent artist and genre repeats
// are minimized. It tracks the last three placed artists and genres and
// repeatedly appends the highest-scoring remaining song. Greedy and
// non-backtracking: when one artist dominates the pool the score goes
// negative but a song is always placed.
func interleave(pool []models.EnrichedSong) []models.EnrichedSong {
	if len(pool) <= 1 {
		return pool
	}

	remaining := make([]models.EnrichedSong, len(pool))
	copy(remaining, pool)

	placed := make([]models.EnrichedSong, 0, len(pool))
	var artists, genres []string

	for len(remaining) > 0 {
		best := 0
		bestScore := placementScore(remaining[0], artists, genres)
		for i := 1; i < len(remaining); i++ {
			if score := placementScore(remaining[i], artists, genres); score > bestScore {
				best, bestScore = i, score
			}
		}

		song := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		placed = append(placed, song)

		artists = pushWindow(artists, song.Artist)
		genres = pushWindow(genres, song.CanonicalGenre)
	}

	return placed
}

// placementScore scores a candidate against the sliding windows of recently
// placed artists and genres. Higher is better.
func placementScore(song models.EnrichedSong, artists, genres []string) float64 {
	score := 0.0

	if n := len(artists); n > 0 {
		if artists[n-1] == song.Artist {
			score -= artistRepeatPenalty
		}
		if n > 1 && artists[n-2] == song.Artist {
			score -= artistNearPenalty
		}
	}
	if n := len(genres); n > 0 {
		if genres[n-1] == song.CanonicalGenre {
			score -= genreRepeatPenalty
		}
		if n > 1 && genres[n-2] == song.CanonicalGenre {
			score -= genreNearPenalty
		}
	}

	if !contains(artists, song.Artist) {
		score += artistNoveltyBonus
	}
	if !contains(genres, song.CanonicalGenre) {
		score += genreNoveltyBonus
	}

	// Popularity breaks ties between otherwise equal candidates.
	return score + song.Popularity/100
}

func pushWindow(window []string, v string) []string {
	window = append(window, v)
	if len(window) > historyWindow {
		window = window[1:]
	}
	return window
}

func contains(window []string, v string) bool {
	for _, w := range window {
		if w == v {
			return true
		}
	}
	return false
}

// merge spreads the regular tier evenly across the popular tier: one regular
// song after every interval popular songs, leftovers appended at the end.
func merge(popular, regular []models.EnrichedSong) []models.EnrichedSong {
	if len(popular) == 0 {
		return regular
	}
	if len(regular) == 0 {
		return popular
	}

	interval := len(popular) / len(regular)
	if interval < minInsertionInterval {
		interval = minInsertionInterval
	}

	merged := make([]models.EnrichedSong, 0, len(popular)+len(regular))
	ri := 0
	for i, song := range popular {
		merged = append(merged, song)
		if (i+1)%interval == 0 && ri < len(regular) {
			merged = append(merged, regular[ri])
			ri++
		}
	}
	merged = append(merged, regular[ri:]...)

	return merged
}
