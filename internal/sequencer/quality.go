package sequencer

import (
	"github.com/desertthunder/mixflow/internal/models"
)

// QualityReport counts listening-flow violations in a final order.
type QualityReport struct {
	AdjacentArtist int `json:"adjacent_artist"` // Pairs of neighboring songs by the same artist
	AdjacentGenre  int `json:"adjacent_genre"`  // Pairs of neighboring songs in the same canonical genre
}

// Quality evaluates an ordering against the source songs.
//
// Unknown identifiers in the order are skipped rather than counted, so a
// report on a truncated or foreign order never panics.
func Quality(songs []models.Song, order []string) QualityReport {
	byID := make(map[string]models.EnrichedSong, len(songs))
	for _, song := range Enrich(songs) {
		byID[song.ID] = song
	}

	var report QualityReport
	var prev *models.EnrichedSong
	for _, id := range order {
		song, ok := byID[id]
		if !ok {
			continue
		}
		if prev != nil {
			if prev.Artist == song.Artist {
				report.AdjacentArtist++
			}
			if prev.CanonicalGenre == song.CanonicalGenre {
				report.AdjacentGenre++
			}
		}
		prev = &song
	}
	return report
}
