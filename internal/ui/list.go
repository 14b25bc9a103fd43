package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixflow/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps an [models.EnrichedSong] to implement [list.Item].
type songItem struct {
	position int
	song     models.EnrichedSong
}

func (i songItem) FilterValue() string { return i.song.Title }

func (i songItem) Title() string {
	return fmt.Sprintf("%d. %s", i.position, i.song.Title)
}

func (i songItem) Description() string {
	return fmt.Sprintf("%s • %s • pop %.0f", i.song.Artist, i.song.CanonicalGenre, i.song.Popularity)
}
