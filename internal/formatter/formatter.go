// package formatter provides functions to export sort results to various formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/mixflow/internal/engine"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/taxonomy"
)

// TrackRow is one exported track in final order.
type TrackRow struct {
	Position   int     `json:"position"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Genre      string  `json:"genre"`
	Popularity float64 `json:"popularity"`
}

// Document is the JSON export payload.
type Document struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     engine.Summary `json:"summary"`
	Tracks      []TrackRow     `json:"tracks"`
}

// Rows resolves the sorted order against the song set, producing export
// rows in final position order. IDs with no matching song are skipped.
func Rows(songs []models.Song, result *engine.SortResult) []TrackRow {
	byID := make(map[string]models.Song, len(songs))
	for _, song := range songs {
		byID[song.ID] = song
	}

	rows := make([]TrackRow, 0, len(result.SortedIDs))
	for i, id := range result.SortedIDs {
		song, ok := byID[id]
		if !ok {
			continue
		}
		rows = append(rows, TrackRow{
			Position:   i + 1,
			ID:         song.ID,
			Title:      song.Title,
			Artist:     song.Artist,
			Genre:      taxonomy.Normalize(song.Tags),
			Popularity: song.Popularity,
		})
	}
	return rows
}

// ExportToCSV converts a sort result to CSV format with columns: Position, ID, Title, Artist, Genre, Popularity
func ExportToCSV(songs []models.Song, result *engine.SortResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Genre", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(songs, result) {
		record := []string{
			strconv.Itoa(row.Position),
			row.ID,
			row.Title,
			row.Artist,
			row.Genre,
			strconv.FormatFloat(row.Popularity, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a sort result to a Markdown summary with the quality report and track list
func ExportToMarkdown(songs []models.Song, result *engine.SortResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Sorted Playlist\n\n")
	buf.WriteString(fmt.Sprintf("**Method**: %s\n", result.Summary.Method))
	buf.WriteString(fmt.Sprintf("**Timing**: %s\n", result.Summary.Timing.Round(time.Millisecond)))
	if result.Summary.Model != "" {
		buf.WriteString(fmt.Sprintf("**Model**: %s\n", result.Summary.Model))
	}
	if result.Summary.SwapsApplied > 0 {
		buf.WriteString(fmt.Sprintf("**Swaps applied**: %d\n", result.Summary.SwapsApplied))
	}
	buf.WriteString("\n## Quality\n\n")
	buf.WriteString(fmt.Sprintf("- Adjacent same-artist pairs: %d\n", result.Summary.Quality.AdjacentArtist))
	buf.WriteString(fmt.Sprintf("- Adjacent same-genre pairs: %d\n", result.Summary.Quality.AdjacentGenre))

	rows := Rows(songs, result)
	buf.WriteString(fmt.Sprintf("\n**Tracks**: %d\n\n", len(rows)))
	buf.WriteString("## Tracks\n\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s) [%.0f]\n", row.Position, row.Artist, row.Title, row.Genre, row.Popularity))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a sort result to an indented JSON document
func ExportToJSON(songs []models.Song, result *engine.SortResult) ([]byte, error) {
	doc := Document{
		GeneratedAt: time.Now(),
		Summary:     result.Summary,
		Tracks:      Rows(songs, result),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}
	return data, nil
}

// WriteExport exports a sort result to the named format and writes it to filepath.
//
// Defaults to "sorted.{ext}" when filepath is empty. Supported formats: json, csv, markdown.
func WriteExport(songs []models.Song, result *engine.SortResult, format, filepath string) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case "csv":
		data, err = ExportToCSV(songs, result)
		ext = "csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(songs, result)
		ext = "md"
	case "json", "":
		data, err = ExportToJSON(songs, result)
		ext = "json"
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", err
	}

	if filepath == "" {
		filepath = "sorted." + ext
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return filepath, nil
}
