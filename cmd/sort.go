package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/mixflow/internal/engine"
	"github.com/desertthunder/mixflow/internal/formatter"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/sequencer"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sort loads a songs file, runs the sequencing engine, and writes the
// result as JSON or an export file.
func (r *Runner) Sort(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: sort engine not initialized", shared.ErrServiceUnavailable)
	}

	songs, err := loadSongs(cmd.String("input"))
	if err != nil {
		return err
	}

	eng := r.engine
	if seed := int64(cmd.Int("seed")); seed != 0 {
		seq := sequencer.New(sequencer.Config{
			PopularPercentile: r.config.Sequencer.PopularPercentile,
			Seed:              seed,
		})
		eng = engine.New(seq, r.verifier, r.logger)
	}

	opts := engine.Options{
		SkipAI:    cmd.Bool("skip-ai"),
		SkipQueue: cmd.Bool("skip-queue"),
	}

	r.logger.Info("sorting songs", "count", len(songs))

	result, err := eng.SmartSort(ctx, songs, nil, opts)
	if err != nil {
		return fmt.Errorf("sort failed: %w", err)
	}

	if format := cmd.String("format"); format != "" {
		path, err := formatter.WriteExport(songs, result, format, cmd.String("output"))
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("✓ Sorted %d songs (%s), written to %s\n", len(result.SortedIDs), result.Summary.Method, path)
	}

	return r.writeJSON(result, cmd.Bool("pretty"))
}

// loadSongs reads a JSON array of songs from disk.
func loadSongs(path string) ([]models.Song, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: songs file path is required", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read songs file: %w", err)
	}

	var songs []models.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse songs file: %w", err)
	}

	return songs, nil
}
