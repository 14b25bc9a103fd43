package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheLookup resolves a single track through the identity cache.
func (r *Runner) CacheLookup(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	artist := cmd.String("artist")

	if r.cache == nil {
		return fmt.Errorf("%w: identity cache not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("resolving track: %s by %s", title, artist)

	targetID, err := r.cache.Lookup(ctx, title, artist)
	if err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			return r.writePlainln("No match found for %q by %q", title, artist)
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{
			"title":     title,
			"artist":    artist,
			"target_id": targetID,
		}, true)
	}

	return r.writePlainln("✓ %s by %s → %s", title, artist, targetID)
}

// CacheBatch resolves a songs file concurrently and prints the ID map.
func (r *Runner) CacheBatch(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: identity cache not initialized", shared.ErrServiceUnavailable)
	}

	songs, err := loadSongs(cmd.String("input"))
	if err != nil {
		return err
	}

	r.logger.Infof("resolving %d songs", len(songs))

	resolved, err := r.cache.BatchLookup(ctx, songs)
	if err != nil {
		return fmt.Errorf("batch lookup failed: %w", err)
	}

	if err := r.writeJSON(resolved, cmd.Bool("pretty")); err != nil {
		return err
	}

	return r.writePlain("✓ Resolved %d of %d songs\n", len(resolved), len(songs))
}

// CacheStats shows memory-tier occupancy and the configured limits.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: identity cache not initialized", shared.ErrServiceUnavailable)
	}

	return r.writeJSON(map[string]any{
		"entries":     r.cache.Size(),
		"max_entries": r.config.Cache.MaxEntries,
		"ttl_secs":    r.config.Cache.TTLSecs,
	}, true)
}
