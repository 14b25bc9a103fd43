// Package engine orchestrates the full sort pipeline: genre
// normalization, heuristic ordering, and optional model verification.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/sequencer"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/telemetry"
	"github.com/desertthunder/mixflow/internal/verify"
)

// Method tags recorded on every sort result.
const (
	// MethodForced marks sorts where the caller disabled verification.
	MethodForced = "heuristic-forced"
	// MethodVerified marks sorts the ranking model accepted as-is.
	MethodVerified = "heuristic+ai-verified"
	// MethodImproved marks sorts adjusted by ranking model swaps.
	MethodImproved = "heuristic+ai-improved"
	// MethodDegraded marks sorts where verification was attempted but
	// unavailable, the heuristic order stands.
	MethodDegraded = "heuristic-degraded"
)

// Options adjusts a single sort.
type Options struct {
	// SkipAI skips verification entirely.
	SkipAI bool
	// SkipQueue fails verification fast instead of waiting for an
	// admission slot.
	SkipQueue bool
}

// Summary describes how a sort result was produced.
type Summary struct {
	Method       string                  `json:"method"`
	Timing       time.Duration           `json:"timing"`
	Quality      sequencer.QualityReport `json:"quality"`
	SwapsApplied int                     `json:"swaps_applied,omitempty"`
	Model        string                  `json:"model,omitempty"`
}

// SortResult is the outcome of one SmartSort run.
type SortResult struct {
	SortedIDs []string `json:"sorted_ids"`
	Summary   Summary  `json:"summary"`
}

// Verifier checks a heuristic order against the ranking models.
// [verify.Verifier] satisfies it.
type Verifier interface {
	Verify(ctx context.Context, songs []models.EnrichedSong, order []string, opts verify.Options) verify.Outcome
}

// SortEngine is the public entry point for adaptive song sequencing.
type SortEngine struct {
	sequencer *sequencer.Sequencer
	verifier  Verifier
	logger    *log.Logger

	sorts    atomic.Uint64
	degraded atomic.Uint64
}

// New creates a SortEngine. The verifier may be nil, in which case all
// sorts run heuristic-only.
func New(seq *sequencer.Sequencer, verifier Verifier, logger *log.Logger) *SortEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SortEngine{
		sequencer: seq,
		verifier:  verifier,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SortEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// SmartSort produces the final ordering for a set of songs. The
// heuristic baseline always succeeds, verification only upgrades it, so
// no provider or queue condition can fail a sort.
func (e *SortEngine) SmartSort(ctx context.Context, songs []models.Song, progress chan<- ProgressUpdate, opts Options) (*SortResult, error) {
	start := time.Now()
	e.sorts.Add(1)

	e.sendProgress(progress, normalizeUpdate(len(songs)))
	enriched := sequencer.Enrich(songs)

	e.sendProgress(progress, arrangeUpdate(len(songs)))
	order := e.sequencer.Sequence(songs)

	method := MethodForced
	var outcome verify.Outcome
	if !opts.SkipAI && e.verifier != nil && len(order) > 0 {
		e.sendProgress(progress, verifyUpdate())
		outcome = e.verifier.Verify(ctx, enriched, order, verify.Options{SkipQueue: opts.SkipQueue})

		switch outcome.Status {
		case verify.StatusVerified:
			method = MethodVerified
		case verify.StatusImproved:
			method = MethodImproved
			order = outcome.Order
		case verify.StatusUnavailable:
			method = MethodDegraded
			e.degraded.Add(1)
		}
	}

	result := &SortResult{
		SortedIDs: order,
		Summary: Summary{
			Method:       method,
			Timing:       time.Since(start),
			Quality:      sequencer.Quality(songs, order),
			SwapsApplied: outcome.SwapsApplied,
			Model:        outcome.Model,
		},
	}

	telemetry.SortsTotal.WithLabelValues(method).Inc()
	e.logger.Info("sort complete",
		"songs", len(songs),
		"method", method,
		"timing", result.Summary.Timing,
		"adjacent_artist", result.Summary.Quality.AdjacentArtist,
		"adjacent_genre", result.Summary.Quality.AdjacentGenre,
	)
	e.sendProgress(progress, finalizeUpdate(method, result))
	return result, nil
}

// DegradedRate reports the fraction of sorts that fell back to the
// heuristic order after attempting verification. Feeds the health
// reporter's error-rate signal.
func (e *SortEngine) DegradedRate() float64 {
	sorts := e.sorts.Load()
	if sorts == 0 {
		return 0
	}
	return float64(e.degraded.Load()) / float64(sorts)
}
