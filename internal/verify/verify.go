// Package verify checks heuristic orderings against an external ranking
// model, falling back to a cheaper model and degrading gracefully when
// the provider is unreachable.
package verify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/services"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/telemetry"
	"github.com/desertthunder/mixflow/internal/vqueue"
)

const (
	// sampleHead is how many leading positions are always included in the
	// sample sent to the ranker.
	sampleHead = 50
	// sampleRandom is how many additional positions are drawn at random
	// from the remainder of the order.
	sampleRandom = 20
	// sampleCap bounds the total sample size.
	sampleCap = 70
	// maxSwaps bounds how many reorderings a single response may apply.
	maxSwaps = 5
	// maxRateLimitRetries is the number of retries after a rate-limited
	// call before the model is treated as timed out.
	maxRateLimitRetries = 3
)

// Status describes how a verification round concluded.
type Status int

const (
	// StatusVerified means the ranker accepted the order as-is.
	StatusVerified Status = iota
	// StatusImproved means the ranker suggested swaps that were applied.
	StatusImproved
	// StatusUnavailable means no usable answer was obtained and the
	// heuristic order stands.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusImproved:
		return "improved"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome is the result of one verification round.
type Outcome struct {
	Status Status
	// Order is the final track ordering. When swaps were applied it
	// differs from the input, otherwise it is the input order.
	Order []string
	// SwapsApplied counts reorderings taken from the ranker response.
	SwapsApplied int
	// Model names the model that produced the answer, empty when
	// unavailable.
	Model string
}

// Submitter admits verification work through an admission-controlled
// queue. [vqueue.Queue] satisfies it.
type Submitter interface {
	Submit(ctx context.Context, opts vqueue.SubmitOptions, fn func(context.Context) error) error
}

// Config carries the model tiers and their call budgets.
type Config struct {
	PrimaryModel    string
	FallbackModel   string
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration
	// Seed fixes the random sample draw. Zero seeds from the clock.
	Seed int64
}

// Options adjusts a single verification round.
type Options struct {
	// SkipQueue fails fast instead of waiting for an admission slot.
	SkipQueue bool
}

// Verifier coordinates tiered ranking calls behind the admission queue.
type Verifier struct {
	ranker      services.Ranker
	queue       Submitter
	alerter     vqueue.Alerter
	cfg         Config
	logger      *log.Logger
	backoffBase time.Duration
}

// New builds a Verifier. The alerter may be nil when quota alerts are
// not wanted.
func New(ranker services.Ranker, queue Submitter, alerter vqueue.Alerter, cfg Config, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Verifier{
		ranker:      ranker,
		queue:       queue,
		alerter:     alerter,
		cfg:         cfg,
		logger:      logger,
		backoffBase: 2 * time.Second,
	}
}

// Verify submits the ordering for ranking and returns the possibly
// adjusted order. Verification never fails the caller, a degraded round
// reports [StatusUnavailable] and returns the input order untouched.
func (v *Verifier) Verify(ctx context.Context, songs []models.EnrichedSong, order []string, opts Options) Outcome {
	sample := v.buildSample(songs, order)
	if len(sample) == 0 {
		return Outcome{Status: StatusUnavailable, Order: order}
	}

	var resp *services.RankResponse
	var model string
	err := v.queue.Submit(ctx, vqueue.SubmitOptions{SkipQueue: opts.SkipQueue}, func(ctx context.Context) error {
		var rankErr error
		resp, model, rankErr = v.rank(ctx, sample)
		return rankErr
	})
	if err != nil {
		v.classifyFailure(err)
		v.logger.Warn("verification degraded", "error", err)
		return Outcome{Status: StatusUnavailable, Order: order}
	}

	if resp.Acceptable || len(resp.Swaps) == 0 {
		return Outcome{Status: StatusVerified, Order: order, Model: model}
	}

	adjusted, applied := applySwaps(order, sample, resp.Swaps, v.logger)
	if applied == 0 {
		return Outcome{Status: StatusVerified, Order: order, Model: model}
	}
	return Outcome{Status: StatusImproved, Order: adjusted, SwapsApplied: applied, Model: model}
}

// rank tries the primary model first and falls back to the cheaper tier
// when the primary times out or errors. Quota exhaustion is terminal
// for both tiers.
func (v *Verifier) rank(ctx context.Context, sample []services.SampleEntry) (*services.RankResponse, string, error) {
	resp, err := v.callModel(ctx, v.cfg.PrimaryModel, v.cfg.PrimaryTimeout, sample)
	if err == nil {
		return resp, v.cfg.PrimaryModel, nil
	}
	if errors.Is(err, shared.ErrQuotaExhausted) {
		return nil, "", err
	}

	v.logger.Warn("primary ranking model failed, trying fallback",
		"model", v.cfg.PrimaryModel, "fallback", v.cfg.FallbackModel, "error", err)
	resp, err = v.callModel(ctx, v.cfg.FallbackModel, v.cfg.FallbackTimeout, sample)
	if err != nil {
		return nil, "", err
	}
	return resp, v.cfg.FallbackModel, nil
}

// callModel invokes one model tier, retrying rate-limited calls with
// exponential backoff before treating the tier as timed out.
func (v *Verifier) callModel(ctx context.Context, model string, timeout time.Duration, sample []services.SampleEntry) (*services.RankResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := v.ranker.Rank(ctx, model, timeout, sample)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, shared.ErrRateLimited) {
			return nil, err
		}
		if attempt >= maxRateLimitRetries {
			return nil, fmt.Errorf("%w: %s rate limited after %d attempts", shared.ErrTimeout, model, attempt+1)
		}

		wait := v.backoffBase << attempt
		v.logger.Debug("ranking call rate limited, backing off", "model", model, "wait", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// buildSample takes the head of the order plus a seeded random draw
// from the remainder, capped so large playlists keep requests small.
func (v *Verifier) buildSample(songs []models.EnrichedSong, order []string) []services.SampleEntry {
	byID := make(map[string]models.EnrichedSong, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	entries := make([]services.SampleEntry, 0, min(len(order), sampleCap))
	appendEntry := func(pos int) {
		song, ok := byID[order[pos]]
		if !ok {
			return
		}
		entries = append(entries, services.SampleEntry{
			Position:   pos,
			ID:         song.ID,
			Title:      song.Title,
			Artist:     song.Artist,
			Genre:      song.CanonicalGenre,
			Popularity: song.Popularity,
		})
	}

	head := min(len(order), sampleHead)
	for pos := 0; pos < head; pos++ {
		appendEntry(pos)
	}

	if len(order) > sampleHead {
		rest := make([]int, 0, len(order)-sampleHead)
		for pos := sampleHead; pos < len(order); pos++ {
			rest = append(rest, pos)
		}
		rng := rand.New(rand.NewSource(v.cfg.Seed))
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

		draw := min(sampleRandom, len(rest))
		for _, pos := range rest[:draw] {
			if len(entries) >= sampleCap {
				break
			}
			appendEntry(pos)
		}
	}

	return entries
}

func (v *Verifier) classifyFailure(err error) {
	switch {
	case errors.Is(err, shared.ErrQuotaExhausted):
		telemetry.VerificationFailures.WithLabelValues("quota").Inc()
		if v.alerter != nil {
			v.alerter.Alert("critical", "Ranking quota exhausted",
				"Verification is disabled until the provider quota resets.",
				map[string]any{"primary_model": v.cfg.PrimaryModel},
				"verify-quota")
		}
	case errors.Is(err, shared.ErrTimeout):
		telemetry.VerificationFailures.WithLabelValues("timeout").Inc()
	case errors.Is(err, shared.ErrQueueAtCapacity), errors.Is(err, shared.ErrQueueWaitTimeout), errors.Is(err, shared.ErrQueueSkipped):
		telemetry.VerificationFailures.WithLabelValues("queue").Inc()
	default:
		telemetry.VerificationFailures.WithLabelValues("error").Inc()
	}
}

// applySwaps applies up to maxSwaps position exchanges to a copy of the
// order. Swap indices address sample entries, not the full order; each
// index is mapped back to the order position that entry was drawn from.
// Swaps indexing outside the sample, or mapping outside the order, are
// dropped.
func applySwaps(order []string, sample []services.SampleEntry, swaps []services.Swap, logger *log.Logger) ([]string, int) {
	adjusted := make([]string, len(order))
	copy(adjusted, order)

	applied := 0
	for _, swap := range swaps {
		if applied >= maxSwaps {
			logger.Warn("ranker returned too many swaps, ignoring the rest", "total", len(swaps))
			break
		}
		if swap.From < 0 || swap.From >= len(sample) || swap.To < 0 || swap.To >= len(sample) {
			logger.Warn("ignoring swap outside the sample", "from", swap.From, "to", swap.To, "sample_size", len(sample))
			continue
		}
		from, to := sample[swap.From].Position, sample[swap.To].Position
		if from < 0 || from >= len(adjusted) || to < 0 || to >= len(adjusted) {
			logger.Warn("ignoring out of bounds swap", "from", from, "to", to, "size", len(adjusted))
			continue
		}
		adjusted[from], adjusted[to] = adjusted[to], adjusted[from]
		applied++
	}
	return adjusted, applied
}
