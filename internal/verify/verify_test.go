package verify

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/services"
	"github.com/desertthunder/mixflow/internal/shared"
	mocks "github.com/desertthunder/mixflow/internal/testing"
	"github.com/desertthunder/mixflow/internal/vqueue"
)

// passthroughQueue runs submitted tasks inline.
type passthroughQueue struct {
	err error
}

func (p *passthroughQueue) Submit(ctx context.Context, opts vqueue.SubmitOptions, fn func(context.Context) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx)
}

type recordingAlerter struct {
	alerts []string
}

func (a *recordingAlerter) Alert(level, title, message string, details map[string]any, dedupeKey string) {
	a.alerts = append(a.alerts, dedupeKey)
}

func testSongs(n int) ([]models.EnrichedSong, []string) {
	songs := make([]models.EnrichedSong, n)
	order := make([]string, n)
	for i := range songs {
		id := string(rune('a' + i%26))
		if i >= 26 {
			id = id + string(rune('0'+i/26))
		}
		songs[i] = models.EnrichedSong{
			Song:           models.Song{ID: id, Title: "Title " + id, Artist: "Artist " + id, Popularity: float64(i)},
			CanonicalGenre: "Pop",
		}
		order[i] = id
	}
	return songs, order
}

func testVerifier(ranker services.Ranker, queue Submitter, alerter vqueue.Alerter) *Verifier {
	v := New(ranker, queue, alerter, Config{
		PrimaryModel:    "rank-large",
		FallbackModel:   "rank-lite",
		PrimaryTimeout:  time.Second,
		FallbackTimeout: time.Second,
		Seed:            7,
	}, nil)
	v.backoffBase = time.Millisecond
	return v
}

func TestVerify(t *testing.T) {
	t.Run("accepted order is verified unchanged", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{"rank-large": {Acceptable: true}},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusVerified {
			t.Fatalf("expected verified, got %s", out.Status)
		}
		if out.Model != "rank-large" {
			t.Errorf("expected primary model, got %s", out.Model)
		}
		if len(out.Order) != len(order) || out.Order[0] != order[0] {
			t.Error("verified outcome should keep the input order")
		}
		if ranker.CallCount() != 1 {
			t.Errorf("expected a single ranking call, got %d", ranker.CallCount())
		}
	})

	t.Run("swaps are applied", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{
				"rank-large": {Swaps: []services.Swap{{From: 0, To: 4}, {From: 1, To: 2}}},
			},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusImproved {
			t.Fatalf("expected improved, got %s", out.Status)
		}
		if out.SwapsApplied != 2 {
			t.Errorf("expected 2 swaps applied, got %d", out.SwapsApplied)
		}
		if out.Order[0] != order[4] || out.Order[4] != order[0] {
			t.Errorf("swap 0<->4 not applied: %v", out.Order)
		}
		if out.Order[1] != order[2] || out.Order[2] != order[1] {
			t.Errorf("swap 1<->2 not applied: %v", out.Order)
		}
		if order[0] != "a" {
			t.Error("input order must not be mutated")
		}
	})

	t.Run("out of bounds swaps are dropped", func(t *testing.T) {
		songs, order := testSongs(3)
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{
				"rank-large": {Swaps: []services.Swap{{From: -1, To: 2}, {From: 0, To: 99}}},
			},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusVerified {
			t.Fatalf("expected verified when no swap survives validation, got %s", out.Status)
		}
	})

	t.Run("swap indices address sample entries", func(t *testing.T) {
		// 100 songs sample down to sampleCap entries; the last entry was
		// drawn from the tail, so its sample index and its order position
		// differ.
		songs, order := testSongs(100)
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{
				"rank-large": {Swaps: []services.Swap{{From: sampleCap - 1, To: 0}}},
			},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		sample := v.buildSample(songs, order)
		tail := sample[sampleCap-1].Position
		if tail < sampleHead {
			t.Fatalf("expected last sample entry to come from the tail, got position %d", tail)
		}

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusImproved {
			t.Fatalf("expected improved, got %s", out.Status)
		}
		if out.Order[0] != order[tail] || out.Order[tail] != order[0] {
			t.Errorf("swap should exchange order positions 0 and %d, got %v", tail, out.Order[0])
		}
	})

	t.Run("swaps outside the sample are dropped", func(t *testing.T) {
		// Position sampleCap is a valid order position here but was never
		// shown to the ranker, so a swap naming it must not be applied.
		songs, order := testSongs(100)
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{
				"rank-large": {Swaps: []services.Swap{{From: sampleCap, To: 0}}},
			},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusVerified {
			t.Fatalf("expected verified when no swap survives validation, got %s", out.Status)
		}
		if out.SwapsApplied != 0 {
			t.Errorf("expected 0 swaps applied, got %d", out.SwapsApplied)
		}
		if out.Order[0] != order[0] {
			t.Errorf("order must stay untouched, got %s at position 0", out.Order[0])
		}
	})

	t.Run("swap count is capped", func(t *testing.T) {
		songs, order := testSongs(10)
		swaps := make([]services.Swap, 8)
		for i := range swaps {
			swaps[i] = services.Swap{From: i, To: i + 1}
		}
		ranker := &mocks.MockRanker{
			Responses: map[string]*services.RankResponse{"rank-large": {Swaps: swaps}},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.SwapsApplied != maxSwaps {
			t.Errorf("expected %d swaps applied, got %d", maxSwaps, out.SwapsApplied)
		}
	})

	t.Run("primary failure falls back", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Errs:      map[string]error{"rank-large": shared.ErrServiceUnavailable},
			Responses: map[string]*services.RankResponse{"rank-lite": {Acceptable: true}},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusVerified {
			t.Fatalf("expected verified via fallback, got %s", out.Status)
		}
		if out.Model != "rank-lite" {
			t.Errorf("expected fallback model, got %s", out.Model)
		}
	})

	t.Run("rate limit retries then falls back", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Errs:      map[string]error{"rank-large": shared.ErrRateLimited},
			Responses: map[string]*services.RankResponse{"rank-lite": {Acceptable: true}},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusVerified {
			t.Fatalf("expected verified via fallback, got %s", out.Status)
		}
		primary := 0
		for _, model := range ranker.Calls {
			if model == "rank-large" {
				primary++
			}
		}
		if primary != maxRateLimitRetries+1 {
			t.Errorf("expected %d primary attempts, got %d", maxRateLimitRetries+1, primary)
		}
	})

	t.Run("quota exhaustion degrades and alerts", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Errs: map[string]error{"rank-large": shared.ErrQuotaExhausted},
		}
		alerter := &recordingAlerter{}
		v := testVerifier(ranker, &passthroughQueue{}, alerter)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusUnavailable {
			t.Fatalf("expected unavailable, got %s", out.Status)
		}
		if ranker.CallCount() != 1 {
			t.Errorf("quota errors must not reach the fallback tier, got %d calls", ranker.CallCount())
		}
		if len(alerter.alerts) != 1 || alerter.alerts[0] != "verify-quota" {
			t.Errorf("expected a quota alert, got %v", alerter.alerts)
		}
	})

	t.Run("both tiers failing degrades", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{
			Errs: map[string]error{
				"rank-large": shared.ErrTimeout,
				"rank-lite":  shared.ErrTimeout,
			},
		}
		v := testVerifier(ranker, &passthroughQueue{}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusUnavailable {
			t.Fatalf("expected unavailable, got %s", out.Status)
		}
		if out.Order[0] != order[0] {
			t.Error("degraded outcome must return the input order")
		}
	})

	t.Run("queue rejection degrades without ranking calls", func(t *testing.T) {
		songs, order := testSongs(5)
		ranker := &mocks.MockRanker{}
		v := testVerifier(ranker, &passthroughQueue{err: shared.ErrQueueAtCapacity}, nil)

		out := v.Verify(context.Background(), songs, order, Options{})
		if out.Status != StatusUnavailable {
			t.Fatalf("expected unavailable, got %s", out.Status)
		}
		if ranker.CallCount() != 0 {
			t.Errorf("rejected submission must not rank, got %d calls", ranker.CallCount())
		}
	})

	t.Run("empty order is unavailable", func(t *testing.T) {
		v := testVerifier(&mocks.MockRanker{}, &passthroughQueue{}, nil)
		out := v.Verify(context.Background(), nil, nil, Options{})
		if out.Status != StatusUnavailable {
			t.Fatalf("expected unavailable for empty input, got %s", out.Status)
		}
	})
}

func TestBuildSample(t *testing.T) {
	t.Run("small orders are sampled whole", func(t *testing.T) {
		songs, order := testSongs(10)
		v := testVerifier(&mocks.MockRanker{}, &passthroughQueue{}, nil)

		sample := v.buildSample(songs, order)
		if len(sample) != 10 {
			t.Fatalf("expected 10 entries, got %d", len(sample))
		}
		for i, entry := range sample {
			if entry.Position != i {
				t.Errorf("entry %d has position %d", i, entry.Position)
			}
		}
	})

	t.Run("large orders keep the head and draw from the tail", func(t *testing.T) {
		songs, order := testSongs(200)
		v := testVerifier(&mocks.MockRanker{}, &passthroughQueue{}, nil)

		sample := v.buildSample(songs, order)
		if len(sample) != sampleCap {
			t.Fatalf("expected %d entries, got %d", sampleCap, len(sample))
		}
		for i := 0; i < sampleHead; i++ {
			if sample[i].Position != i {
				t.Fatalf("head entry %d has position %d", i, sample[i].Position)
			}
		}
		for _, entry := range sample[sampleHead:] {
			if entry.Position < sampleHead || entry.Position >= len(order) {
				t.Errorf("tail draw position %d out of range", entry.Position)
			}
		}
	})

	t.Run("draw is deterministic for a seed", func(t *testing.T) {
		songs, order := testSongs(200)
		v := testVerifier(&mocks.MockRanker{}, &passthroughQueue{}, nil)

		first := v.buildSample(songs, order)
		second := v.buildSample(songs, order)
		for i := range first {
			if first[i].Position != second[i].Position {
				t.Fatalf("sample draw not deterministic at entry %d", i)
			}
		}
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		songs, order := testSongs(5)
		order = append(order, "missing")
		v := testVerifier(&mocks.MockRanker{}, &passthroughQueue{}, nil)

		sample := v.buildSample(songs, order)
		if len(sample) != 5 {
			t.Errorf("expected 5 entries, got %d", len(sample))
		}
	})
}
