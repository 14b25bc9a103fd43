// package services defines clients for the engine's external HTTP collaborators
//
// Ranking provider, catalog resolver
package services

import (
	"context"
	"time"
)

// SampleEntry is one position of the baseline order submitted for review.
type SampleEntry struct {
	Position   int     `json:"position"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Genre      string  `json:"genre"`
	Popularity float64 `json:"popularity"`
}

// Swap is a position-swap suggestion from the ranking provider, expressed
// in sample positions.
type Swap struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// RankResponse is the provider's review of a sample.
type RankResponse struct {
	Acceptable bool   `json:"acceptable"`
	Swaps      []Swap `json:"swaps,omitempty"`
}

// Ranker reviews a baseline order sample with a named model under a timeout.
type Ranker interface {
	Rank(ctx context.Context, model string, timeout time.Duration, sample []SampleEntry) (*RankResponse, error)
}

// Resolver performs the expensive cross-platform track lookup.
// Implementations return the target-platform identifier for a track.
type Resolver interface {
	ResolveTrack(ctx context.Context, title, artist string) (string, error)

	// Name returns the name of the target platform (e.g. "spotify")
	Name() string
}
