// package models defines the data model for the song sequencing service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the sequencing service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Song is an immutable descriptor of a song submitted for sequencing.
// The engine never mutates it.
type Song struct {
	ID         string    `json:"id"`                 // Opaque identifier, unique within a request
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album,omitempty"`
	Tags       []string  `json:"tags,omitempty"`     // Raw free-text genre tags, in order
	Popularity float64   `json:"popularity"`         // 0-100 or platform-native scale
	Features   []float64 `json:"features,omitempty"` // Optional audio-feature vector
}

// EnrichedSong is a Song plus its derived canonical genre.
// Created once per sequencing run and discarded after.
type EnrichedSong struct {
	Song
	CanonicalGenre string `json:"canonical_genre"`
}
