package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/shared"
)

// MappingRepository implements models.Repository[*models.PersistedMapping]
// and backs the durable tier of the platform-identity cache.
//
// Rows are deduplicated by the (source_service, source_key, target_service)
// unique constraint, a duplicate Create is silently treated as success so
// concurrent write-through never fails a lookup.
type MappingRepository struct {
	db *sql.DB
}

// NewMappingRepository creates a new MappingRepository with the given database connection
func NewMappingRepository(db *sql.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Create inserts a new [models.PersistedMapping] with generated ID and sequence
func (r *MappingRepository) Create(mapping *models.PersistedMapping) error {
	sequence, err := NextSequence(r.db, "mappings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	mapping.SetID(id)
	mapping.SetSequence(sequence)

	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO mappings (id, sequence, source_service, source_key, target_service, target_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		mapping.SourceService(),
		mapping.SourceKey(),
		mapping.TargetService(),
		mapping.TargetID(),
		mapping.CreatedAt(),
		mapping.UpdatedAt(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to insert mapping: %w", err)
	}

	return nil
}

// Get retrieves a mapping by ID, excluding soft-deleted mappings
func (r *MappingRepository) Get(id string) (*models.PersistedMapping, error) {
	query := `
		SELECT id, sequence, source_service, source_key, target_service, target_id, created_at, updated_at, deleted_at
		FROM mappings
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySourceKey retrieves the mapping for a normalized source key on a target platform
func (r *MappingRepository) GetBySourceKey(sourceService, sourceKey, targetService string) (*models.PersistedMapping, error) {
	query := `
		SELECT id, sequence, source_service, source_key, target_service, target_id, created_at, updated_at, deleted_at
		FROM mappings
		WHERE source_service = ? AND source_key = ? AND target_service = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, sourceService, sourceKey, targetService))
}

// Update modifies an existing mapping's target identifier
func (r *MappingRepository) Update(mapping *models.PersistedMapping) error {
	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	mapping.SetUpdatedAt(now)

	query := `
		UPDATE mappings
		SET target_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, mapping.TargetID(), now, mapping.ID())
	if err != nil {
		return fmt.Errorf("failed to update mapping: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mapping not found or already deleted: %s", mapping.ID())
	}

	return nil
}

// Delete soft-deletes a mapping by ID
func (r *MappingRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE mappings
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mapping not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all mappings matching the given criteria, excluding soft-deleted mappings
func (r *MappingRepository) List(criteria map[string]any) ([]*models.PersistedMapping, error) {
	query := `
		SELECT id, sequence, source_service, source_key, target_service, target_id, created_at, updated_at, deleted_at
		FROM mappings
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if source, ok := criteria["source_service"].(string); ok && source != "" {
		query += " AND source_service = ?"
		args = append(args, source)
	}

	if target, ok := criteria["target_service"].(string); ok && target != "" {
		query += " AND target_service = ?"
		args = append(args, target)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.PersistedMapping
	for rows.Next() {
		mapping, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return mappings, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedMapping]
func (r *MappingRepository) scanOne(row *sql.Row) (*models.PersistedMapping, error) {
	var (
		id            string
		sequence      int
		sourceService string
		sourceKey     string
		targetService string
		targetID      string
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sourceService, &sourceKey, &targetService, &targetID, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mapping: %w", err)
	}

	mapping := models.NewPersistedMapping(sequence, sourceService, sourceKey, targetService, targetID)
	mapping.SetID(id)
	mapping.SetCreatedAt(createdAt)
	mapping.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		mapping.SetDeletedAt(&deletedAt.Time)
	}

	return mapping, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedMapping]
func (r *MappingRepository) scanRow(rows *sql.Rows) (*models.PersistedMapping, error) {
	var (
		id            string
		sequence      int
		sourceService string
		sourceKey     string
		targetService string
		targetID      string
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &sourceService, &sourceKey, &targetService, &targetID, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mapping: %w", err)
	}

	mapping := models.NewPersistedMapping(sequence, sourceService, sourceKey, targetService, targetID)
	mapping.SetID(id)
	mapping.SetCreatedAt(createdAt)
	mapping.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		mapping.SetDeletedAt(&deletedAt.Time)
	}

	return mapping, nil
}
