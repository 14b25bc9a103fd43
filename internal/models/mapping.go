package models

import (
	"fmt"
	"time"
)

// PersistedMapping is a durable platform-identity mapping row.
//
// It records that a song known by sourceKey on sourceService resolves to
// targetID on targetService, so later export runs can skip the lookup.
type PersistedMapping struct {
	id            string
	sequence      int
	sourceService string
	sourceKey     string
	targetService string
	targetID      string
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewPersistedMapping creates a mapping ready for persistence. The ID is
// assigned by the repository on Create.
func NewPersistedMapping(sequence int, sourceService, sourceKey, targetService, targetID string) *PersistedMapping {
	now := time.Now()
	return &PersistedMapping{
		sequence:      sequence,
		sourceService: sourceService,
		sourceKey:     sourceKey,
		targetService: targetService,
		targetID:      targetID,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (m *PersistedMapping) ID() string { return m.id }
func (m *PersistedMapping) Sequence() int { return m.sequence }
func (m *PersistedMapping) SourceService() string { return m.sourceService }
func (m *PersistedMapping) SourceKey() string { return m.sourceKey }
func (m *PersistedMapping) TargetService() string { return m.targetService }
func (m *PersistedMapping) TargetID() string { return m.targetID }
func (m *PersistedMapping) CreatedAt() time.Time { return m.createdAt }
func (m *PersistedMapping) UpdatedAt() time.Time { return m.updatedAt }
func (m *PersistedMapping) DeletedAt() *time.Time { return m.deletedAt }

func (m *PersistedMapping) SetID(id string) { m.id = id }
func (m *PersistedMapping) SetSequence(seq int) { m.sequence = seq }
func (m *PersistedMapping) SetTargetID(id string) { m.targetID = id }
func (m *PersistedMapping) SetCreatedAt(t time.Time) { m.createdAt = t }
func (m *PersistedMapping) SetUpdatedAt(t time.Time) { m.updatedAt = t }
func (m *PersistedMapping) SetDeletedAt(t *time.Time) { m.deletedAt = t }

// Validate checks the mapping's data before persistence.
func (m *PersistedMapping) Validate() error {
	if m.sourceService == "" {
		return fmt.Errorf("source service is required")
	}
	if m.sourceKey == "" {
		return fmt.Errorf("source key is required")
	}
	if m.targetService == "" {
		return fmt.Errorf("target service is required")
	}
	if m.targetID == "" {
		return fmt.Errorf("target ID is required")
	}
	return nil
}
