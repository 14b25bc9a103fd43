// Package repositories implements SQLite persistence for domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [MappingRepository] : Durable platform-identity mappings keyed by normalized track keys
//
// Sequence numbers provide stable, human-readable ordering (e.g., mapping #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
