// Package models defines domain entities and persistence interfaces for the mixflow sequencing service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs carried through a sequencing run
//   - [Song] : Immutable song descriptor submitted by the caller
//   - [EnrichedSong] : Song plus its derived canonical genre
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedMapping] : Cross-platform identity mapping reused across export runs
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
