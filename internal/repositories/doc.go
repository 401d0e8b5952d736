// Package repositories implements SQLite persistence for fetched tracks and resolution history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TrackRepository] : source track metadata keyed by (service, service_id), with ISRC lookups
//   - [MatchRepository] : resolution history, newest first
//   - [TrackCacheAdapter] : upserts fetched source tracks for the match engine
//   - [HistoryAdapter] : appends fresh resolutions for the match engine
//
// The history table is an audit trail. The in-memory result cache, not this package, answers repeat lookups.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
