// Package tasks resolves tracks between Spotify and Apple Music.
//
// # Core Operations
//
//  1. [MatchEngine.MatchTrack] : resolve one link or ID on the other catalog
//     - Parses the link (URL wins over the declared platform; a conflict is INVALID_INPUT)
//     - Returns a cached outcome when one exists, relabelled CACHE_HIT
//     - Fetches source metadata (SOURCE_FETCH_FAILED or AUTH_FAILURE, never cached)
//     - Runs the [Resolver] and caches whatever it returns
//
//  2. [Resolver.Resolve] : ISRC lookup first, then metadata search
//     - Missing title or artist fails with INVALID_INPUT before any catalog call
//     - An ISRC lookup error or miss is logged as ISRC_LOOKUP_FAILED and falls through
//     - Search hits are ranked; a best score under the threshold is NO_MATCH_FOUND
//
//  3. [MatchEngine.Batch] : resolve many inputs with a bounded worker pool
//
//  4. [MatchEngine.Validate] : re-fetch a resolved target to confirm it exists
//
// # Progress Reporting
//
// Batch runs use non-blocking channels for progress updates.
// Updates use select with default to prevent blocking.
//
// # Persistence
//
// The optional [TrackCacher] and [HistoryRecorder] interfaces let the engine store
// fetched source tracks and fresh outcomes (repositories provides both).
// Errors are logged and ignored. Stored history is never read back during resolution.
package tasks
