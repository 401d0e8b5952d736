// Package models defines domain entities and persistence interfaces for songmatch.
//
// The package contains two categories of types:
//
// 1. Value types exchanged between the resolver, the catalogs and the outer surfaces
//   - [Platform] : the two supported catalogs, with [Platform.Other] naming the target
//   - [TrackMetadata] / [Candidate] : catalog metadata, ISRC when known
//   - [MatchResult] : a single tagged outcome with an explicit [MatchMethod] and a structured [MatchError]
//   - [CacheKey] : the directed (source platform, source id, target platform) triple
//
// 2. Persistent Entities backed by SQLite
//   - [PersistedTrack] : source metadata seen during resolution
//   - [MatchRecord] : resolution history
//
// Persistent entities implement [Model]; the [Repository] interface defines standard CRUD operations.
package models
