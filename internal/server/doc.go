// Package server exposes the match engine as a small JSON API.
//
// # Routes
//
//   - GET /health : liveness plus result cache counters
//   - GET /api/match?url=...&platform=... : one resolution, body is the MatchResult
//   - POST /api/batch : {"inputs": [...], "platform": "...", "workers": N}
//
// Failed resolutions still return the MatchResult body. The status code follows
// [StatusFor]: 400 for INVALID_INPUT, 404 for NO_MATCH_FOUND and 502 for upstream
// failures.
//
// # Middleware
//
// Routing uses chi. Requests get a request ID, the real client IP, a log line
// from [RequestLogger] and panic recovery.
//
// [Server.Run] stops accepting connections when its context is cancelled and
// waits for in-flight requests before returning.
package server
