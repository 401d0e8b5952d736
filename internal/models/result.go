package models

import (
	"fmt"
)

// MatchMethod records how a target track was found.
type MatchMethod int

const (
	MethodNone MatchMethod = iota
	MethodISRC
	MethodMetadata
	MethodCache
)

func (m MatchMethod) String() string {
	switch m {
	case MethodISRC:
		return "ISRC_MATCH"
	case MethodMetadata:
		return "METADATA_MATCH"
	case MethodCache:
		return "CACHE_HIT"
	default:
		return "NONE"
	}
}

func (m MatchMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MatchMethod) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ISRC_MATCH":
		*m = MethodISRC
	case "METADATA_MATCH":
		*m = MethodMetadata
	case "CACHE_HIT":
		*m = MethodCache
	case "NONE", "":
		*m = MethodNone
	default:
		return fmt.Errorf("unknown match method %q", text)
	}
	return nil
}

// ErrorKind classifies a failed resolution.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindSourceFetchFailed  ErrorKind = "SOURCE_FETCH_FAILED"
	KindISRCLookupFailed   ErrorKind = "ISRC_LOOKUP_FAILED" // logged, never returned
	KindNoMatchFound       ErrorKind = "NO_MATCH_FOUND"
	KindTargetSearchFailed ErrorKind = "TARGET_SEARCH_FAILED"
	KindAuthFailure        ErrorKind = "AUTH_FAILURE"
)

// MatchError is the structured failure carried by an unsuccessful [MatchResult].
type MatchError struct {
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`
}

func (e *MatchError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewMatchError builds a [MatchError] with a formatted message.
func NewMatchError(kind ErrorKind, format string, args ...any) *MatchError {
	return &MatchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// MatchResult is the outcome of one resolution attempt.
//
// TargetID and TargetURL are set iff Success; Error is set iff !Success.
// On cache hits Method is [MethodCache] and ResolvedBy keeps the method that originally produced the result.
type MatchResult struct {
	Success        bool           `json:"success" yaml:"success"`
	SourcePlatform Platform       `json:"source_platform" yaml:"source_platform"`
	SourceID       string         `json:"source_id" yaml:"source_id"`
	TargetPlatform Platform       `json:"target_platform" yaml:"target_platform"`
	TargetID       string         `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	TargetURL      string         `json:"target_url,omitempty" yaml:"target_url,omitempty"`
	Method         MatchMethod    `json:"method_used" yaml:"method_used"`
	ResolvedBy     MatchMethod    `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	Score          float64        `json:"match_score,omitempty" yaml:"match_score,omitempty"`
	Error          *MatchError    `json:"error,omitempty" yaml:"error,omitempty"`
	Source         *TrackMetadata `json:"source,omitempty" yaml:"source,omitempty"`
	Target         *Candidate     `json:"target,omitempty" yaml:"target,omitempty"`
}

// Clone returns a copy of r that shares no pointers with it.
func (r MatchResult) Clone() MatchResult {
	if r.Error != nil {
		e := *r.Error
		r.Error = &e
	}
	if r.Source != nil {
		src := *r.Source
		r.Source = &src
	}
	if r.Target != nil {
		tgt := *r.Target
		r.Target = &tgt
	}
	return r
}

// Key returns the cache key for this result's directed platform pair.
func (r MatchResult) Key() CacheKey {
	return CacheKey{SourcePlatform: r.SourcePlatform, SourceID: r.SourceID, TargetPlatform: r.TargetPlatform}
}

// Kind returns the error kind, or "" for successes.
func (r MatchResult) Kind() ErrorKind {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind
}

// Failure builds an unsuccessful result for key.
func Failure(key CacheKey, err *MatchError) MatchResult {
	return MatchResult{
		SourcePlatform: key.SourcePlatform,
		SourceID:       key.SourceID,
		TargetPlatform: key.TargetPlatform,
		Error:          err,
	}
}

// CacheKey identifies a resolution by its directed platform pair.
type CacheKey struct {
	SourcePlatform Platform
	SourceID       string
	TargetPlatform Platform
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s->%s", k.SourcePlatform, k.SourceID, k.TargetPlatform)
}
