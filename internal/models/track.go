package models

import (
	"fmt"
	"time"
)

// TrackMetadata describes a track as reported by its catalog.
//
// Title and Artist are the raw catalog strings; normalization happens at comparison time.
type TrackMetadata struct {
	ISRC       string   `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	Title      string   `json:"title" yaml:"title"`
	Artist     string   `json:"artist" yaml:"artist"`
	Album      string   `json:"album,omitempty" yaml:"album,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	PlatformID string   `json:"id" yaml:"id"`
	Platform   Platform `json:"platform" yaml:"platform"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Duration returns the track length as a [time.Duration].
func (t TrackMetadata) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// String renders "Title by Artist".
func (t TrackMetadata) String() string {
	return fmt.Sprintf("%q by %s", t.Title, t.Artist)
}

// Candidate is a search hit on the target catalog. Its ISRC may be empty.
type Candidate = TrackMetadata
