// package models defines the data model for cross-catalog track resolution
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations are [PersistedTrack] and [MatchRecord].
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// record carries the bookkeeping fields shared by persistent entities.
type record struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newRecord(sequence int) record {
	now := time.Now()
	return record{sequence: sequence, createdAt: now, updatedAt: now}
}

func (r *record) ID() string                { return r.id }
func (r *record) Sequence() int             { return r.sequence }
func (r *record) CreatedAt() time.Time      { return r.createdAt }
func (r *record) UpdatedAt() time.Time      { return r.updatedAt }
func (r *record) DeletedAt() *time.Time     { return r.deletedAt }
func (r *record) SetID(id string)           { r.id = id }
func (r *record) SetSequence(seq int)       { r.sequence = seq }
func (r *record) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *record) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *record) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *record) IsDeleted() bool           { return r.deletedAt != nil }

// PersistedTrack is catalog metadata fetched while resolving a source track.
type PersistedTrack struct {
	record
	service   string
	serviceID string
	track     TrackMetadata
}

// NewPersistedTrack wraps metadata fetched from service for storage.
func NewPersistedTrack(sequence int, service, serviceID string, track TrackMetadata) *PersistedTrack {
	return &PersistedTrack{record: newRecord(sequence), service: service, serviceID: serviceID, track: track}
}

func (t *PersistedTrack) Service() string      { return t.service }
func (t *PersistedTrack) ServiceID() string    { return t.serviceID }
func (t *PersistedTrack) Title() string        { return t.track.Title }
func (t *PersistedTrack) Artist() string       { return t.track.Artist }
func (t *PersistedTrack) Album() string        { return t.track.Album }
func (t *PersistedTrack) Duration() int        { return t.track.DurationMS }
func (t *PersistedTrack) ISRC() string         { return t.track.ISRC }
func (t *PersistedTrack) Track() TrackMetadata { return t.track }

// SetTrack replaces the stored metadata, keeping the service identity.
func (t *PersistedTrack) SetTrack(track TrackMetadata) { t.track = track }

func (t *PersistedTrack) Validate() error {
	if t.service == "" {
		return fmt.Errorf("service is required")
	}
	if t.serviceID == "" {
		return fmt.Errorf("service_id is required")
	}
	if t.track.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.track.Artist == "" {
		return fmt.Errorf("artist is required")
	}
	return nil
}

// MatchRecord is one resolution stored in the history table.
type MatchRecord struct {
	record
	result MatchResult
}

// NewMatchRecord captures result for the history table.
func NewMatchRecord(sequence int, result MatchResult) *MatchRecord {
	return &MatchRecord{record: newRecord(sequence), result: result}
}

func (m *MatchRecord) Result() MatchResult { return m.result }

func (m *MatchRecord) SourceTitle() string {
	if m.result.Source == nil {
		return ""
	}
	return m.result.Source.Title
}

func (m *MatchRecord) SourceArtist() string {
	if m.result.Source == nil {
		return ""
	}
	return m.result.Source.Artist
}

func (m *MatchRecord) ErrorKind() string { return string(m.result.Kind()) }

func (m *MatchRecord) ErrorMessage() string {
	if m.result.Error == nil {
		return ""
	}
	return m.result.Error.Message
}

func (m *MatchRecord) Validate() error {
	r := m.result
	if !r.SourcePlatform.Valid() || !r.TargetPlatform.Valid() {
		return fmt.Errorf("source and target platforms are required")
	}
	if r.SourceID == "" {
		return fmt.Errorf("source_id is required")
	}
	if r.Success && r.TargetID == "" {
		return fmt.Errorf("successful match requires target_id")
	}
	if !r.Success && r.Error == nil {
		return fmt.Errorf("failed match requires an error")
	}
	return nil
}
