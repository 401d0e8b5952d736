package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Existing rows are refreshed in place so titles and ISRCs follow catalog edits.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack stores track under (service, serviceID), updating any existing row.
func (a *TrackCacheAdapter) CacheTrack(service, serviceID string, track models.TrackMetadata) error {
	existing, err := a.repo.GetByServiceID(service, serviceID)
	switch {
	case err == nil:
		if existing.Track() == track {
			return nil
		}
		existing.SetTrack(track)
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached track: %w", err)
		}
		return nil
	case !errors.Is(err, shared.ErrRecordNotFound):
		return fmt.Errorf("failed to look up cached track: %w", err)
	}

	err = a.repo.Create(models.NewPersistedTrack(0, service, serviceID, track))
	if err != nil {
		// Lost a race with another writer for the same track.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}
