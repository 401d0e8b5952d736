package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("DuplicateServiceID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			track1 := models.NewPersistedTrack(0, "spotify", "spotify123", bohemianRhapsody())
			if err := repo.Create(track1); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}

			track2 := models.NewPersistedTrack(0, "spotify", "spotify123", bohemianRhapsody())
			if err := repo.Create(track2); err == nil {
				t.Fatal("expected error when creating track with duplicate service+service_id")
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, "spotify", "spotify123", models.TrackMetadata{})

			if err := repo.Create(track); err == nil {
				t.Fatal("expected validation error for track with empty title and artist")
			}
		})
	})

	t.Run("NotFound errors", func(t *testing.T) {
		t.Run("GetByServiceID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			_, err := repo.GetByServiceID("spotify", "nonexistent")
			if !errors.Is(err, shared.ErrRecordNotFound) {
				t.Fatalf("expected ErrRecordNotFound, got %v", err)
			}
		})

		t.Run("Update", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, "spotify", "spotify123", bohemianRhapsody())
			track.SetID("nonexistent-id")

			if err := repo.Update(track); !errors.Is(err, shared.ErrRecordNotFound) {
				t.Fatalf("expected ErrRecordNotFound, got %v", err)
			}
		})

		t.Run("Delete", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrRecordNotFound) {
				t.Fatalf("expected ErrRecordNotFound, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewTrackRepository(db)
		if err := repo.Create(models.NewPersistedTrack(0, "spotify", "spotify123", bohemianRhapsody())); err == nil {
			t.Error("expected error creating on a closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error listing on a closed database")
		}
	})
}

func TestMatchRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)

		tests := map[string]models.MatchResult{
			"missing platforms":      {SourceID: "abc", Success: true, TargetID: "1"},
			"missing source id":      {SourcePlatform: models.Spotify, TargetPlatform: models.AppleMusic},
			"success without target": {SourcePlatform: models.Spotify, SourceID: "abc", TargetPlatform: models.AppleMusic, Success: true},
			"failure without error":  {SourcePlatform: models.Spotify, SourceID: "abc", TargetPlatform: models.AppleMusic},
		}

		for name, result := range tests {
			t.Run(name, func(t *testing.T) {
				if err := repo.Create(models.NewMatchRecord(0, result)); err == nil {
					t.Fatal("expected validation error")
				}
			})
		}
	})

	t.Run("NotFound errors", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound from Get, got %v", err)
		}

		if _, err := repo.Latest(isrcMatch().Key()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound from Latest, got %v", err)
		}

		record := models.NewMatchRecord(0, isrcMatch())
		record.SetID("nonexistent-id")
		if err := repo.Update(record); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound from Update, got %v", err)
		}

		if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound from Delete, got %v", err)
		}
	})

	t.Run("HistoryAdapter wraps failures", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		history := NewHistoryAdapter(NewMatchRepository(db))
		if err := history.RecordMatch(isrcMatch()); err == nil {
			t.Fatal("expected error recording on a closed database")
		}
	})
}

func TestTrackCacheAdapter_CacheTrack_InvalidTrack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTrackRepository(db)
	adapter := NewTrackCacheAdapter(repo)

	if err := adapter.CacheTrack("spotify", "spotify123", models.TrackMetadata{}); err == nil {
		t.Fatal("expected error when caching invalid track")
	}
}
