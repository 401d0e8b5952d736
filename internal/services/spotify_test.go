package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

const bohemianSpotifyID = "4u7EnebtmKWzUH433cf5Qv"

const bohemianTrackJSON = `{
	"id": "4u7EnebtmKWzUH433cf5Qv",
	"name": "Bohemian Rhapsody",
	"duration_ms": 354320,
	"artists": [{"id": "1dfeR4HaWDbWqFHLkxsg1d", "name": "Queen"}],
	"album": {"id": "6i6folBtxKV28WX3msQ4FE", "name": "A Night At The Opera"},
	"external_ids": {"isrc": "gbum71029604"}
}`

// fakeSpotify serves the token endpoint plus the track and search endpoints.
type fakeSpotify struct {
	*httptest.Server
	tokenStatus int
	trackStatus int
	queries     []string
	tokenCalls  atomic.Int32
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{tokenStatus: http.StatusOK, trackStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if f.tokenStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.tokenStatus)
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if f.trackStatus != http.StatusOK {
			w.WriteHeader(f.trackStatus)
			fmt.Fprintf(w, `{"error":{"status":%d,"message":"non existing id"}}`, f.trackStatus)
			return
		}
		fmt.Fprint(w, bohemianTrackJSON)
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Query().Get("q"), "Unreleased") {
			fmt.Fprint(w, `{"tracks":{"items":[],"total":0}}`)
			return
		}
		fmt.Fprintf(w, `{"tracks":{"items":[%s],"total":1}}`, bohemianTrackJSON)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSpotify) service(t *testing.T) *SpotifyService {
	t.Helper()
	svc, err := NewSpotifyService(shared.SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     f.URL + "/api/token",
		APIURL:       f.URL + "/v1",
	}, WithSpotifyHTTPClient(f.Client()))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "client"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Service Interface", func(t *testing.T) {
			svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "client", ClientSecret: "secret"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			var _ Service = svc
			if svc.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", svc.Name())
			}
			if svc.Platform() != models.Spotify {
				t.Errorf("expected platform spotify, got %v", svc.Platform())
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("fetches a token", func(t *testing.T) {
			f := newFakeSpotify(t)
			if err := f.service(t).Authenticate(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if f.tokenCalls.Load() != 1 {
				t.Errorf("expected 1 token request, got %d", f.tokenCalls.Load())
			}
		})

		t.Run("rejected credentials", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.tokenStatus = http.StatusUnauthorized
			err := f.service(t).Authenticate(context.Background())
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Track", func(t *testing.T) {
		t.Run("maps full track", func(t *testing.T) {
			f := newFakeSpotify(t)
			track, err := f.service(t).Track(context.Background(), bohemianSpotifyID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Title != "Bohemian Rhapsody" || track.Artist != "Queen" {
				t.Errorf("unexpected metadata: %+v", track)
			}
			if track.ISRC != "GBUM71029604" {
				t.Errorf("expected uppercased ISRC, got %q", track.ISRC)
			}
			if track.DurationMS != 354320 {
				t.Errorf("expected duration 354320, got %d", track.DurationMS)
			}
			if track.URL != "https://open.spotify.com/track/"+bohemianSpotifyID {
				t.Errorf("unexpected URL %q", track.URL)
			}
		})

		t.Run("not found", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.trackStatus = http.StatusNotFound
			_, err := f.service(t).Track(context.Background(), bohemianSpotifyID)
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("token failure surfaces as auth error", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.tokenStatus = http.StatusBadRequest
			_, err := f.service(t).Track(context.Background(), bohemianSpotifyID)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("LookupISRC", func(t *testing.T) {
		f := newFakeSpotify(t)
		got, err := f.service(t).LookupISRC(context.Background(), "GBUM71029604")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 || got[0].PlatformID != bohemianSpotifyID {
			t.Errorf("unexpected candidates: %+v", got)
		}
		if len(f.queries) != 1 || f.queries[0] != "isrc:GBUM71029604" {
			t.Errorf("unexpected queries: %v", f.queries)
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("uses field filters", func(t *testing.T) {
			f := newFakeSpotify(t)
			got, err := f.service(t).Search(context.Background(), "Bohemian Rhapsody", "Queen")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if f.queries[0] != "track:Bohemian Rhapsody artist:Queen" {
				t.Errorf("unexpected query %q", f.queries[0])
			}
		})

		t.Run("no results", func(t *testing.T) {
			f := newFakeSpotify(t)
			got, err := f.service(t).Search(context.Background(), "Unreleased Demo X", "Unknown Artist")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no candidates, got %d", len(got))
			}
		})
	})
}

func TestFromFullTrack(t *testing.T) {
	tests := []struct {
		name       string
		track      spotify.FullTrack
		wantArtist string
		wantISRC   string
	}{
		{
			name: "primary artist only",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:      "track123",
					Name:    "Collab",
					Artists: []spotify.SimpleArtist{{Name: "Artist A"}, {Name: "Artist B"}},
				},
				ExternalIDs: map[string]string{"isrc": "usrc17607839"},
			},
			wantArtist: "Artist A",
			wantISRC:   "USRC17607839",
		},
		{
			name: "no artists or isrc",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{ID: "track456", Name: "Lonely"},
			},
			wantArtist: "",
			wantISRC:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromFullTrack(tt.track)
			if got.Artist != tt.wantArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.wantArtist)
			}
			if got.ISRC != tt.wantISRC {
				t.Errorf("ISRC = %q, want %q", got.ISRC, tt.wantISRC)
			}
			if got.Platform != models.Spotify {
				t.Errorf("Platform = %v, want spotify", got.Platform)
			}
		})
	}
}

func TestCleanQuery(t *testing.T) {
	tests := map[string]string{
		`Bohemian Rhapsody`:  "Bohemian Rhapsody",
		`Song: The "Remix"`:  "Song The Remix",
		"  spaced \t  out  ": "spaced out",
	}
	for in, want := range tests {
		if got := cleanQuery(in); got != want {
			t.Errorf("cleanQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
