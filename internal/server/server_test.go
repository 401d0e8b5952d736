package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/services"
	"github.com/desertthunder/songmatch/internal/tasks"
	tu "github.com/desertthunder/songmatch/internal/testing"
)

const (
	bohemianID  = "4u7EnebtmKWzUH433cf5Qv"
	appleSongID = "1440650711"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *tu.MockService) {
	t.Helper()

	sp := tu.NewMockService(models.Spotify)
	am := tu.NewMockService(models.AppleMusic)

	sp.Tracks[bohemianID] = models.TrackMetadata{
		ISRC: "GBUM71029604", Title: "Bohemian Rhapsody", Artist: "Queen",
		PlatformID: bohemianID, Platform: models.Spotify,
	}
	am.ISRCHits["GBUM71029604"] = []models.Candidate{{
		ISRC: "GBUM71029604", Title: "Bohemian Rhapsody", Artist: "Queen",
		PlatformID: appleSongID, Platform: models.AppleMusic,
	}}

	engine := tasks.NewMatchEngine(services.NewRegistry(sp, am))
	ts := httptest.NewServer(New(engine, opts...))
	t.Cleanup(ts.Close)
	return ts, sp
}

func getResult(t *testing.T, ts *httptest.Server, query url.Values) (int, models.MatchResult) {
	t.Helper()

	resp, err := http.Get(ts.URL + "/api/match?" + query.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var res models.MatchResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return resp.StatusCode, res
}

func TestMatchHandler(t *testing.T) {
	t.Run("resolves a link", func(t *testing.T) {
		ts, _ := newTestServer(t)

		status, res := getResult(t, ts, url.Values{"url": {"https://open.spotify.com/track/" + bohemianID}})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if !res.Success || res.Method != models.MethodISRC || res.TargetID != appleSongID {
			t.Errorf("expected ISRC match to %s, got %+v", appleSongID, res)
		}
	})

	t.Run("second request is a cache hit", func(t *testing.T) {
		ts, sp := newTestServer(t)
		q := url.Values{"id": {bohemianID}, "platform": {"spotify"}}

		getResult(t, ts, q)
		status, res := getResult(t, ts, q)

		if status != http.StatusOK || res.Method != models.MethodCache || res.ResolvedBy != models.MethodISRC {
			t.Errorf("expected CACHE_HIT resolved by ISRC, got %d %+v", status, res)
		}
		if sp.TrackCalls != 1 {
			t.Errorf("expected one source fetch, got %d", sp.TrackCalls)
		}
	})

	t.Run("status codes", func(t *testing.T) {
		ts, _ := newTestServer(t)

		tests := []struct {
			name   string
			query  url.Values
			status int
			kind   models.ErrorKind
		}{
			{"missing input", url.Values{}, http.StatusBadRequest, models.KindInvalidInput},
			{"bad platform", url.Values{"id": {bohemianID}, "platform": {"tidal"}}, http.StatusBadRequest, models.KindInvalidInput},
			{"unknown source", url.Values{"id": {"0000000000000000000000"}, "platform": {"spotify"}}, http.StatusBadGateway, models.KindSourceFetchFailed},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				status, res := getResult(t, ts, tt.query)
				if status != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, status)
				}
				if res.Kind() != tt.kind {
					t.Errorf("expected kind %s, got %+v", tt.kind, res)
				}
			})
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, err := http.Post(ts.URL+"/api/match", "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestBatchEndpoint(t *testing.T) {
	post := func(t *testing.T, ts *httptest.Server, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+"/api/batch", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("resolves inputs in order", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := post(t, ts, `{"inputs": ["spotify:track:`+bohemianID+`", "not a link"], "platform": "spotify"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Total     int `json:"total"`
			Succeeded int `json:"succeeded"`
			Items     []struct {
				Input  string             `json:"input"`
				Result models.MatchResult `json:"result"`
			} `json:"items"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode batch: %v", err)
		}

		if body.Total != 2 || body.Succeeded != 1 || len(body.Items) != 2 {
			t.Fatalf("unexpected batch %+v", body)
		}
		if body.Items[1].Result.Kind() != models.KindInvalidInput {
			t.Errorf("expected second item INVALID_INPUT, got %+v", body.Items[1].Result)
		}
	})

	t.Run("validation", func(t *testing.T) {
		ts, _ := newTestServer(t, WithMaxBatch(1))

		tests := map[string]int{
			`not json`:                               http.StatusBadRequest,
			`{"inputs": []}`:                         http.StatusBadRequest,
			`{"inputs": ["a", "b"]}`:                 http.StatusRequestEntityTooLarge,
			`{"inputs": ["a"], "platform": "tidal"}`: http.StatusBadRequest,
			`{"inputs": ["a"], "extra": true}`:       http.StatusBadRequest,
		}
		for body, want := range tests {
			if got := post(t, ts, body).StatusCode; got != want {
				t.Errorf("body %s: expected %d, got %d", body, want, got)
			}
		}
	})
}

func TestForgetEndpoint(t *testing.T) {
	del := func(t *testing.T, ts *httptest.Server, query url.Values) (*http.Response, map[string]any) {
		t.Helper()
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache?"+query.Encode(), nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		return resp, body
	}

	t.Run("next match resolves afresh", func(t *testing.T) {
		ts, sp := newTestServer(t)
		q := url.Values{"url": {"https://open.spotify.com/track/" + bohemianID}}

		getResult(t, ts, q)
		resp, body := del(t, ts, q)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if body["forgotten"] != true || body["key"] != "spotify:"+bohemianID+"->apple_music" {
			t.Errorf("unexpected body %+v", body)
		}

		_, res := getResult(t, ts, q)
		if res.Method != models.MethodISRC {
			t.Errorf("expected a fresh ISRC_MATCH, got %s", res.Method)
		}
		if sp.TrackCalls != 2 {
			t.Errorf("expected two source fetches, got %d", sp.TrackCalls)
		}
	})

	t.Run("nothing cached", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, body := del(t, ts, url.Values{"id": {bohemianID}, "platform": {"spotify"}})
		if resp.StatusCode != http.StatusOK || body["forgotten"] != false {
			t.Errorf("expected 200 with forgotten=false, got %d %+v", resp.StatusCode, body)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, body := del(t, ts, url.Values{"url": {"https://example.com/track/1"}})
		if resp.StatusCode != http.StatusBadRequest || body["error"] == nil {
			t.Errorf("expected 400 with error, got %d %+v", resp.StatusCode, body)
		}
	})
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Cache  struct {
			Entries int `json:"entries"`
		} `json:"cache"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("unexpected health response %d %+v", resp.StatusCode, body)
	}
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[models.ErrorKind]int{
		models.KindInvalidInput:       http.StatusBadRequest,
		models.KindNoMatchFound:       http.StatusNotFound,
		models.KindAuthFailure:        http.StatusBadGateway,
		models.KindSourceFetchFailed:  http.StatusBadGateway,
		models.KindTargetSearchFailed: http.StatusBadGateway,
		models.ErrorKind("OTHER"):     http.StatusInternalServerError,
	}
	for kind, want := range tests {
		res := models.Failure(models.CacheKey{}, &models.MatchError{Kind: kind})
		if got := StatusFor(res); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}

	if got := StatusFor(models.MatchResult{Success: true}); got != http.StatusOK {
		t.Errorf("expected 200 for success, got %d", got)
	}
}

func TestServer_Serve(t *testing.T) {
	sp := tu.NewMockService(models.Spotify)
	srv := New(tasks.NewMatchEngine(services.NewRegistry(sp)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
