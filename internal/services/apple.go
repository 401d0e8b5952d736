// Apple Music catalog API implementation of [Service]
//
// Response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

const (
	appleName         = "Apple Music"
	appleBaseURL      = "https://api.music.apple.com"
	appleSearchLimit  = 5
	appleDefaultFront = "us"
)

// AppleSong is a catalog song resource.
type AppleSong struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Attributes AppleSongAttributes `json:"attributes"`
}

// AppleSongAttributes holds the song fields used for matching.
type AppleSongAttributes struct {
	Name             string `json:"name"`
	ArtistName       string `json:"artistName"`
	AlbumName        string `json:"albumName"`
	ISRC             string `json:"isrc"`
	DurationInMillis int    `json:"durationInMillis"`
	URL              string `json:"url"`
}

type appleSongsResponse struct {
	Data []AppleSong `json:"data"`
}

type appleSearchResponse struct {
	Results struct {
		Songs struct {
			Data []AppleSong `json:"data"`
		} `json:"songs"`
	} `json:"results"`
}

type appleErrorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// AppleMusicService implements [Service] for the Apple Music catalog.
//
// Rate limited (429) and server error responses are retried with exponential backoff.
type AppleMusicService struct {
	baseURL    string
	storefront string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
}

// AppleOption customizes an [AppleMusicService].
type AppleOption func(*AppleMusicService)

// WithAppleHTTPClient replaces the default HTTP client.
func WithAppleHTTPClient(c *http.Client) AppleOption {
	return func(a *AppleMusicService) { a.httpClient = c }
}

// WithAppleTokenProvider replaces the provider derived from config.
func WithAppleTokenProvider(p TokenProvider) AppleOption {
	return func(a *AppleMusicService) { a.tokens = p }
}

// WithAppleBackoff sets the base delay between retries.
func WithAppleBackoff(d time.Duration) AppleOption {
	return func(a *AppleMusicService) { a.backoff = d }
}

// NewAppleMusicService creates an Apple Music service from config.
func NewAppleMusicService(cfg shared.AppleMusicConfig, opts ...AppleOption) (*AppleMusicService, error) {
	a := &AppleMusicService{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		storefront: strings.ToLower(cfg.Storefront),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    newLimiter(cfg.RateLimit),
		backoff:    250 * time.Millisecond,
	}
	if cfg.MaxRetries > 0 {
		a.maxRetries = uint64(cfg.MaxRetries)
	}
	if a.baseURL == "" {
		a.baseURL = appleBaseURL
	}
	if a.storefront == "" {
		a.storefront = appleDefaultFront
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.tokens == nil {
		tokens, err := NewAppleTokenProvider(cfg)
		if err != nil {
			return nil, err
		}
		a.tokens = tokens
	}

	return a, nil
}

func (a *AppleMusicService) Platform() models.Platform { return models.AppleMusic }

func (a *AppleMusicService) Name() string {
	return appleName
}

// Storefront returns the default country code for catalog requests.
func (a *AppleMusicService) Storefront() string {
	return a.storefront
}

// Authenticate obtains a developer token and checks it against the storefront endpoint.
func (a *AppleMusicService) Authenticate(ctx context.Context) error {
	return a.doRequest(ctx, "/v1/storefronts/"+url.PathEscape(a.storefront), nil, nil)
}

// Track retrieves a song from the default storefront.
func (a *AppleMusicService) Track(ctx context.Context, id string) (*models.TrackMetadata, error) {
	return a.TrackInStorefront(ctx, a.storefront, id)
}

// TrackInStorefront retrieves a song from a specific storefront.
func (a *AppleMusicService) TrackInStorefront(ctx context.Context, storefront, id string) (*models.TrackMetadata, error) {
	if storefront == "" {
		storefront = a.storefront
	}

	var resp appleSongsResponse
	endpoint := fmt.Sprintf("/v1/catalog/%s/songs/%s", url.PathEscape(storefront), url.PathEscape(id))
	if err := a.doRequest(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: %s song %s", shared.ErrTrackNotFound, storefront, id)
	}

	meta := fromAppleSong(resp.Data[0], storefront)
	return &meta, nil
}

// LookupISRC uses the filter[isrc] catalog query.
func (a *AppleMusicService) LookupISRC(ctx context.Context, isrc string) ([]models.Candidate, error) {
	var resp appleSongsResponse
	params := url.Values{"filter[isrc]": {isrc}}
	if err := a.doRequest(ctx, a.catalogPath("songs"), params, &resp); err != nil {
		return nil, err
	}
	return a.candidates(resp.Data), nil
}

// Search runs a catalog term search restricted to songs.
func (a *AppleMusicService) Search(ctx context.Context, title, artist string) ([]models.Candidate, error) {
	var resp appleSearchResponse
	params := url.Values{
		"term":  {strings.TrimSpace(title + " " + artist)},
		"types": {"songs"},
		"limit": {fmt.Sprint(appleSearchLimit)},
	}
	if err := a.doRequest(ctx, a.catalogPath("search"), params, &resp); err != nil {
		return nil, err
	}
	return a.candidates(resp.Results.Songs.Data), nil
}

func (a *AppleMusicService) catalogPath(resource string) string {
	return fmt.Sprintf("/v1/catalog/%s/%s", url.PathEscape(a.storefront), resource)
}

func (a *AppleMusicService) candidates(songs []AppleSong) []models.Candidate {
	out := make([]models.Candidate, 0, len(songs))
	for _, s := range songs {
		out = append(out, fromAppleSong(s, a.storefront))
	}
	return out
}

// doRequest performs an authenticated GET, retrying rate limits and server errors.
func (a *AppleMusicService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	apiURL := a.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	backoff := retry.WithMaxRetries(a.maxRetries, retry.NewExponential(a.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := a.doOnce(ctx, apiURL, result)
		if errors.Is(err, shared.ErrRateLimited) || errors.Is(err, shared.ErrServiceUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (a *AppleMusicService) doOnce(ctx context.Context, apiURL string, result any) error {
	if err := waitLimiter(ctx, a.limiter, appleName); err != nil {
		return err
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return transportError(appleName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp appleErrorResponse
		detail := ""
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && len(errResp.Errors) > 0 {
			detail = errResp.Errors[0].Detail
			if detail == "" {
				detail = errResp.Errors[0].Title
			}
		}
		return statusError(appleName, resp.StatusCode, detail)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, appleName, err)
		}
	}

	return nil
}

func fromAppleSong(s AppleSong, storefront string) models.TrackMetadata {
	link := s.Attributes.URL
	if link == "" {
		link = TargetURL(models.AppleMusic, s.ID, storefront)
	}
	return models.TrackMetadata{
		ISRC:       strings.ToUpper(s.Attributes.ISRC),
		Title:      s.Attributes.Name,
		Artist:     s.Attributes.ArtistName,
		Album:      s.Attributes.AlbumName,
		DurationMS: s.Attributes.DurationInMillis,
		PlatformID: s.ID,
		Platform:   models.AppleMusic,
		URL:        link,
	}
}
