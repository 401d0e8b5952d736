// Spotify Web API implementation of [Service]
//
// Requests go through zmb3/spotify with an app-only client-credentials token.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

const (
	spotifyName        = "Spotify"
	spotifySearchLimit = 5
)

// SpotifyService implements [Service] for the Spotify catalog.
//
// Tokens are fetched lazily and refreshed by the [oauth2] transport when they expire.
type SpotifyService struct {
	client  *spotify.Client
	tokens  oauth2.TokenSource
	limiter *rate.Limiter
	market  string
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	httpClient *http.Client
}

// WithSpotifyHTTPClient sets the client used for both token and API requests.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(o *spotifyOptions) { o.httpClient = c }
}

// NewSpotifyService creates a Spotify service from client credentials.
func NewSpotifyService(cfg shared.SpotifyConfig, opts ...SpotifyOption) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	var o spotifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	ctx := context.Background()
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	tokens := cc.TokenSource(ctx)

	clientOpts := []spotify.ClientOption{spotify.WithRetry(true)}
	if cfg.APIURL != "" {
		base := cfg.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, spotify.WithBaseURL(base))
	}

	return &SpotifyService{
		client:  spotify.New(oauth2.NewClient(ctx, tokens), clientOpts...),
		tokens:  tokens,
		limiter: newLimiter(cfg.RateLimit),
		market:  cfg.Market,
	}, nil
}

func (s *SpotifyService) Platform() models.Platform { return models.Spotify }

func (s *SpotifyService) Name() string {
	return spotifyName
}

// Authenticate fetches (or reuses) the client-credentials token.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	if _, err := s.tokens.Token(); err != nil {
		return transportError(spotifyName, err)
	}
	return nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, id string) (*models.TrackMetadata, error) {
	if err := waitLimiter(ctx, s.limiter, spotifyName); err != nil {
		return nil, err
	}

	t, err := s.client.GetTrack(ctx, spotify.ID(id), s.requestOptions()...)
	if err != nil {
		return nil, s.wrap(err)
	}

	meta := fromFullTrack(*t)
	return &meta, nil
}

// LookupISRC searches with the isrc: field filter.
func (s *SpotifyService) LookupISRC(ctx context.Context, isrc string) ([]models.Candidate, error) {
	return s.search(ctx, "isrc:"+isrc)
}

// Search queries track and artist field filters.
func (s *SpotifyService) Search(ctx context.Context, title, artist string) ([]models.Candidate, error) {
	return s.search(ctx, fmt.Sprintf("track:%s artist:%s", cleanQuery(title), cleanQuery(artist)))
}

func (s *SpotifyService) search(ctx context.Context, query string) ([]models.Candidate, error) {
	if err := waitLimiter(ctx, s.limiter, spotifyName); err != nil {
		return nil, err
	}

	opts := append(s.requestOptions(), spotify.Limit(spotifySearchLimit))
	res, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, s.wrap(err)
	}
	if res == nil || res.Tracks == nil {
		return nil, nil
	}

	candidates := make([]models.Candidate, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		candidates = append(candidates, fromFullTrack(t))
	}
	return candidates, nil
}

func (s *SpotifyService) requestOptions() []spotify.RequestOption {
	if s.market == "" {
		return nil
	}
	return []spotify.RequestOption{spotify.Market(s.market)}
}

func (s *SpotifyService) wrap(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return statusError(spotifyName, apiErr.Status, apiErr.Message)
	}
	return transportError(spotifyName, err)
}

// fromFullTrack keeps the primary artist only; catalogs disagree on how collaborators are joined.
func fromFullTrack(t spotify.FullTrack) models.TrackMetadata {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}

	id := t.ID.String()
	return models.TrackMetadata{
		ISRC:       strings.ToUpper(t.ExternalIDs["isrc"]),
		Title:      t.Name,
		Artist:     artist,
		Album:      t.Album.Name,
		DurationMS: int(t.Duration),
		PlatformID: id,
		Platform:   models.Spotify,
		URL:        TargetURL(models.Spotify, id, ""),
	}
}

// cleanQuery drops characters that the search syntax treats as operators.
func cleanQuery(s string) string {
	s = strings.NewReplacer(`"`, " ", ":", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
