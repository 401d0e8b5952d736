// package services defines interface Service for reading streaming catalogs over HTTP
//
// Spotify (Web API via zmb3/spotify), Apple Music (catalog API)
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

// Service is a streaming catalog the resolver reads from.
//
// Errors wrap the sentinels in package shared so callers can classify them with [errors.Is].
type Service interface {
	// Platform identifies the catalog.
	Platform() models.Platform

	// Name returns the display name of the service (e.g., "Spotify", "Apple Music").
	Name() string

	// Authenticate verifies that credentials are usable, fetching or signing a token if needed.
	Authenticate(ctx context.Context) error

	// Track fetches metadata for a catalog ID.
	Track(ctx context.Context, id string) (*models.TrackMetadata, error)

	// LookupISRC returns the catalog tracks carrying isrc. An empty slice means none.
	LookupISRC(ctx context.Context, isrc string) ([]models.Candidate, error)

	// Search returns catalog tracks for a title/artist query, in the catalog's own order.
	Search(ctx context.Context, title, artist string) ([]models.Candidate, error)
}

// StorefrontService is implemented by catalogs that partition IDs by country.
type StorefrontService interface {
	TrackInStorefront(ctx context.Context, storefront, id string) (*models.TrackMetadata, error)
}

// Registry maps each platform to its configured [Service].
type Registry map[models.Platform]Service

// NewRegistry indexes svcs by platform. Nil services are skipped.
func NewRegistry(svcs ...Service) Registry {
	r := make(Registry, len(svcs))
	for _, s := range svcs {
		if s != nil {
			r[s.Platform()] = s
		}
	}
	return r
}

// Get returns the service for p, or [shared.ErrMissingCredentials] if none is configured.
func (r Registry) Get(p models.Platform) (Service, error) {
	if s, ok := r[p]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s is not configured", shared.ErrMissingCredentials, p.Label())
}

// statusError maps an HTTP status from a catalog API to a sentinel error.
func statusError(service string, status int, detail string) error {
	var base error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		base = shared.ErrAuthFailed
	case status == http.StatusNotFound:
		base = shared.ErrTrackNotFound
	case status == http.StatusTooManyRequests:
		base = shared.ErrRateLimited
	case status >= 500:
		base = shared.ErrServiceUnavailable
	default:
		base = shared.ErrAPIRequest
	}

	if detail != "" {
		return fmt.Errorf("%w: %s API error (status %d): %s", base, service, status, detail)
	}
	return fmt.Errorf("%w: %s API error: status %d", base, service, status)
}

// transportError classifies failures that never produced an API response,
// such as a rejected client-credentials exchange.
func transportError(service string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return fmt.Errorf("%w: %s token request failed (status %d)", shared.ErrAuthFailed, service, status)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", shared.ErrTimeout, service, err)
	}
	return fmt.Errorf("%w: %s request failed: %v", shared.ErrAPIRequest, service, err)
}

// newLimiter returns a limiter allowing rps requests per second, or no limit when rps <= 0.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func waitLimiter(ctx context.Context, l *rate.Limiter, service string) error {
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limiter: %v", shared.ErrTimeout, service, err)
	}
	return nil
}
