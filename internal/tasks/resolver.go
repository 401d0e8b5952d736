package tasks

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songmatch/internal/matching"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/services"
	"github.com/desertthunder/songmatch/internal/shared"
)

var isrcPattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// loggedCandidates caps the ranked candidates written to the debug log.
const loggedCandidates = 5

// CandidateFinder is the part of a target catalog the [Resolver] needs.
//
// [services.Service] satisfies it.
type CandidateFinder interface {
	LookupISRC(ctx context.Context, isrc string) ([]models.Candidate, error)
	Search(ctx context.Context, title, artist string) ([]models.Candidate, error)
}

// Resolver finds the target track for a source track: ISRC first, then a
// ranked metadata search. It never returns an error; every outcome is a [models.MatchResult].
type Resolver struct {
	scorer    *matching.Scorer
	threshold float64
	logger    *log.Logger
}

// ResolverOption customizes a [Resolver].
type ResolverOption func(*Resolver)

// WithScorer replaces the default title/artist weighting.
func WithScorer(s *matching.Scorer) ResolverOption {
	return func(r *Resolver) { r.scorer = s }
}

// WithThreshold sets the minimum accepted metadata score.
func WithThreshold(t float64) ResolverOption {
	return func(r *Resolver) { r.threshold = t }
}

// WithResolverLogger sets the logger for fallthroughs and scores.
func WithResolverLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver with the default scorer and a 0.6 threshold.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		scorer:    matching.DefaultScorer(),
		threshold: matching.DefaultThreshold,
		logger:    shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the minimum accepted metadata score.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Scorer returns the scorer used for ranking.
func (r *Resolver) Scorer() *matching.Scorer {
	return r.scorer
}

// Resolve matches source against the catalog behind finder.
func (r *Resolver) Resolve(ctx context.Context, source models.TrackMetadata, target models.Platform, finder CandidateFinder) models.MatchResult {
	key := models.CacheKey{SourcePlatform: source.Platform, SourceID: source.PlatformID, TargetPlatform: target}
	logger := r.logger.With("key", key.String())

	if strings.TrimSpace(source.Title) == "" || strings.TrimSpace(source.Artist) == "" {
		return failure(key, source, models.NewMatchError(models.KindInvalidInput,
			"source track %s is missing its title or artist", source.PlatformID))
	}

	if isrc, ok := NormalizeISRC(source.ISRC); ok {
		best, found, err := r.byISRC(ctx, source, isrc, finder)
		switch {
		case err != nil:
			logger.Warn("isrc lookup failed, using metadata search", "kind", models.KindISRCLookupFailed, "isrc", isrc, "err", err)
		case !found:
			logger.Debug("isrc not in target catalog, using metadata search", "kind", models.KindISRCLookupFailed, "isrc", isrc)
		default:
			logger.Debug("isrc match", "isrc", isrc, "target", best.PlatformID)
			return success(key, source, best, models.MethodISRC, 1.0)
		}
	} else if source.ISRC != "" {
		logger.Debug("ignoring malformed isrc", "isrc", source.ISRC)
	}

	candidates, err := finder.Search(ctx, source.Title, source.Artist)
	if err != nil {
		return failure(key, source, models.NewMatchError(targetErrorKind(err),
			"searching %s: %v", target.Label(), err))
	}

	ranked := r.scorer.RankAll(source, withIDs(candidates))
	if len(ranked) == 0 {
		return failure(key, source, models.NewMatchError(models.KindNoMatchFound,
			"%s returned no results for %s", target.Label(), source))
	}

	best := ranked[0]
	logger.Debug("ranked candidates", "count", len(ranked), "best", best.Candidate.String(), "score", best.Score)
	for i, c := range ranked[1:min(len(ranked), loggedCandidates)] {
		logger.Debug("runner-up", "rank", i+2, "candidate", c.Candidate.String(), "score", c.Score)
	}
	if best.Score < r.threshold {
		return failure(key, source, models.NewMatchError(models.KindNoMatchFound,
			"best candidate %s scored %.2f, below threshold %.2f", best.Candidate, best.Score, r.threshold))
	}

	return success(key, source, best.Candidate, models.MethodMetadata, best.Score)
}

// byISRC returns the catalog track for isrc. Duplicate or disagreeing hits
// are discarded and the ranker breaks any remaining ambiguity.
func (r *Resolver) byISRC(ctx context.Context, source models.TrackMetadata, isrc string, finder CandidateFinder) (models.Candidate, bool, error) {
	hits, err := finder.LookupISRC(ctx, isrc)
	if err != nil {
		return models.Candidate{}, false, err
	}

	seen := make(map[string]bool, len(hits))
	unique := make([]models.Candidate, 0, len(hits))
	for _, h := range withIDs(hits) {
		if seen[h.PlatformID] {
			continue
		}
		if got, ok := NormalizeISRC(h.ISRC); ok && got != isrc {
			continue
		}
		seen[h.PlatformID] = true
		unique = append(unique, h)
	}

	best, ok := r.scorer.Rank(source, unique)
	return best.Candidate, ok, nil
}

// NormalizeISRC upper-cases isrc and strips hyphens and spaces. ok is false
// unless the result is twelve alphanumerics.
func NormalizeISRC(isrc string) (string, bool) {
	isrc = strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(isrc))
	return isrc, isrcPattern.MatchString(isrc)
}

// targetErrorKind maps a catalog error to the failure kind reported to callers.
func targetErrorKind(err error) models.ErrorKind {
	if isAuthError(err) {
		return models.KindAuthFailure
	}
	return models.KindTargetSearchFailed
}

func isAuthError(err error) bool {
	return errors.Is(err, shared.ErrAuthFailed) ||
		errors.Is(err, shared.ErrTokenExpired) ||
		errors.Is(err, shared.ErrInvalidCredentials) ||
		errors.Is(err, shared.ErrMissingCredentials)
}

func withIDs(candidates []models.Candidate) []models.Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.PlatformID != "" {
			out = append(out, c)
		}
	}
	return out
}

func success(key models.CacheKey, source models.TrackMetadata, target models.Candidate, method models.MatchMethod, score float64) models.MatchResult {
	target.Platform = key.TargetPlatform
	link := target.URL
	if link == "" {
		link = services.TargetURL(key.TargetPlatform, target.PlatformID, "")
	}
	return models.MatchResult{
		Success:        true,
		SourcePlatform: key.SourcePlatform,
		SourceID:       key.SourceID,
		TargetPlatform: key.TargetPlatform,
		TargetID:       target.PlatformID,
		TargetURL:      link,
		Method:         method,
		Score:          score,
		Source:         &source,
		Target:         &target,
	}
}

func failure(key models.CacheKey, source models.TrackMetadata, err *models.MatchError) models.MatchResult {
	res := models.Failure(key, err)
	res.Source = &source
	return res
}
