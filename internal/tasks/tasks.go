// package tasks implements track resolution between streaming catalogs.
//
// The core abstraction is MatchEngine, which parses a link, consults the result cache,
// fetches source metadata and hands it to the Resolver.
// Batch operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/songmatch/internal/cache"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/services"
	"github.com/desertthunder/songmatch/internal/shared"
)

// TrackCacher persists source metadata fetched during resolution.
type TrackCacher interface {
	CacheTrack(service, serviceID string, track models.TrackMetadata) error
}

// HistoryRecorder persists the outcome of each fresh resolution.
type HistoryRecorder interface {
	RecordMatch(result models.MatchResult) error
}

// Matcher resolves a single link or ID. [MatchEngine] implements it.
type Matcher interface {
	MatchTrack(ctx context.Context, input string, platform models.Platform) models.MatchResult
}

// MatchEngine resolves tracks from one catalog onto the other.
//
// Results are memoized for the life of the engine. Concurrent misses on the same
// key share one resolution.
type MatchEngine struct {
	services services.Registry
	resolver *Resolver
	cache    *cache.ResultCache
	group    singleflight.Group
	tracks   TrackCacher
	history  HistoryRecorder
	logger   *log.Logger
}

// EngineOption customizes a [MatchEngine].
type EngineOption func(*MatchEngine)

// WithResolver replaces the default resolver.
func WithResolver(r *Resolver) EngineOption {
	return func(e *MatchEngine) { e.resolver = r }
}

// WithCache replaces the default in-memory result cache.
func WithCache(c *cache.ResultCache) EngineOption {
	return func(e *MatchEngine) { e.cache = c }
}

// WithTrackCacher enables persistence of fetched source tracks.
func WithTrackCacher(t TrackCacher) EngineOption {
	return func(e *MatchEngine) { e.tracks = t }
}

// WithHistory enables recording of resolutions.
func WithHistory(h HistoryRecorder) EngineOption {
	return func(e *MatchEngine) { e.history = h }
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *MatchEngine) { e.logger = l }
}

// NewMatchEngine creates a new MatchEngine over the services in reg.
func NewMatchEngine(reg services.Registry, opts ...EngineOption) *MatchEngine {
	e := &MatchEngine{
		services: reg,
		resolver: NewResolver(),
		cache:    cache.New(),
		logger:   shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CacheStats reports result cache counters.
func (e *MatchEngine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Forget drops the cached result for input so the next request resolves it afresh,
// reporting whether anything was cached. Recorded history is left alone.
func (e *MatchEngine) Forget(input string, platform models.Platform) (models.CacheKey, bool, error) {
	key, err := KeyFor(input, platform)
	if err != nil {
		return key, false, err
	}
	dropped := e.cache.Forget(key)
	e.logger.Debug("forgot cached result", "key", key.String(), "dropped", dropped)
	return key, dropped, nil
}

// KeyFor parses input the way [MatchEngine.MatchTrack] does and returns the
// directed pair it would resolve.
func KeyFor(input string, platform models.Platform) (models.CacheKey, error) {
	ref, err := services.ParseInput(input, platform)
	if err != nil {
		return models.CacheKey{}, err
	}
	return keyFor(ref), nil
}

func keyFor(ref services.TrackRef) models.CacheKey {
	return models.CacheKey{SourcePlatform: ref.Platform, SourceID: ref.ID, TargetPlatform: ref.Platform.Other()}
}

// Resolver returns the resolver used for fresh lookups.
func (e *MatchEngine) Resolver() *Resolver {
	return e.resolver
}

// MatchTrack resolves input (a share link, spotify: URI or bare ID) on the
// platform opposite to its own.
//
// platform may be [models.PlatformUnknown] when input is a link or an ID whose shape
// identifies the catalog. A link that contradicts platform is invalid input.
func (e *MatchEngine) MatchTrack(ctx context.Context, input string, platform models.Platform) models.MatchResult {
	ref, err := services.ParseInput(input, platform)
	if err != nil {
		key := models.CacheKey{SourcePlatform: platform, SourceID: strings.TrimSpace(input), TargetPlatform: platform.Other()}
		return models.Failure(key, models.NewMatchError(models.KindInvalidInput, "%v", err))
	}

	key := keyFor(ref)
	if res, ok := e.cache.Get(key); ok {
		e.logger.Debug("cache hit", "key", key.String(), "resolved_by", res.ResolvedBy)
		return res
	}

	if err := ctx.Err(); err != nil {
		return abandoned(key, err)
	}

	// The shared resolution outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := e.group.DoChan(key.String(), func() (any, error) {
		return e.resolve(context.WithoutCancel(ctx), ref, key), nil
	})
	select {
	case r := <-ch:
		if r.Shared {
			e.logger.Debug("shared in-flight resolution", "key", key.String())
		}
		return r.Val.(models.MatchResult).Clone()
	case <-ctx.Done():
		e.logger.Debug("caller left in-flight resolution", "key", key.String(), "err", ctx.Err())
		return abandoned(key, ctx.Err())
	}
}

// abandoned is the result for a caller whose context ended before its resolution finished.
func abandoned(key models.CacheKey, err error) models.MatchResult {
	return models.Failure(key, models.NewMatchError(models.KindSourceFetchFailed, "resolution abandoned: %v", err))
}

// resolve runs one uncached resolution and stores the outcome.
func (e *MatchEngine) resolve(ctx context.Context, ref services.TrackRef, key models.CacheKey) models.MatchResult {
	logger := e.logger.With("key", key.String())

	src, err := e.services.Get(key.SourcePlatform)
	if err != nil {
		return models.Failure(key, models.NewMatchError(models.KindAuthFailure, "%v", err))
	}
	tgt, err := e.services.Get(key.TargetPlatform)
	if err != nil {
		return models.Failure(key, models.NewMatchError(models.KindAuthFailure, "%v", err))
	}

	source, err := fetchSource(ctx, src, ref)
	if err != nil {
		kind := models.KindSourceFetchFailed
		if isAuthError(err) {
			kind = models.KindAuthFailure
		}
		logger.Warn("source fetch failed", "kind", kind, "err", err)
		return models.Failure(key, models.NewMatchError(kind, "fetching %s track %s: %v", src.Name(), ref.ID, err))
	}

	source.Platform = key.SourcePlatform
	source.PlatformID = key.SourceID
	e.cacheTrack(logger, src, *source)

	res := e.resolver.Resolve(ctx, *source, key.TargetPlatform, tgt)

	// Invalid source metadata is a catalog data problem worth retrying later.
	if res.Kind() == models.KindInvalidInput {
		logger.Info("source metadata incomplete", "msg", res.Error.Message)
		return res
	}

	e.cache.Put(key, res)
	e.record(logger, res)

	if res.Success {
		logger.Info("resolved", "method", res.Method, "target", res.TargetID, "score", fmt.Sprintf("%.3f", res.Score))
	} else {
		logger.Info("no match", "kind", res.Kind(), "msg", res.Error.Message)
	}
	return res
}

// fetchSource honors the storefront embedded in Apple Music links.
func fetchSource(ctx context.Context, svc services.Service, ref services.TrackRef) (*models.TrackMetadata, error) {
	if sf, ok := svc.(services.StorefrontService); ok && ref.Storefront != "" {
		return sf.TrackInStorefront(ctx, ref.Storefront, ref.ID)
	}
	return svc.Track(ctx, ref.ID)
}

// cacheTrack persists source metadata; failures are logged and ignored.
func (e *MatchEngine) cacheTrack(logger *log.Logger, svc services.Service, track models.TrackMetadata) {
	if e.tracks == nil {
		return
	}
	if err := e.tracks.CacheTrack(svc.Platform().String(), track.PlatformID, track); err != nil {
		logger.Warn("failed to cache track", "err", err)
	}
}

func (e *MatchEngine) record(logger *log.Logger, res models.MatchResult) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordMatch(res); err != nil {
		logger.Warn("failed to record match", "err", err)
	}
}

// Validate re-fetches the target of a successful result to confirm it exists.
func (e *MatchEngine) Validate(ctx context.Context, res models.MatchResult) error {
	if !res.Success {
		return fmt.Errorf("%w: nothing to validate for a failed match", shared.ErrInvalidInput)
	}

	tgt, err := e.services.Get(res.TargetPlatform)
	if err != nil {
		return err
	}

	track, err := tgt.Track(ctx, res.TargetID)
	if err != nil {
		return fmt.Errorf("target %s %s: %w", tgt.Name(), res.TargetID, err)
	}
	e.logger.Debug("validated target", "target", track.String())
	return nil
}
