package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"trackbridge/pkg/tracklink"
)

// ProviderClient is the catalog adapter contract implemented per provider.
type ProviderClient interface {
	// Provider returns the provider this client talks to.
	Provider() Provider

	// ResolveByID fetches full track metadata by provider-scoped ID.
	// Returns ErrNotFound when the catalog has no such track.
	ResolveByID(ctx context.Context, id string) (*Track, error)

	// Search returns up to limit candidate tracks for the given metadata.
	Search(ctx context.Context, track *Track, limit int) ([]*Track, error)

	// TrackURL returns the canonical share link for a track ID.
	TrackURL(id string) string
}

// ResultCache stores terminal resolution results.
type ResultCache interface {
	Get(key string) (ResolutionResult, bool)
	Add(key string, result ResolutionResult)
}

// CallLimiter gates upstream calls with rate limiting and retry.
type CallLimiter interface {
	Do(ctx context.Context, provider Provider, op func(ctx context.Context) error) error
}

// MatchScorer picks the best candidate for a source track.
type MatchScorer interface {
	Best(source *Track, candidates []*Track) (*Track, float64, bool)
}

// SessionInvalidator marks a provider session unusable after an auth
// failure. Implementations must not trigger interactive re-login.
type SessionInvalidator interface {
	Invalidate(provider Provider)
}

// Metrics receives engine-level observations.
type Metrics interface {
	RecordResolution(source Provider, status ResolutionStatus, elapsed time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordProviderError(provider Provider, kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordResolution(Provider, ResolutionStatus, time.Duration) {}
func (nopMetrics) RecordCacheHit()                                            {}
func (nopMetrics) RecordCacheMiss()                                           {}
func (nopMetrics) RecordProviderError(Provider, string)                       {}

// Engine resolves track links across provider catalogs. Every resolution
// walks the same path: fetch source metadata, consult the cache, search the
// target catalog, score candidates, store the terminal outcome. Concurrent
// identical requests are coalesced into a single upstream flight.
type Engine struct {
	config   *Config
	clients  map[Provider]ProviderClient
	cache    ResultCache
	limiter  CallLimiter
	scorer   MatchScorer
	sessions SessionInvalidator
	metrics  Metrics
	parser   *tracklink.Parser
	replies  *ReplyFormatter
	logger   *zap.Logger

	flights singleflight.Group
}

func NewEngine(
	config *Config,
	clients []ProviderClient,
	cache ResultCache,
	limiter CallLimiter,
	scorer MatchScorer,
	sessions SessionInvalidator,
	metrics Metrics,
	logger *zap.Logger,
) *Engine {
	byProvider := make(map[Provider]ProviderClient, len(clients))
	for _, client := range clients {
		byProvider[client.Provider()] = client
	}

	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Engine{
		config:   config,
		clients:  byProvider,
		cache:    cache,
		limiter:  limiter,
		scorer:   scorer,
		sessions: sessions,
		metrics:  metrics,
		parser:   tracklink.NewParser(),
		replies:  NewReplyFormatter(config.Telegram.Language),
		logger:   logger,
	}
}

// ResolveFromText scans a chat message for a track link and, if one is
// found, resolves it to the other catalog. The second return value is false
// when the message warrants no reply at all.
func (e *Engine) ResolveFromText(ctx context.Context, rawText string) (string, bool) {
	link, ok := e.parser.Parse(rawText)
	if !ok {
		return "", false
	}

	source := ProviderID{Provider: Provider(link.Service), ID: link.TrackID}
	request := ResolutionRequest{Source: source, Target: source.Provider.Other()}

	result, err := e.Resolve(ctx, request)
	if err != nil {
		e.logger.Warn("Resolution aborted", zap.String("request", request.Key()), zap.Error(err))
		return "", false
	}

	return e.replies.Format(result)
}

// Resolve runs one resolution request to a terminal result. The returned
// error is non-nil only for invalid requests and caller cancellation;
// upstream failures are reported through the result status.
func (e *Engine) Resolve(ctx context.Context, request ResolutionRequest) (ResolutionResult, error) {
	if !request.Source.Provider.Valid() || !request.Target.Valid() {
		return ResolutionResult{}, fmt.Errorf("unknown provider in request %s", request.Key())
	}
	if request.Source.Provider == request.Target {
		return ResolutionResult{}, fmt.Errorf("source and target provider are both %s", request.Target)
	}
	if request.Source.ID == "" {
		return ResolutionResult{}, fmt.Errorf("empty source track ID")
	}

	value, err, shared := e.flights.Do(request.Key(), func() (any, error) {
		return e.resolve(ctx, request)
	})
	if err != nil {
		return ResolutionResult{}, err
	}

	if shared {
		e.logger.Debug("Coalesced into in-flight resolution", zap.String("request", request.Key()))
	}

	return value.(ResolutionResult), nil
}

func (e *Engine) resolve(ctx context.Context, request ResolutionRequest) (ResolutionResult, error) {
	start := time.Now()

	result := ResolutionResult{Request: request, ResolvedAt: start}

	status, err := e.run(ctx, request, &result)
	if err != nil {
		// Cancellation aborts the flow without a terminal verdict.
		return ResolutionResult{}, err
	}

	result.Status = status
	e.metrics.RecordResolution(request.Source.Provider, status, time.Since(start))

	e.logger.Info("Resolution finished",
		zap.String("request", request.Key()),
		zap.String("status", status.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// run executes the resolution state machine: source fetch, cache lookup,
// target search, scoring. Only the search is skipped on a cache hit; source
// metadata is always fetched fresh so a dead link never serves a stale
// conversion.
func (e *Engine) run(ctx context.Context, request ResolutionRequest, result *ResolutionResult) (ResolutionStatus, error) {
	sourceClient := e.clients[request.Source.Provider]
	targetClient := e.clients[request.Target]

	var source *Track
	err := e.limiter.Do(ctx, request.Source.Provider, func(ctx context.Context) error {
		var opErr error
		source, opErr = sourceClient.ResolveByID(ctx, request.Source.ID)
		return opErr
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return StatusSourceNotFound, nil
		default:
			return e.transient(request.Source.Provider, err)
		}
	}
	result.Source = source

	key := request.Key()
	if cached, ok := e.cache.Get(key); ok {
		e.metrics.RecordCacheHit()
		e.logger.Debug("Cache hit", zap.String("request", key))

		result.Target = cached.Target
		result.Confidence = cached.Confidence
		return cached.Status, nil
	}
	e.metrics.RecordCacheMiss()

	var candidates []*Track
	err = e.limiter.Do(ctx, request.Target, func(ctx context.Context) error {
		var opErr error
		candidates, opErr = targetClient.Search(ctx, source, e.config.Match.SearchLimit)
		return opErr
	})
	if err != nil {
		// A target catalog 404 on search is a definitive empty answer.
		if errors.Is(err, ErrNotFound) {
			e.cacheTerminal(key, result, StatusNoMatch)
			return StatusNoMatch, nil
		}
		return e.transient(request.Target, err)
	}

	best, confidence, matched := e.scorer.Best(source, candidates)
	result.Confidence = confidence
	if !matched {
		e.cacheTerminal(key, result, StatusNoMatch)
		return StatusNoMatch, nil
	}

	result.Target = best
	e.cacheTerminal(key, result, StatusMatched)
	return StatusMatched, nil
}

// transient classifies an upstream failure, invalidating the provider
// session on auth errors. All failures that are not definitive catalog
// answers end the flow as TransientError.
func (e *Engine) transient(provider Provider, err error) (ResolutionStatus, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}

	kind := "transient"
	if errors.Is(err, ErrAuthRequired) {
		kind = "auth"
		if e.sessions != nil {
			e.sessions.Invalidate(provider)
		}
	}

	e.metrics.RecordProviderError(provider, kind)
	e.logger.Warn("Provider call failed",
		zap.String("provider", string(provider)),
		zap.String("kind", kind),
		zap.Error(err))

	return StatusTransientError, nil
}

func (e *Engine) cacheTerminal(key string, result *ResolutionResult, status ResolutionStatus) {
	stored := *result
	stored.Status = status
	e.cache.Add(key, stored)
}
