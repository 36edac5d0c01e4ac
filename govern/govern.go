package govern

import (
	"context"
	"errors"
	"time"

	"github.com/transitops/govern/cache"
	"github.com/transitops/govern/observe"
	"github.com/transitops/govern/ratelimit"
)

// ErrNilComputation indicates Cached was given a nil function.
var ErrNilComputation = errors.New("govern: computation is nil")

// Config configures a Service. The zero value is usable: defaults are
// filled in for every field.
type Config struct {
	// Policy controls default and maximum TTLs for cached results.
	// The zero value uses cache.DefaultPolicy.
	Policy cache.Policy

	// Profiles maps limit categories to profiles. Nil uses
	// ratelimit.DefaultProfiles. A non-nil map must include the default
	// category.
	Profiles map[string]ratelimit.Profile

	// Logger receives structured governance events. Nil discards them.
	Logger observe.Logger

	// Metrics receives lookup and admission counters. Nil discards them.
	Metrics observe.Metrics

	// Tracer produces query-scoped spans. Nil produces non-recording spans.
	Tracer observe.Tracer
}

// Service is the governance facade. All methods are safe for concurrent
// use.
type Service struct {
	store   *cache.MemoryStore
	memo    *cache.Memo
	router  *cache.Router
	limiter *ratelimit.Limiter
	log     observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
}

// New builds a Service, validating the limit profiles up front so
// per-request checks never fail.
func New(cfg Config) (*Service, error) {
	policy := cfg.Policy
	if policy == (cache.Policy{}) {
		policy = cache.DefaultPolicy()
	}

	limiter, err := ratelimit.NewLimiter(cfg.Profiles)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observe.NopTracer()
	}

	store := cache.NewMemoryStore(policy)
	memo := cache.NewMemo(store, nil)
	memo.OnLookup(func(ctx context.Context, op string, hit bool) {
		metrics.RecordLookup(ctx, op, hit)
	})

	return &Service{
		store:   store,
		memo:    memo,
		router:  cache.NewRouter(store),
		limiter: limiter,
		log:     log.WithComponent("govern"),
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Cached wraps a query computation with memoization, tracing, and
// computation metrics. TTL=0 uses the policy default; keyFn may be nil to
// derive keys from the arguments.
func (s *Service) Cached(op string, ttl time.Duration, keyFn cache.KeyFunc, fn cache.Func) cache.Func {
	if fn == nil {
		return func(ctx context.Context, args any) (any, error) {
			return nil, ErrNilComputation
		}
	}

	timed := func(ctx context.Context, args any) (any, error) {
		ctx, span := s.tracer.StartSpan(ctx, op)
		start := time.Now()

		value, err := fn(ctx, args)

		s.metrics.RecordComputation(ctx, op, time.Since(start), err)
		if err != nil {
			s.log.Warn(ctx, "query computation failed",
				observe.Field{Key: "op", Value: op},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		s.tracer.EndSpan(span, err)
		return value, err
	}

	return s.memo.Wrap(op, ttl, keyFn, timed)
}

// CheckAndAdmit evaluates a request against the category's limits and
// records the decision. Rejections are a normal outcome, not an error.
func (s *Service) CheckAndAdmit(ctx context.Context, clientID, category string, exportSize, requestSize int) ratelimit.Decision {
	decision := s.limiter.Check(clientID, category, exportSize, requestSize)

	s.metrics.RecordAdmission(ctx, decision.Category, decision.Allowed, decision.Exceeded)
	if !decision.Allowed {
		s.log.Warn(ctx, "request rejected",
			observe.Field{Key: "client", Value: clientID},
			observe.Field{Key: "category", Value: decision.Category},
			observe.Field{Key: "exceeded", Value: decision.Exceeded},
			observe.Field{Key: "retry_after", Value: decision.RetryAfter.String()},
		)
	}
	return decision
}

// HeadersFor renders the standard rate-limit response headers for a
// decision.
func (s *Service) HeadersFor(d ratelimit.Decision) map[string]string {
	return ratelimit.Headers(d)
}

// SetProfile registers or replaces the limit profile for a category.
func (s *Service) SetProfile(category string, profile ratelimit.Profile) error {
	return s.limiter.SetProfile(category, profile)
}

// Invalidate removes cached results for one entity, optionally scoped to a
// single ID, and returns how many entries were removed.
func (s *Service) Invalidate(ctx context.Context, entity, id string) (int, error) {
	removed, err := s.router.Invalidate(entity, id)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "cache invalidated",
		observe.Field{Key: "entity", Value: entity},
		observe.Field{Key: "id", Value: id},
		observe.Field{Key: "removed", Value: removed},
	)
	return removed, nil
}

// InvalidatePattern removes every cached entry whose key contains the
// substring.
func (s *Service) InvalidatePattern(substring string) int {
	return s.router.InvalidatePattern(substring)
}

// InvalidateAll clears the cache entirely.
func (s *Service) InvalidateAll(ctx context.Context) {
	s.router.InvalidateAll()
	s.log.Info(ctx, "cache cleared")
}

// Stats returns a snapshot of cache counters.
func (s *Service) Stats() cache.Statistics {
	return s.store.Stats()
}

// Info returns the per-entry cache listing for diagnostics.
func (s *Service) Info() []cache.EntryInfo {
	return s.store.Info()
}

// CleanupExpired removes expired cache entries and returns how many were
// removed.
func (s *Service) CleanupExpired() int {
	return s.store.CleanupExpired()
}

// UsageSummary reports limiter-wide client activity.
func (s *Service) UsageSummary() ratelimit.Summary {
	return s.limiter.UsageSummary()
}

// ClientUsage reports one client's ledger, or false if the client has no
// recorded requests.
func (s *Service) ClientUsage(clientID string) (ratelimit.ClientUsage, bool) {
	return s.limiter.ClientUsage(clientID)
}

// ResetClient clears a client's usage ledger (admin operation).
func (s *Service) ResetClient(ctx context.Context, clientID string) {
	s.limiter.ResetClient(clientID)
	s.log.Info(ctx, "client ledger reset",
		observe.Field{Key: "client", Value: clientID},
	)
}

// Run sweeps expired cache entries at the given interval until the context
// is canceled. Intended to be started in its own goroutine.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.CleanupExpired(); removed > 0 {
				s.log.Debug(ctx, "expired entries swept",
					observe.Field{Key: "removed", Value: removed},
				)
			}
		}
	}
}
