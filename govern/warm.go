package govern

import (
	"context"
	"time"

	"github.com/transitops/govern/cache"
	"github.com/transitops/govern/observe"
)

// Loader describes one cache-warming computation.
type Loader struct {
	// Op is the operation name the result is cached under.
	Op string

	// Args are passed to Load and folded into the cache key.
	Args any

	// TTL overrides the policy default for the warmed entry; 0 uses the
	// default.
	TTL time.Duration

	// Load computes the value to warm.
	Load cache.Func
}

// WarmResult reports the outcome of one loader.
type WarmResult struct {
	Op  string
	Err error
}

// Warmed counts the loaders that succeeded.
func Warmed(results []WarmResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Warm pre-populates the cache by running each loader through the cached
// path. Failures are logged and reported per loader; one failing loader
// never aborts the rest.
func (s *Service) Warm(ctx context.Context, loaders []Loader) []WarmResult {
	results := make([]WarmResult, 0, len(loaders))

	for _, loader := range loaders {
		fn := s.Cached(loader.Op, loader.TTL, nil, loader.Load)
		_, err := fn(ctx, loader.Args)
		if err != nil {
			s.log.Warn(ctx, "cache warm failed",
				observe.Field{Key: "op", Value: loader.Op},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		results = append(results, WarmResult{Op: loader.Op, Err: err})
	}

	s.log.Info(ctx, "cache warm finished",
		observe.Field{Key: "loaders", Value: len(loaders)},
		observe.Field{Key: "warmed", Value: Warmed(results)},
	)
	return results
}
