package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Func is the signature of a governed computation.
type Func func(ctx context.Context, args any) (any, error)

// KeyFunc overrides derived keys for a wrapped computation.
type KeyFunc func(args any) (string, error)

// LookupFunc observes cache lookups made by a Memo. hit is true when the
// store served the value without invoking the computation.
type LookupFunc func(ctx context.Context, op string, hit bool)

// Memo wraps computations so repeated calls with equal arguments reuse a
// stored result instead of recomputing.
//
// Contract:
//   - Concurrency: safe for concurrent use; concurrent misses for the same
//     key are collapsed into a single computation.
//   - Errors: computation errors are returned unchanged and never cached.
//   - Side effects: exactly one store mutation per miss, none per hit.
type Memo struct {
	store    Store
	keyer    Keyer
	onLookup LookupFunc
	group    singleflight.Group
}

// NewMemo creates a memoizing adapter over the given store.
// If keyer is nil, DefaultKeyer is used.
func NewMemo(store Store, keyer Keyer) *Memo {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Memo{
		store: store,
		keyer: keyer,
	}
}

// OnLookup registers a hook invoked after every lookup. Must be set before
// the Memo is shared between goroutines.
func (m *Memo) OnLookup(fn LookupFunc) {
	m.onLookup = fn
}

// Wrap returns a computation with the same contract as fn plus cache side
// effects. TTL=0 uses the store's default; keyFn may be nil to use derived
// keys.
func (m *Memo) Wrap(op string, ttl time.Duration, keyFn KeyFunc, fn Func) Func {
	return func(ctx context.Context, args any) (any, error) {
		return m.Do(ctx, op, args, ttl, keyFn, fn)
	}
}

// Do runs fn through the cache: on a hit the stored value is returned
// without invoking fn; on a miss fn runs once and its result is stored.
func (m *Memo) Do(ctx context.Context, op string, args any, ttl time.Duration, keyFn KeyFunc, fn Func) (any, error) {
	key, err := m.deriveKey(op, args, keyFn)
	if err != nil || ValidateKey(key) != nil {
		// Key derivation failed - compute without caching
		return fn(ctx, args)
	}

	if value, ok := m.store.Get(ctx, key); ok {
		m.lookup(ctx, op, true)
		return value, nil
	}
	m.lookup(ctx, op, false)

	value, err, _ := m.group.Do(key, func() (any, error) {
		// Another flight may have populated the key while we queued.
		// Peek, not Get: the miss was already counted above and this
		// re-check is not a second logical lookup.
		if value, ok := m.store.Peek(ctx, key); ok {
			return value, nil
		}

		result, err := fn(ctx, args)
		if err != nil {
			// Don't cache errors
			return nil, err
		}

		m.store.Set(ctx, key, result, ttl)
		return result, nil
	})
	return value, err
}

// Clear empties the underlying store.
func (m *Memo) Clear() {
	m.store.Clear()
}

// Stats returns the underlying store's statistics.
func (m *Memo) Stats() Statistics {
	return m.store.Stats()
}

func (m *Memo) deriveKey(op string, args any, keyFn KeyFunc) (string, error) {
	if keyFn != nil {
		return keyFn(args)
	}
	return m.keyer.Key(op, args)
}

func (m *Memo) lookup(ctx context.Context, op string, hit bool) {
	if m.onLookup != nil {
		m.onLookup(ctx, op, hit)
	}
}
