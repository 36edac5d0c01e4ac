package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedStore(t *testing.T, keys ...string) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(DefaultPolicy())
	ctx := context.Background()
	for _, key := range keys {
		store.Set(ctx, key, "cached", time.Minute)
	}
	return store
}

func TestRouter_InvalidatePattern(t *testing.T) {
	store := seedStore(t,
		"get_route_by_id:123",
		"get_route_by_id:456",
		"get_stop_by_id:123",
	)
	router := NewRouter(store)
	ctx := context.Background()

	removed := router.InvalidatePattern("get_route_by_id")
	if removed != 2 {
		t.Errorf("InvalidatePattern = %d, want 2", removed)
	}

	if _, ok := store.Get(ctx, "get_route_by_id:123"); ok {
		t.Error("get_route_by_id:123 should be gone")
	}
	if _, ok := store.Get(ctx, "get_route_by_id:456"); ok {
		t.Error("get_route_by_id:456 should be gone")
	}
	if _, ok := store.Get(ctx, "get_stop_by_id:123"); !ok {
		t.Error("get_stop_by_id:123 should be untouched")
	}
}

func TestRouter_InvalidateByID(t *testing.T) {
	store := seedStore(t,
		"get_route_by_id:123",
		"get_route_stops:123",
		"get_route_trips:123",
		"get_route_shape:123",
		"get_route_by_id:999",
	)
	router := NewRouter(store)
	ctx := context.Background()

	removed, err := router.Invalidate(EntityRoutes, "123")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 4 {
		t.Errorf("Invalidate = %d, want 4", removed)
	}

	if _, ok := store.Get(ctx, "get_route_by_id:999"); !ok {
		t.Error("other route's entry should survive a per-id invalidation")
	}
}

func TestRouter_InvalidateSweepsGeospatial(t *testing.T) {
	store := seedStore(t,
		"get_stop_by_id:42",
		"search_stops:union",
		"get_nearby_stops:abc123",
		"get_nearby_routes:def456",
		"get_route_by_id:7",
	)
	router := NewRouter(store)
	ctx := context.Background()

	// A full stop sweep also clears geospatial entries, since geospatial
	// queries embed stop data.
	removed, err := router.Invalidate(EntityStops, "")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 4 {
		t.Errorf("Invalidate = %d, want 4", removed)
	}

	if _, ok := store.Get(ctx, "get_nearby_stops:abc123"); ok {
		t.Error("geospatial entry should be swept with stops")
	}
	if _, ok := store.Get(ctx, "get_route_by_id:7"); !ok {
		t.Error("route entry should survive a stop sweep")
	}
}

func TestRouter_InvalidateTripsByRoute(t *testing.T) {
	store := seedStore(t,
		"get_route_trips:55",
		"get_route_trips:66",
		"get_stop_departures:a",
		"get_stop_departures:b",
	)
	router := NewRouter(store)

	removed, err := router.Invalidate(EntityTrips, "55")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	// One route's trips plus every departure board
	if removed != 3 {
		t.Errorf("Invalidate = %d, want 3", removed)
	}
}

func TestRouter_InvalidateSystem(t *testing.T) {
	store := seedStore(t,
		"get_system_status",
		"get_active_alerts",
		"get_system_stats",
		"get_all_routes",
	)
	router := NewRouter(store)

	removed, err := router.Invalidate(EntitySystem, "")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Invalidate = %d, want 3", removed)
	}
}

func TestRouter_UnknownEntity(t *testing.T) {
	router := NewRouter(NewMemoryStore(DefaultPolicy()))

	_, err := router.Invalidate("vehicles", "")
	if !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Invalidate(vehicles) error = %v, want ErrUnknownEntity", err)
	}
}

func TestRouter_InvalidateAll(t *testing.T) {
	store := seedStore(t, "get_all_routes", "get_system_status")
	router := NewRouter(store)

	router.InvalidateAll()

	if stats := store.Stats(); stats.Size != 0 {
		t.Errorf("Size = %d after InvalidateAll, want 0", stats.Size)
	}
}

func TestRouter_Entities(t *testing.T) {
	router := NewRouter(NewMemoryStore(DefaultPolicy()))

	want := []string{EntityGeospatial, EntityRoutes, EntityStops, EntitySystem, EntityTrips}
	got := router.Entities()
	if len(got) != len(want) {
		t.Fatalf("Entities returned %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entities[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
