package cache

import "sort"

// Transit entity types with cached derived queries.
const (
	EntityStops      = "stops"
	EntityRoutes     = "routes"
	EntityTrips      = "trips"
	EntitySystem     = "system"
	EntityGeospatial = "geospatial"
)

// Router deletes cache entries by pattern and exposes named invalidation
// groups per transit entity.
type Router struct {
	store  Store
	groups map[string][]string
}

// NewRouter creates an invalidation router over the given store.
// The entity groups are static: they name the query operations whose keys
// embed each entity.
func NewRouter(store Store) *Router {
	return &Router{
		store: store,
		groups: map[string][]string{
			EntityStops:      {"get_stop_by_id", "search_stops", "get_stop_routes"},
			EntityRoutes:     {"get_all_routes", "get_route_by_id", "get_route_stops", "get_route_shape"},
			EntityTrips:      {"get_route_trips", "get_stop_departures"},
			EntitySystem:     {"get_system_status", "get_active_alerts", "get_system_stats"},
			EntityGeospatial: {"get_nearby_stops", "get_nearby_routes"},
		},
	}
}

// InvalidatePattern deletes every key containing the substring and returns
// how many entries were removed.
func (r *Router) InvalidatePattern(substring string) int {
	return r.store.DeleteMatching(substring)
}

// Invalidate removes cached queries for an entity type. With an id, only
// that entity's derived keys are targeted; without one, every pattern in
// the entity's group is swept. Stop and route sweeps also sweep the
// geospatial group, since geospatial queries embed both.
func (r *Router) Invalidate(entity, id string) (int, error) {
	patterns, ok := r.groups[entity]
	if !ok {
		return 0, ErrUnknownEntity
	}

	removed := 0

	if id != "" {
		for _, p := range r.idPatterns(entity, id) {
			removed += r.store.DeleteMatching(p)
		}
		return removed, nil
	}

	for _, p := range patterns {
		removed += r.store.DeleteMatching(p)
	}

	if entity == EntityStops || entity == EntityRoutes {
		for _, p := range r.groups[EntityGeospatial] {
			removed += r.store.DeleteMatching(p)
		}
	}

	return removed, nil
}

// InvalidateAll clears the whole store.
func (r *Router) InvalidateAll() {
	r.store.Clear()
}

// Entities returns the known entity types, sorted.
func (r *Router) Entities() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// idPatterns lists the derived keys known to embed a specific entity id.
func (r *Router) idPatterns(entity, id string) []string {
	switch entity {
	case EntityStops:
		return []string{
			"get_stop_by_id:" + id,
			"get_stop_routes:" + id,
			"get_stop_departures:" + id,
		}
	case EntityRoutes:
		return []string{
			"get_route_by_id:" + id,
			"get_route_stops:" + id,
			"get_route_trips:" + id,
			"get_route_shape:" + id,
		}
	case EntityTrips:
		// Trip data is keyed by route; departures are swept wholesale
		// because any stop may be affected.
		return []string{
			"get_route_trips:" + id,
			"get_stop_departures",
		}
	default:
		return r.groups[entity]
	}
}
