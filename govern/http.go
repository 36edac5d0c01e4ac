package govern

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/transitops/govern/identity"
)

// defaultExcludedPaths are never rate limited: probes and diagnostics must
// stay reachable when a client is throttled.
var defaultExcludedPaths = []string{"/health", "/healthz", "/metrics"}

// rejectionBody is the JSON payload for a throttled request.
type rejectionBody struct {
	Error      string `json:"error"`
	Category   string `json:"category"`
	Exceeded   string `json:"exceeded"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// Middleware derives the client identity and category from each request,
// admits or rejects it, and attaches the rate-limit headers either way.
// Export size is not known at the transport boundary; export endpoints
// enforce it by calling CheckAndAdmit with the rendered size.
func (s *Service) Middleware(next http.Handler, excludePaths ...string) http.Handler {
	excluded := make(map[string]bool, len(defaultExcludedPaths)+len(excludePaths))
	for _, p := range defaultExcludedPaths {
		excluded[p] = true
	}
	for _, p := range excludePaths {
		excluded[p] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if excluded[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		client := identity.FromRequest(r)
		category := identity.CategoryForRequest(r)

		decision := s.CheckAndAdmit(r.Context(), string(client), category, 0, identity.RequestSize(r))
		for name, value := range s.HeadersFor(decision) {
			w.Header().Set(name, value)
		}

		if !decision.Allowed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejectionBody{
				Error:      "rate limit exceeded",
				Category:   decision.Category,
				Exceeded:   decision.Exceeded,
				RetryAfter: int(decision.RetryAfter / time.Second),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthResponse is the JSON response for the cache health endpoint.
type healthResponse struct {
	Score           float64        `json:"health_score"`
	Status          string         `json:"health_status"`
	Statistics      statisticsJSON `json:"statistics"`
	Recommendations []string       `json:"recommendations"`
	Timestamp       string         `json:"timestamp"`
}

type statisticsJSON struct {
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	Sets           int64   `json:"sets"`
	Deletes        int64   `json:"deletes"`
	Evictions      int64   `json:"evictions"`
	TotalRequests  int64   `json:"total_requests"`
	HitRate        float64 `json:"hit_rate"`
	Size           int     `json:"cache_size"`
	MemoryEstimate int     `json:"memory_estimate_bytes"`
}

// HealthHandler serves the cache health report as JSON. A poor score is
// reported with 503 so probes can alert on it.
func (s *Service) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.Health()

		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusPoor {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(healthResponse{
			Score:  report.Score,
			Status: report.Status,
			Statistics: statisticsJSON{
				Hits:           report.Statistics.Hits,
				Misses:         report.Statistics.Misses,
				Sets:           report.Statistics.Sets,
				Deletes:        report.Statistics.Deletes,
				Evictions:      report.Statistics.Evictions,
				TotalRequests:  report.Statistics.TotalRequests(),
				HitRate:        report.Statistics.HitRate(),
				Size:           report.Statistics.Size,
				MemoryEstimate: report.Statistics.MemoryEstimate,
			},
			Recommendations: report.Recommendations,
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// usageResponse is the JSON response for the limiter usage endpoint.
type usageResponse struct {
	TotalClients     int      `json:"total_clients"`
	ActiveClients    int      `json:"active_clients"`
	RequestsLastHour int      `json:"requests_last_hour"`
	Categories       []string `json:"categories"`
}

// UsageHandler serves limiter-wide usage as JSON.
func (s *Service) UsageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := s.UsageSummary()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(usageResponse{
			TotalClients:     summary.TotalClients,
			ActiveClients:    summary.ActiveClients,
			RequestsLastHour: summary.RequestsLastHour,
			Categories:       summary.Categories,
		})
	}
}

// LivenessHandler reports that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// RegisterHandlers registers the diagnostic handlers on the given mux.
func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/health/cache", s.HealthHandler())
	mux.HandleFunc("/health/ratelimit", s.UsageHandler())
}
