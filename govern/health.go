package govern

import (
	"math"

	"github.com/transitops/govern/cache"
)

// Health status labels, ordered from best to worst.
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusFair      = "fair"
	StatusPoor      = "poor"
)

// HealthReport scores cache effectiveness and suggests tuning actions.
type HealthReport struct {
	// Score is 0-100. A hit rate of 0.8 or better maps to 100; very small
	// caches are penalized because their hit rate is not yet meaningful.
	Score float64

	// Status buckets the score: excellent >= 80, good >= 60, fair >= 40,
	// poor below that.
	Status string

	Statistics cache.Statistics

	Recommendations []string
}

// Health computes the current cache health report.
func (s *Service) Health() HealthReport {
	stats := s.store.Stats()
	info := s.store.Info()

	score := math.Min(100, stats.HitRate()*125)
	if stats.Size < 10 {
		score *= 0.8
	}
	score = math.Round(score*100) / 100

	return HealthReport{
		Score:           score,
		Status:          healthStatus(score),
		Statistics:      stats,
		Recommendations: recommendations(stats, info),
	}
}

func healthStatus(score float64) string {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusFair
	default:
		return StatusPoor
	}
}

func recommendations(stats cache.Statistics, info []cache.EntryInfo) []string {
	var recs []string

	if stats.HitRate() < 0.5 {
		recs = append(recs, "Low cache hit rate detected. Consider increasing TTL values for stable data.")
	}
	if stats.Size < 10 && stats.TotalRequests() > 100 {
		recs = append(recs, "Cache size is small relative to request volume. Check TTL settings.")
	}
	if stats.Size > 1000 {
		recs = append(recs, "Large cache size detected. Consider implementing cache size limits.")
	}

	expired, lowAccess := 0, 0
	for _, entry := range info {
		if entry.Expired {
			expired++
		}
		if entry.AccessCount <= 1 {
			lowAccess++
		}
	}
	if float64(expired) > float64(stats.Size)*0.2 {
		recs = append(recs, "High number of expired entries. Consider running cache cleanup.")
	}
	if float64(lowAccess) > float64(stats.Size)*0.3 {
		recs = append(recs, "Many cache entries have low access counts. Consider adjusting caching strategy.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Cache is performing well. No immediate optimizations needed.")
	}
	return recs
}
