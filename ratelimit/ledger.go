package ratelimit

import "time"

// Sliding window lengths and ledger retention.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	dayWindow    = 24 * time.Hour

	// retention keeps slightly more than a day of records so the day
	// window never loses counts to pruning.
	retention = 25 * time.Hour
)

// usageRecord is one admitted request. Immutable once appended.
type usageRecord struct {
	timestamp   time.Time
	requestSize int
	exportSize  int
}

// Usage is the number of admitted requests within each trailing window.
type Usage struct {
	Minute int
	Hour   int
	Day    int
}

// prune drops records older than the retention horizon. The ledger is
// ascending by timestamp, so the survivors are a suffix.
func prune(records []usageRecord, now time.Time) []usageRecord {
	cut := 0
	for cut < len(records) && now.Sub(records[cut].timestamp) > retention {
		cut++
	}
	return records[cut:]
}

// countWithin counts records inside the trailing window ending at now.
// It scans backward from the most recent record and stops at the first
// record outside the window, so cost is proportional to records within
// the window rather than total history.
func countWithin(records []usageRecord, now time.Time, window time.Duration) int {
	count := 0
	for i := len(records) - 1; i >= 0; i-- {
		if now.Sub(records[i].timestamp) > window {
			break
		}
		count++
	}
	return count
}

// windowUsage evaluates all three windows over one ledger.
func windowUsage(records []usageRecord, now time.Time) Usage {
	return Usage{
		Minute: countWithin(records, now, minuteWindow),
		Hour:   countWithin(records, now, hourWindow),
		Day:    countWithin(records, now, dayWindow),
	}
}
