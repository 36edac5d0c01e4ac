package ratelimit

import (
	"sort"
	"sync"
	"time"
)

// Decision is the structured outcome of a rate-limit check. Rejections are
// a normal outcome, not an error.
type Decision struct {
	// Allowed reports whether the request was admitted.
	Allowed bool

	// Category is the resolved profile category.
	Category string

	// Limits is the profile the check was evaluated against.
	Limits Profile

	// Usage is the per-window request count before this request.
	Usage Usage

	// Remaining is the per-window quota left before this request.
	Remaining Usage

	// Reset holds informational per-window reset timestamps, computed as
	// now + window length rather than the true sliding-window boundary.
	Reset ResetTimes

	// Exceeded names the first violated constraint; empty when admitted.
	Exceeded string

	// RetryAfter is the suggested delay before retrying a window
	// rejection; zero for size rejections and admissions.
	RetryAfter time.Duration

	// ExportSize and RequestSize echo the checked sizes.
	ExportSize  int
	RequestSize int
}

// ResetTimes holds the approximate reset timestamp per window.
type ResetTimes struct {
	Minute time.Time
	Hour   time.Time
	Day    time.Time
}

// Limiter evaluates per-client usage ledgers against named limit profiles.
//
// Contract:
//   - Concurrency: safe for concurrent use; Check is atomic check-then-act.
//   - Errors: Check never fails; configuration problems surface from
//     NewLimiter and SetProfile.
type Limiter struct {
	mu       sync.Mutex
	profiles map[string]Profile
	usage    map[string][]usageRecord

	// now is replaceable in tests.
	now func() time.Time
}

// NewLimiter creates a limiter with the given profiles. A nil map uses
// DefaultProfiles. The default category must be present and every profile
// must validate.
func NewLimiter(profiles map[string]Profile) (*Limiter, error) {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	if _, ok := profiles[CategoryDefault]; !ok {
		return nil, ErrMissingDefault
	}

	owned := make(map[string]Profile, len(profiles))
	for category, profile := range profiles {
		if category == "" {
			return nil, ErrEmptyCategory
		}
		if err := profile.Validate(); err != nil {
			return nil, err
		}
		owned[category] = profile
	}

	return &Limiter{
		profiles: owned,
		usage:    make(map[string][]usageRecord),
		now:      time.Now,
	}, nil
}

// SetProfile registers or replaces the profile for a category.
// Malformed profiles are rejected here so per-request checks never fail.
func (l *Limiter) SetProfile(category string, profile Profile) error {
	if category == "" {
		return ErrEmptyCategory
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.profiles[category] = profile
	l.mu.Unlock()
	return nil
}

// Profile returns the profile for a category, falling back to the default
// profile for unknown categories.
func (l *Limiter) Profile(category string) Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	profile, _ := l.profileLocked(category)
	return profile
}

func (l *Limiter) profileLocked(category string) (Profile, string) {
	if profile, ok := l.profiles[category]; ok {
		return profile, category
	}
	return l.profiles[CategoryDefault], CategoryDefault
}

// Check atomically evaluates a client's ledger against the category's
// profile and, when admitted, records the request. Size checks never
// consume a ledger slot.
func (l *Limiter) Check(clientID, category string, exportSize, requestSize int) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	profile, resolved := l.profileLocked(category)

	records := prune(l.usage[clientID], now)
	l.usage[clientID] = records

	usage := windowUsage(records, now)

	decision := Decision{
		Category:    resolved,
		Limits:      profile,
		Usage:       usage,
		Remaining:   remaining(profile, usage),
		Reset:       resetTimes(now),
		ExportSize:  exportSize,
		RequestSize: requestSize,
	}

	// Windows are evaluated in increasing size so the smallest violated
	// constraint is the one reported.
	switch {
	case usage.Minute >= profile.RequestsPerMinute:
		decision.Exceeded = ExceededPerMinute
		decision.RetryAfter = minuteWindow
		return decision
	case usage.Hour >= profile.RequestsPerHour:
		decision.Exceeded = ExceededPerHour
		decision.RetryAfter = hourWindow
		return decision
	case usage.Day >= profile.RequestsPerDay:
		decision.Exceeded = ExceededPerDay
		decision.RetryAfter = dayWindow
		return decision
	}

	if exportSize > profile.ExportSizeLimit {
		decision.Exceeded = ExceededExportSize
		return decision
	}
	if requestSize > profile.RequestSizeLimit {
		decision.Exceeded = ExceededRequestSize
		return decision
	}

	l.usage[clientID] = append(records, usageRecord{
		timestamp:   now,
		requestSize: requestSize,
		exportSize:  exportSize,
	})
	decision.Allowed = true
	return decision
}

// Summary describes overall limiter state for monitoring.
type Summary struct {
	TotalClients     int
	ActiveClients    int
	RequestsLastHour int
	Categories       []string
}

// UsageSummary reports client activity across the limiter.
func (l *Limiter) UsageSummary() Summary {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	summary := Summary{
		TotalClients: len(l.usage),
		Categories:   make([]string, 0, len(l.profiles)),
	}
	for category := range l.profiles {
		summary.Categories = append(summary.Categories, category)
	}
	sort.Strings(summary.Categories)

	for _, records := range l.usage {
		if hour := countWithin(records, now, hourWindow); hour > 0 {
			summary.ActiveClients++
			summary.RequestsLastHour += hour
		}
	}
	return summary
}

// ClientUsage describes one client's ledger.
type ClientUsage struct {
	ClientID      string
	Usage         Usage
	TotalRequests int
	FirstRequest  time.Time
	LastRequest   time.Time
}

// ClientUsage reports a single client's window usage, or false if the
// client has no ledger.
func (l *Limiter) ClientUsage(clientID string) (ClientUsage, bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	records, ok := l.usage[clientID]
	if !ok || len(records) == 0 {
		return ClientUsage{}, false
	}

	return ClientUsage{
		ClientID:      clientID,
		Usage:         windowUsage(records, now),
		TotalRequests: len(records),
		FirstRequest:  records[0].timestamp,
		LastRequest:   records[len(records)-1].timestamp,
	}, true
}

// ResetClient clears a client's ledger (admin operation).
func (l *Limiter) ResetClient(clientID string) {
	l.mu.Lock()
	delete(l.usage, clientID)
	l.mu.Unlock()
}

func remaining(profile Profile, usage Usage) Usage {
	return Usage{
		Minute: max(0, profile.RequestsPerMinute-usage.Minute),
		Hour:   max(0, profile.RequestsPerHour-usage.Hour),
		Day:    max(0, profile.RequestsPerDay-usage.Day),
	}
}

func resetTimes(now time.Time) ResetTimes {
	return ResetTimes{
		Minute: now.Add(minuteWindow),
		Hour:   now.Add(hourWindow),
		Day:    now.Add(dayWindow),
	}
}
