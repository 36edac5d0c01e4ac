package ratelimit

import "fmt"

// Request categories with distinct limit profiles.
const (
	CategoryDefault = "default"
	CategorySearch  = "search"
	CategoryExport  = "export"
	CategorySystem  = "system"
)

// Constraint names reported when a check is rejected.
const (
	ExceededPerMinute   = "requests_per_minute"
	ExceededPerHour     = "requests_per_hour"
	ExceededPerDay      = "requests_per_day"
	ExceededExportSize  = "export_size_limit"
	ExceededRequestSize = "request_size_limit"
)

// Profile bundles the rate and size thresholds applied to one request
// category. Immutable once registered.
type Profile struct {
	// RequestsPerMinute, RequestsPerHour and RequestsPerDay cap the number
	// of admitted requests within each trailing window.
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int

	// ExportSizeLimit caps the number of items in a single export.
	ExportSizeLimit int

	// RequestSizeLimit caps the request size in bytes.
	RequestSizeLimit int
}

// Validate checks that every threshold is positive.
func (p Profile) Validate() error {
	for _, c := range []struct {
		name  string
		value int
	}{
		{ExceededPerMinute, p.RequestsPerMinute},
		{ExceededPerHour, p.RequestsPerHour},
		{ExceededPerDay, p.RequestsPerDay},
		{ExceededExportSize, p.ExportSizeLimit},
		{ExceededRequestSize, p.RequestSizeLimit},
	} {
		if c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidProfile, c.name, c.value)
		}
	}
	return nil
}

// DefaultProfiles returns the built-in profiles per request category.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		CategoryDefault: {
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
			RequestsPerDay:    10000,
			ExportSizeLimit:   1000,
			RequestSizeLimit:  1024 * 1024, // 1MB
		},
		CategorySearch: {
			RequestsPerMinute: 30,
			RequestsPerHour:   500,
			RequestsPerDay:    5000,
			ExportSizeLimit:   500,
			RequestSizeLimit:  512 * 1024, // 512KB
		},
		CategoryExport: {
			RequestsPerMinute: 5,
			RequestsPerHour:   50,
			RequestsPerDay:    200,
			ExportSizeLimit:   10000,
			RequestSizeLimit:  5 * 1024 * 1024, // 5MB
		},
		CategorySystem: {
			RequestsPerMinute: 120,
			RequestsPerHour:   2000,
			RequestsPerDay:    20000,
			ExportSizeLimit:   100,
			RequestSizeLimit:  256 * 1024, // 256KB
		},
	}
}
