package ratelimit

import (
	"strconv"
	"time"
)

// Header names attached to governed responses.
const (
	HeaderLimitMinute      = "X-RateLimit-Limit-Minute"
	HeaderLimitHour        = "X-RateLimit-Limit-Hour"
	HeaderLimitDay         = "X-RateLimit-Limit-Day"
	HeaderRemainingMinute  = "X-RateLimit-Remaining-Minute"
	HeaderRemainingHour    = "X-RateLimit-Remaining-Hour"
	HeaderRemainingDay     = "X-RateLimit-Remaining-Day"
	HeaderResetMinute      = "X-RateLimit-Reset-Minute"
	HeaderResetHour        = "X-RateLimit-Reset-Hour"
	HeaderResetDay         = "X-RateLimit-Reset-Day"
	HeaderExportSizeLimit  = "X-Export-Size-Limit"
	HeaderRequestSizeLimit = "X-Request-Size-Limit"
	HeaderCategory         = "X-RateLimit-Category"
	HeaderRetryAfter       = "Retry-After"
)

// Headers renders a decision as response header values: remaining quota,
// reset times and, on rejection, the retry delay.
func Headers(d Decision) map[string]string {
	headers := map[string]string{
		HeaderLimitMinute: strconv.Itoa(d.Limits.RequestsPerMinute),
		HeaderLimitHour:   strconv.Itoa(d.Limits.RequestsPerHour),
		HeaderLimitDay:    strconv.Itoa(d.Limits.RequestsPerDay),

		HeaderRemainingMinute: strconv.Itoa(d.Remaining.Minute),
		HeaderRemainingHour:   strconv.Itoa(d.Remaining.Hour),
		HeaderRemainingDay:    strconv.Itoa(d.Remaining.Day),

		HeaderResetMinute: d.Reset.Minute.UTC().Format(time.RFC3339),
		HeaderResetHour:   d.Reset.Hour.UTC().Format(time.RFC3339),
		HeaderResetDay:    d.Reset.Day.UTC().Format(time.RFC3339),

		HeaderExportSizeLimit:  strconv.Itoa(d.Limits.ExportSizeLimit),
		HeaderRequestSizeLimit: strconv.Itoa(d.Limits.RequestSizeLimit),
		HeaderCategory:         d.Category,
	}

	if d.RetryAfter > 0 {
		headers[HeaderRetryAfter] = strconv.Itoa(int(d.RetryAfter.Seconds()))
	}

	return headers
}
