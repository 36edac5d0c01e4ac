package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// testClock pins a limiter to a controllable time source.
func testClock(l *Limiter) *time.Time {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return &now
}

func TestNewLimiter_Defaults(t *testing.T) {
	l, err := NewLimiter(nil)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	p := l.Profile(CategoryDefault)
	if p.RequestsPerMinute != 60 {
		t.Errorf("default RequestsPerMinute = %d, want 60", p.RequestsPerMinute)
	}
	if p := l.Profile(CategoryExport); p.RequestsPerMinute != 5 {
		t.Errorf("export RequestsPerMinute = %d, want 5", p.RequestsPerMinute)
	}
}

func TestNewLimiter_MissingDefault(t *testing.T) {
	_, err := NewLimiter(map[string]Profile{
		CategorySearch: DefaultProfiles()[CategorySearch],
	})
	if !errors.Is(err, ErrMissingDefault) {
		t.Errorf("NewLimiter error = %v, want ErrMissingDefault", err)
	}
}

func TestNewLimiter_InvalidProfile(t *testing.T) {
	profiles := DefaultProfiles()
	profiles["broken"] = Profile{RequestsPerMinute: 10} // missing other caps

	_, err := NewLimiter(profiles)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("NewLimiter error = %v, want ErrInvalidProfile", err)
	}
}

func TestLimiter_MinuteLimit(t *testing.T) {
	l, err := NewLimiter(nil)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	testClock(l)

	// The default profile admits 60 requests per minute
	for i := 0; i < 60; i++ {
		d := l.Check("ip:10.0.0.1", CategoryDefault, 0, 0)
		if !d.Allowed {
			t.Fatalf("request %d rejected, want admitted (exceeded=%s)", i+1, d.Exceeded)
		}
	}

	// The 61st within the window is rejected
	d := l.Check("ip:10.0.0.1", CategoryDefault, 0, 0)
	if d.Allowed {
		t.Fatal("61st request admitted, want rejected")
	}
	if d.Exceeded != ExceededPerMinute {
		t.Errorf("Exceeded = %q, want %q", d.Exceeded, ExceededPerMinute)
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", d.RetryAfter)
	}
	if d.Usage.Minute != 60 {
		t.Errorf("Usage.Minute = %d, want 60", d.Usage.Minute)
	}
	if d.Remaining.Minute != 0 {
		t.Errorf("Remaining.Minute = %d, want 0", d.Remaining.Minute)
	}
}

func TestLimiter_RejectionDoesNotConsumeSlot(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	for i := 0; i < 60; i++ {
		l.Check("client", CategoryDefault, 0, 0)
	}
	l.Check("client", CategoryDefault, 0, 0) // rejected

	usage, ok := l.ClientUsage("client")
	if !ok {
		t.Fatal("ClientUsage should find the client")
	}
	if usage.TotalRequests != 60 {
		t.Errorf("TotalRequests = %d, want 60 (rejection recorded no slot)", usage.TotalRequests)
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l, _ := NewLimiter(nil)
	now := testClock(l)

	for i := 0; i < 60; i++ {
		if d := l.Check("client", CategoryDefault, 0, 0); !d.Allowed {
			t.Fatalf("request %d rejected during fill", i+1)
		}
	}
	if d := l.Check("client", CategoryDefault, 0, 0); d.Allowed {
		t.Fatal("request inside the full window should be rejected")
	}

	// Advance past the minute window; the hour window still counts the
	// earlier requests.
	*now = now.Add(61 * time.Second)

	d := l.Check("client", CategoryDefault, 0, 0)
	if !d.Allowed {
		t.Fatalf("request after window slid should be admitted, exceeded=%s", d.Exceeded)
	}
	if d.Usage.Minute != 0 {
		t.Errorf("Usage.Minute = %d after slide, want 0", d.Usage.Minute)
	}
	if d.Usage.Hour != 60 {
		t.Errorf("Usage.Hour = %d after slide, want 60", d.Usage.Hour)
	}
}

func TestLimiter_WindowIndependence(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	// Fill only the minute window; hour (1000) and day (10000) are far
	// from their limits.
	for i := 0; i < 60; i++ {
		l.Check("client", CategoryDefault, 0, 0)
	}

	d := l.Check("client", CategoryDefault, 0, 0)
	if d.Allowed {
		t.Fatal("request should be rejected on the minute window")
	}
	if d.Exceeded != ExceededPerMinute {
		t.Errorf("Exceeded = %q, want the smallest violated window %q", d.Exceeded, ExceededPerMinute)
	}
	if d.Usage.Hour >= d.Limits.RequestsPerHour {
		t.Errorf("hour window unexpectedly full: %d", d.Usage.Hour)
	}
}

func TestLimiter_HourLimit(t *testing.T) {
	profiles := DefaultProfiles()
	profiles["bursty"] = Profile{
		RequestsPerMinute: 1000,
		RequestsPerHour:   10,
		RequestsPerDay:    10000,
		ExportSizeLimit:   100,
		RequestSizeLimit:  1024,
	}
	l, err := NewLimiter(profiles)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	now := testClock(l)

	// Spread 10 requests across minutes so the minute window never trips
	for i := 0; i < 10; i++ {
		if d := l.Check("client", "bursty", 0, 0); !d.Allowed {
			t.Fatalf("request %d rejected during fill", i+1)
		}
		*now = now.Add(2 * time.Minute)
	}

	d := l.Check("client", "bursty", 0, 0)
	if d.Allowed {
		t.Fatal("11th request within the hour should be rejected")
	}
	if d.Exceeded != ExceededPerHour {
		t.Errorf("Exceeded = %q, want %q", d.Exceeded, ExceededPerHour)
	}
	if d.RetryAfter != time.Hour {
		t.Errorf("RetryAfter = %v, want 1h", d.RetryAfter)
	}
}

func TestLimiter_ExportSizeRejectedOnFirstCall(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	// No prior requests, but the export exceeds the default cap of 1000
	d := l.Check("fresh-client", CategoryDefault, 5000, 0)
	if d.Allowed {
		t.Fatal("oversized export should be rejected regardless of window state")
	}
	if d.Exceeded != ExceededExportSize {
		t.Errorf("Exceeded = %q, want %q", d.Exceeded, ExceededExportSize)
	}
	if d.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v for a size rejection, want 0", d.RetryAfter)
	}
	if d.ExportSize != 5000 {
		t.Errorf("ExportSize = %d, want 5000", d.ExportSize)
	}

	// Size rejections never consume a ledger slot
	if _, ok := l.ClientUsage("fresh-client"); ok {
		t.Error("size rejection should not create a ledger entry")
	}
}

func TestLimiter_RequestSizeRejected(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	d := l.Check("client", CategoryDefault, 0, 2*1024*1024)
	if d.Allowed {
		t.Fatal("oversized request should be rejected")
	}
	if d.Exceeded != ExceededRequestSize {
		t.Errorf("Exceeded = %q, want %q", d.Exceeded, ExceededRequestSize)
	}
}

func TestLimiter_UnknownCategoryFallsBack(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	d := l.Check("client", "no-such-category", 0, 0)
	if !d.Allowed {
		t.Fatal("request under an unknown category should still be evaluated")
	}
	if d.Category != CategoryDefault {
		t.Errorf("Category = %q, want fallback %q", d.Category, CategoryDefault)
	}
	if d.Limits.RequestsPerMinute != 60 {
		t.Errorf("Limits.RequestsPerMinute = %d, want default 60", d.Limits.RequestsPerMinute)
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	for i := 0; i < 60; i++ {
		l.Check("api_key:alpha", CategoryDefault, 0, 0)
	}
	if d := l.Check("api_key:alpha", CategoryDefault, 0, 0); d.Allowed {
		t.Fatal("alpha should be rejected")
	}

	if d := l.Check("api_key:beta", CategoryDefault, 0, 0); !d.Allowed {
		t.Error("beta should be unaffected by alpha's usage")
	}
}

func TestLimiter_Retention(t *testing.T) {
	l, _ := NewLimiter(nil)
	now := testClock(l)

	l.Check("client", CategoryDefault, 0, 0)
	l.Check("client", CategoryDefault, 0, 0)

	// Past the retention horizon the old records are pruned on access
	*now = now.Add(26 * time.Hour)
	l.Check("client", CategoryDefault, 0, 0)

	usage, ok := l.ClientUsage("client")
	if !ok {
		t.Fatal("ClientUsage should find the client")
	}
	if usage.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d after retention pruning, want 1", usage.TotalRequests)
	}
}

func TestLimiter_ConcurrentNoOveradmission(t *testing.T) {
	profiles := DefaultProfiles()
	profiles[CategoryDefault] = Profile{
		RequestsPerMinute: 50,
		RequestsPerHour:   1000,
		RequestsPerDay:    10000,
		ExportSizeLimit:   1000,
		RequestSizeLimit:  1024 * 1024,
	}
	l, err := NewLimiter(profiles)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	const callers = 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if d := l.Check("contended-client", CategoryDefault, 0, 0); d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("admitted = %d under contention, want exactly 50", admitted)
	}
}

func TestLimiter_SetProfile(t *testing.T) {
	l, _ := NewLimiter(nil)

	err := l.SetProfile("bulk", Profile{
		RequestsPerMinute: 2,
		RequestsPerHour:   10,
		RequestsPerDay:    50,
		ExportSizeLimit:   100000,
		RequestSizeLimit:  10 * 1024 * 1024,
	})
	if err != nil {
		t.Fatalf("SetProfile failed: %v", err)
	}
	testClock(l)

	l.Check("client", "bulk", 0, 0)
	l.Check("client", "bulk", 0, 0)
	if d := l.Check("client", "bulk", 0, 0); d.Allowed {
		t.Error("third bulk request should be rejected")
	}

	// Malformed profiles fail fast at registration
	if err := l.SetProfile("bad", Profile{}); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("SetProfile error = %v, want ErrInvalidProfile", err)
	}
	if err := l.SetProfile("", DefaultProfiles()[CategoryDefault]); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("SetProfile error = %v, want ErrEmptyCategory", err)
	}
}

func TestLimiter_UsageSummary(t *testing.T) {
	l, _ := NewLimiter(nil)
	now := testClock(l)

	l.Check("a", CategoryDefault, 0, 0)
	l.Check("a", CategoryDefault, 0, 0)
	l.Check("b", CategorySearch, 0, 0)

	// One stale client outside the hour window
	l.Check("c", CategoryDefault, 0, 0)
	*now = now.Add(2 * time.Hour)
	l.Check("a", CategoryDefault, 0, 0)

	summary := l.UsageSummary()
	if summary.TotalClients != 3 {
		t.Errorf("TotalClients = %d, want 3", summary.TotalClients)
	}
	if summary.ActiveClients != 1 {
		t.Errorf("ActiveClients = %d, want 1", summary.ActiveClients)
	}
	if summary.RequestsLastHour != 1 {
		t.Errorf("RequestsLastHour = %d, want 1", summary.RequestsLastHour)
	}
	if len(summary.Categories) != 4 {
		t.Errorf("Categories = %v, want 4 entries", summary.Categories)
	}
}

func TestLimiter_ResetClient(t *testing.T) {
	l, _ := NewLimiter(nil)
	testClock(l)

	for i := 0; i < 60; i++ {
		l.Check("client", CategoryDefault, 0, 0)
	}
	if d := l.Check("client", CategoryDefault, 0, 0); d.Allowed {
		t.Fatal("client should be rejected before reset")
	}

	l.ResetClient("client")

	if d := l.Check("client", CategoryDefault, 0, 0); !d.Allowed {
		t.Error("client should be admitted after reset")
	}
}
