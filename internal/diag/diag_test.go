package diag

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/zclaw/zclaw/internal/bus"
)

type stubLimiter struct {
	hour, day int
}

func (s *stubLimiter) RequestsThisHour() int { return s.hour }
func (s *stubLimiter) RequestsToday() int    { return s.day }

func testReporter() *Reporter {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	input := bus.NewQueue("input", 8, log)
	input.TrySend(bus.Message{Text: "queued"})

	r := New()
	r.Limiter = &stubLimiter{hour: 3, day: 41}
	r.HistoryLen = func() int { return 6 }
	r.Queues = []*bus.Queue{input}
	r.ClientCount = func() int { return 2 }
	r.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func TestValidScope(t *testing.T) {
	for _, s := range Scopes {
		if !ValidScope(s) {
			t.Errorf("ValidScope(%q) = false", s)
		}
	}
	for _, s := range []string{"", "telegram", "QUICK", "heap"} {
		if ValidScope(s) {
			t.Errorf("ValidScope(%q) = true", s)
		}
	}
}

func TestQuickReport(t *testing.T) {
	got := testReporter().Report("quick", false)
	for _, want := range []string{"Diag:", "req=3/hr,41/day", "history=6", "input=1/8", "clients=2"} {
		if !strings.Contains(got, want) {
			t.Errorf("quick report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\n") {
		t.Errorf("quick report should be a one-liner:\n%s", got)
	}
}

func TestRuntimeScopeVerbose(t *testing.T) {
	r := testReporter()
	terse := r.Report("runtime", false)
	if !strings.HasPrefix(terse, "Runtime: uptime=") {
		t.Errorf("terse runtime report = %q", terse)
	}
	verbose := r.Report("runtime", true)
	if !strings.HasPrefix(verbose, "Runtime diagnostics:\n") {
		t.Errorf("verbose runtime report = %q", verbose)
	}
	if !strings.Contains(verbose, "Goroutines:") {
		t.Errorf("verbose runtime report missing goroutine count:\n%s", verbose)
	}
}

func TestMemoryScope(t *testing.T) {
	r := testReporter()
	if got := r.Report("memory", false); !strings.HasPrefix(got, "Memory: alloc=") {
		t.Errorf("memory report = %q", got)
	}
	if got := r.Report("memory", true); !strings.HasPrefix(got, "Memory diagnostics:\n") {
		t.Errorf("verbose memory report = %q", got)
	}
}

func TestRatesScope(t *testing.T) {
	r := testReporter()
	if got := r.Report("rates", false); got != "Rates: requests=3/hr, 41/day" {
		t.Errorf("rates report = %q", got)
	}
	r.Limiter = nil
	if got := r.Report("rates", false); got != "Rates: limiter disabled" {
		t.Errorf("rates report without limiter = %q", got)
	}
}

func TestTimeScope(t *testing.T) {
	r := testReporter()
	got := r.Report("time", false)
	if !strings.Contains(got, "2026-08-28T12:00:00Z") || !strings.Contains(got, "tz=UTC") {
		t.Errorf("time report = %q", got)
	}
	verbose := r.Report("time", true)
	if !strings.Contains(verbose, "Unix: 1787918400") {
		t.Errorf("verbose time report = %q", verbose)
	}
}

func TestAllScope(t *testing.T) {
	got := testReporter().Report("all", true)
	for _, want := range []string{"Diagnostics:\n", "- Uptime:", "- Heap:", "- Requests: 3/hr, 41/day", "- Queues: input=1/8", "- Goroutines:", "- Version:"} {
		if !strings.Contains(got, want) {
			t.Errorf("all report missing %q:\n%s", want, got)
		}
	}
}

func TestNilFieldsDoNotPanic(t *testing.T) {
	r := New()
	for _, scope := range Scopes {
		if got := r.Report(scope, true); got == "" {
			t.Errorf("empty report for scope %q", scope)
		}
	}
}
