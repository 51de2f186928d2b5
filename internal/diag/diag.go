// Package diag renders runtime diagnostics for the system_diag tool
// and the /diag command. Reports are scoped so the model (or a human
// on the console) can ask for just the slice it cares about instead
// of the whole dump.
package diag

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/zclaw/zclaw/internal/buildinfo"
	"github.com/zclaw/zclaw/internal/bus"
)

// Scopes lists the accepted report scopes.
var Scopes = []string{"quick", "runtime", "memory", "rates", "time", "all"}

// ValidScope reports whether s names a known scope.
func ValidScope(s string) bool {
	for _, known := range Scopes {
		if s == known {
			return true
		}
	}
	return false
}

// Limiter is the slice of the rate limiter the rates scope reads.
type Limiter interface {
	RequestsThisHour() int
	RequestsToday() int
}

// Reporter gathers live process state into diagnostic text. Fields are
// wired during startup before any report is requested; nil fields are
// reported as unavailable rather than causing a panic.
type Reporter struct {
	Limiter     Limiter
	HistoryLen  func() int
	Queues      []*bus.Queue
	ClientCount func() int

	now func() time.Time
}

// New creates an empty reporter. Callers populate the exported fields
// as the subsystems come up.
func New() *Reporter {
	return &Reporter{now: time.Now}
}

// Report renders the requested scope. Unknown scopes fall back to the
// quick one-liner; callers validate scope before reaching here.
func (r *Reporter) Report(scope string, verbose bool) string {
	switch scope {
	case "runtime":
		return r.runtimeReport(verbose)
	case "memory":
		return r.memoryReport(verbose)
	case "rates":
		return r.ratesReport()
	case "time":
		return r.timeReport(verbose)
	case "all":
		return r.allReport(verbose)
	default:
		return r.quickReport()
	}
}

func (r *Reporter) quickReport() string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	hour, day := r.rates()
	return fmt.Sprintf("Diag: uptime=%s | heap=%d | req=%d/hr,%d/day | history=%d | queues=%s | clients=%s | v=%s",
		buildinfo.Uptime(),
		ms.HeapAlloc,
		hour, day,
		r.historyLen(),
		r.queueSummary(),
		r.clientSummary(),
		buildinfo.Version)
}

func (r *Reporter) runtimeReport(verbose bool) string {
	if verbose {
		return fmt.Sprintf("Runtime diagnostics:\n"+
			"- Uptime: %s\n"+
			"- Goroutines: %d\n"+
			"- Go: %s\n"+
			"- Version: %s (%s)",
			buildinfo.Uptime(),
			runtime.NumGoroutine(),
			runtime.Version(),
			buildinfo.Version,
			buildinfo.GitCommit)
	}
	return fmt.Sprintf("Runtime: uptime=%s | goroutines=%d | version=%s",
		buildinfo.Uptime(), runtime.NumGoroutine(), buildinfo.Version)
}

func (r *Reporter) memoryReport(verbose bool) string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if verbose {
		return fmt.Sprintf("Memory diagnostics:\n"+
			"- Heap alloc: %d bytes\n"+
			"- Heap sys: %d bytes\n"+
			"- Heap objects: %d\n"+
			"- GC cycles: %d",
			ms.HeapAlloc, ms.HeapSys, ms.HeapObjects, ms.NumGC)
	}
	return fmt.Sprintf("Memory: alloc=%d | sys=%d | objects=%d | gc=%d",
		ms.HeapAlloc, ms.HeapSys, ms.HeapObjects, ms.NumGC)
}

func (r *Reporter) ratesReport() string {
	if r.Limiter == nil {
		return "Rates: limiter disabled"
	}
	hour, day := r.rates()
	return fmt.Sprintf("Rates: requests=%d/hr, %d/day", hour, day)
}

func (r *Reporter) timeReport(verbose bool) string {
	now := r.now()
	zone, offset := now.Zone()
	if verbose {
		return fmt.Sprintf("Time diagnostics:\n"+
			"- Now: %s\n"+
			"- Timezone: %s (UTC%+d)\n"+
			"- Unix: %d",
			now.Format(time.RFC3339), zone, offset/3600, now.Unix())
	}
	return fmt.Sprintf("Time: %s | tz=%s", now.Format(time.RFC3339), zone)
}

func (r *Reporter) allReport(verbose bool) string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	hour, day := r.rates()
	now := r.now()
	zone, _ := now.Zone()

	var b strings.Builder
	b.WriteString("Diagnostics:\n")
	fmt.Fprintf(&b, "- Uptime: %s\n", buildinfo.Uptime())
	fmt.Fprintf(&b, "- Heap: alloc=%d sys=%d objects=%d gc=%d\n",
		ms.HeapAlloc, ms.HeapSys, ms.HeapObjects, ms.NumGC)
	fmt.Fprintf(&b, "- Requests: %d/hr, %d/day\n", hour, day)
	fmt.Fprintf(&b, "- History: %d turns\n", r.historyLen())
	fmt.Fprintf(&b, "- Queues: %s\n", r.queueSummary())
	fmt.Fprintf(&b, "- Clients: %s\n", r.clientSummary())
	fmt.Fprintf(&b, "- Time: %s (%s)\n", now.Format(time.RFC3339), zone)
	if verbose {
		fmt.Fprintf(&b, "- Goroutines: %d\n", runtime.NumGoroutine())
		fmt.Fprintf(&b, "- Go: %s\n", runtime.Version())
	}
	fmt.Fprintf(&b, "- Version: %s (%s)", buildinfo.Version, buildinfo.GitCommit)
	return b.String()
}

func (r *Reporter) rates() (hour, day int) {
	if r.Limiter == nil {
		return 0, 0
	}
	return r.Limiter.RequestsThisHour(), r.Limiter.RequestsToday()
}

func (r *Reporter) historyLen() int {
	if r.HistoryLen == nil {
		return 0
	}
	return r.HistoryLen()
}

func (r *Reporter) queueSummary() string {
	if len(r.Queues) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(r.Queues))
	for _, q := range r.Queues {
		parts = append(parts, fmt.Sprintf("%s=%d/%d", q.Name(), q.Len(), q.Cap()))
	}
	return strings.Join(parts, " ")
}

func (r *Reporter) clientSummary() string {
	if r.ClientCount == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", r.ClientCount())
}
