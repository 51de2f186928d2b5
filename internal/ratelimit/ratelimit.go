// Package ratelimit gates model requests behind hourly and daily
// caps. The daily count survives restarts through the memory store;
// the hourly count is clock-windowed and deliberately not persisted.
package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zclaw/zclaw/internal/memstore"
)

// Persisted keys in the ratelimit namespace.
const (
	keyDailyCount = "daily_count"
	keyDay        = "day"
)

// Limiter counts requests per clock hour and per calendar day. The
// agent goroutine is the only caller, so there is no locking.
type Limiter struct {
	store      *memstore.Store
	maxPerHour int
	maxPerDay  int
	enabled    bool
	log        *slog.Logger

	// now is overridable for tests.
	now func() time.Time

	requestsThisHour int
	requestsToday    int
	lastHour         int
	lastDay          int
}

// New builds a limiter, restoring the persisted daily count.
func New(store *memstore.Store, maxPerHour, maxPerDay int, enabled bool, log *slog.Logger) *Limiter {
	l := &Limiter{
		store:      store,
		maxPerHour: maxPerHour,
		maxPerDay:  maxPerDay,
		enabled:    enabled,
		log:        log,
		now:        time.Now,
		lastHour:   -1,
		lastDay:    -1,
	}

	if v, err := store.Get(memstore.NamespaceRateLimit, keyDailyCount); err == nil && v != "" {
		l.requestsToday, _ = strconv.Atoi(v)
	}
	if v, err := store.Get(memstore.NamespaceRateLimit, keyDay); err == nil && v != "" {
		l.lastDay, _ = strconv.Atoi(v)
	}

	log.Info("rate limiter initialized", "requests_today", l.requestsToday, "enabled", enabled)
	return l
}

// updateWindow resets the counters when the clock hour or calendar
// day rolls over.
func (l *Limiter) updateWindow() {
	now := l.now()
	hour := now.Hour()
	day := now.YearDay()

	if hour != l.lastHour {
		l.requestsThisHour = 0
		l.lastHour = hour
	}

	if day != l.lastDay {
		l.requestsToday = 0
		l.lastDay = day
		l.persist()
		l.log.Info("daily rate limit reset", "day", day)
	}
}

func (l *Limiter) persist() {
	if err := l.store.Set(memstore.NamespaceRateLimit, keyDailyCount, strconv.Itoa(l.requestsToday)); err != nil {
		l.log.Warn("persist daily count failed", "error", err)
	}
	if err := l.store.Set(memstore.NamespaceRateLimit, keyDay, strconv.Itoa(l.lastDay)); err != nil {
		l.log.Warn("persist day failed", "error", err)
	}
}

// Check returns nil when a request may proceed. The error text is the
// exact denial reason shown to the user.
func (l *Limiter) Check() error {
	if !l.enabled {
		return nil
	}

	l.updateWindow()

	if l.requestsThisHour >= l.maxPerHour {
		l.log.Warn("hourly rate limit exceeded", "count", l.requestsThisHour)
		return fmt.Errorf("Rate limited: %d/%d requests this hour. Try again later.",
			l.requestsThisHour, l.maxPerHour)
	}
	if l.requestsToday >= l.maxPerDay {
		l.log.Warn("daily rate limit exceeded", "count", l.requestsToday)
		return fmt.Errorf("Daily limit reached: %d/%d requests today. Resets at midnight.",
			l.requestsToday, l.maxPerDay)
	}
	return nil
}

// Record counts one successful model exchange.
func (l *Limiter) Record() {
	l.updateWindow()
	l.requestsThisHour++
	l.requestsToday++
	l.persist()
	l.log.Debug("request recorded",
		"hour", l.requestsThisHour, "day", l.requestsToday)
}

// RequestsThisHour returns the current hourly count.
func (l *Limiter) RequestsThisHour() int {
	l.updateWindow()
	return l.requestsThisHour
}

// RequestsToday returns the current daily count.
func (l *Limiter) RequestsToday() int {
	l.updateWindow()
	return l.requestsToday
}

// ResetDaily clears the daily counter, for diagnostics.
func (l *Limiter) ResetDaily() {
	l.requestsToday = 0
	l.persist()
}
