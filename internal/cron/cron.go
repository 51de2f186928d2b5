// Package cron schedules natural-language actions. A due entry does
// not execute anything itself: it feeds "[CRON <id>] <action>" into
// the agent's input queue and the model carries the action out with
// its tools.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/memstore"
)

// EntryType selects the firing rule.
type EntryType int

const (
	// TypePeriodic fires every IntervalMinutes.
	TypePeriodic EntryType = iota
	// TypeDaily fires once per day at Hour:Minute.
	TypeDaily
	// TypeOnce fires IntervalMinutes after creation, then removes
	// itself.
	TypeOnce
)

// String returns the type's wire name.
func (t EntryType) String() string {
	switch t {
	case TypePeriodic:
		return "periodic"
	case TypeDaily:
		return "daily"
	case TypeOnce:
		return "once"
	default:
		return "unknown"
	}
}

// ParseEntryType converts a tool argument to an EntryType.
func ParseEntryType(s string) (EntryType, error) {
	switch s {
	case "periodic":
		return TypePeriodic, nil
	case "daily":
		return TypeDaily, nil
	case "once":
		return TypeOnce, nil
	default:
		return TypePeriodic, fmt.Errorf("unknown schedule type %q (use periodic, daily, once)", s)
	}
}

// Entry is one schedule row.
type Entry struct {
	ID              int       `json:"id"`
	Type            EntryType `json:"type"`
	IntervalMinutes int       `json:"interval_minutes,omitempty"`
	Hour            int       `json:"hour,omitempty"`
	Minute          int       `json:"minute,omitempty"`
	Action          string    `json:"action"`
	LastRun         int64     `json:"last_run,omitempty"`
	Created         int64     `json:"created"`
	Enabled         bool      `json:"enabled"`
}

// storeKey holds the serialized entry list in the cron namespace.
const storeKey = "entries"

// Scheduler owns the entry table and the check loop.
type Scheduler struct {
	store      *memstore.Store
	input      *bus.Queue
	maxEntries int
	maxAction  int
	interval   time.Duration
	log        *slog.Logger

	// now is overridable for tests.
	now func() time.Time

	entries []Entry
}

// New builds a scheduler and restores the persisted table.
func New(store *memstore.Store, input *bus.Queue, maxEntries, maxActionLen int, checkInterval time.Duration, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		store:      store,
		input:      input,
		maxEntries: maxEntries,
		maxAction:  maxActionLen,
		interval:   checkInterval,
		log:        log,
		now:        time.Now,
	}
	s.load()
	return s
}

func (s *Scheduler) load() {
	raw, err := s.store.Get(memstore.NamespaceCron, storeKey)
	if err != nil || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &s.entries); err != nil {
		s.log.Warn("discarding corrupt schedule table", "error", err)
		s.entries = nil
		return
	}
	s.log.Info("loaded schedule entries", "count", len(s.entries))
}

func (s *Scheduler) save() error {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	return s.store.Set(memstore.NamespaceCron, storeKey, string(raw))
}

// nextID returns the smallest unused positive ID.
func (s *Scheduler) nextID() int {
	used := make(map[int]bool, len(s.entries))
	for _, e := range s.entries {
		used[e.ID] = true
	}
	for id := 1; id <= 255; id++ {
		if !used[id] {
			return id
		}
	}
	return 0
}

// Set validates and stores a new entry. For periodic and once entries
// intervalOrHour is the interval in minutes; for daily entries it is
// the hour and minute is the minute.
func (s *Scheduler) Set(typ EntryType, intervalOrHour, minute int, action string) (int, error) {
	if action == "" || len(action) > s.maxAction {
		return 0, fmt.Errorf("action must be 1-%d characters", s.maxAction)
	}
	switch typ {
	case TypePeriodic, TypeOnce:
		if intervalOrHour < 1 || intervalOrHour > 1440 {
			return 0, fmt.Errorf("interval must be 1-1440 minutes")
		}
	case TypeDaily:
		if intervalOrHour < 0 || intervalOrHour > 23 || minute < 0 || minute > 59 {
			return 0, fmt.Errorf("daily time must be 00:00-23:59")
		}
	}
	if len(s.entries) >= s.maxEntries {
		return 0, fmt.Errorf("maximum of %d schedule entries reached", s.maxEntries)
	}

	id := s.nextID()
	if id == 0 {
		return 0, fmt.Errorf("no free schedule IDs")
	}

	e := Entry{
		ID:      id,
		Type:    typ,
		Action:  action,
		Created: s.now().Unix(),
		Enabled: true,
	}
	switch typ {
	case TypeDaily:
		e.Hour = intervalOrHour
		e.Minute = minute
	default:
		e.IntervalMinutes = intervalOrHour
	}

	s.entries = append(s.entries, e)
	if err := s.save(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return 0, err
	}
	s.log.Info("created schedule entry", "id", id, "type", typ.String(), "action", action)
	return id, nil
}

// Delete removes an entry by ID. Returns false when no entry matched.
func (s *Scheduler) Delete(id int) (bool, error) {
	for i, e := range s.entries {
		if e.ID != id {
			continue
		}
		previous := s.entries
		s.entries = append(append([]Entry{}, s.entries[:i]...), s.entries[i+1:]...)
		if err := s.save(); err != nil {
			s.entries = previous
			return false, err
		}
		s.log.Info("deleted schedule entry", "id", id)
		return true, nil
	}
	return false, nil
}

// List returns the current entries in creation order.
func (s *Scheduler) List() []Entry {
	return s.entries
}

// CheckDue fires every due entry and returns how many fired. The run
// loop calls this on each tick; tests call it directly.
func (s *Scheduler) CheckDue(ctx context.Context) int {
	now := s.now()
	fired := 0
	dirty := false

	kept := s.entries[:0]
	for i := range s.entries {
		e := &s.entries[i]
		remove := false

		if e.Enabled && s.isDue(e, now) {
			e.LastRun = now.Unix()
			dirty = true
			fired++
			s.log.Info("firing schedule entry", "id", e.ID, "action", e.Action)
			s.input.Send(ctx, bus.Message{
				Text:   fmt.Sprintf("[CRON %d] %s", e.ID, e.Action),
				Source: bus.SourceScheduler,
			})
			if e.Type == TypeOnce {
				remove = true
			}
		}

		if !remove {
			kept = append(kept, *e)
		}
	}
	s.entries = kept

	if dirty {
		if err := s.save(); err != nil {
			s.log.Warn("persist schedule state failed", "error", err)
		}
	}
	return fired
}

// isDue applies the firing rule for one entry.
func (s *Scheduler) isDue(e *Entry, now time.Time) bool {
	switch e.Type {
	case TypePeriodic:
		return now.Unix()-e.LastRun >= int64(e.IntervalMinutes)*60
	case TypeDaily:
		if now.Hour() != e.Hour || now.Minute() != e.Minute {
			return false
		}
		// Fire at most once within the matching minute.
		minuteStart := now.Unix() - int64(now.Second())
		return e.LastRun < minuteStart
	case TypeOnce:
		return now.Unix()-e.Created >= int64(e.IntervalMinutes)*60
	default:
		return false
	}
}

// Run checks for due entries until the context ends.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", "check_interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.CheckDue(ctx)
		}
	}
}

// TimeString reports the current local time, for the get_time tool.
func (s *Scheduler) TimeString() string {
	return s.now().Format("Mon 2006-01-02 15:04:05 MST")
}
