package telegram

import (
	"time"

	"github.com/zclaw/zclaw/internal/llm"
)

// Long-poll timeouts. OpenRouter deployments poll shorter so the
// bridge notices outbound trouble sooner on flaky relays.
const (
	defaultPollTimeout    = 30 * time.Second
	openRouterPollTimeout = 8 * time.Second
)

// Backoff schedule for consecutive poll failures.
const (
	backoffBase       = 5 * time.Second
	backoffMax        = 5 * time.Minute
	backoffMultiplier = 2
)

// Stale-poll policy: a poll that yields only already-seen update IDs
// suggests the offset and Telegram's view have diverged.
const (
	stalePollLogInterval    = 4
	stalePollResyncStreak   = 8
	stalePollResyncCooldown = time.Minute
)

// PollTimeout returns the long-poll timeout for a backend.
func PollTimeout(backend llm.Backend) time.Duration {
	if backend == llm.BackendOpenRouter {
		return openRouterPollTimeout
	}
	return defaultPollTimeout
}

// BackoffDelay returns the wait before the next poll after the given
// number of consecutive failures. Zero failures means no wait.
func BackoffDelay(consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return 0
	}
	delay := backoffBase
	for i := 1; i < consecutiveFailures && delay < backoffMax; i++ {
		delay *= backoffMultiplier
	}
	if delay > backoffMax {
		delay = backoffMax
	}
	return delay
}

// staleTracker decides when a run of stale-only polls deserves a log
// line and when it warrants resyncing the offset from Telegram.
type staleTracker struct {
	streak     int
	lastResync time.Time
}

// observe records one poll outcome. fresh is whether the poll carried
// at least one new update. It returns whether to log the streak and
// whether to resync now.
func (s *staleTracker) observe(fresh bool, now time.Time) (logStreak, resync bool) {
	if fresh {
		s.streak = 0
		return false, false
	}
	s.streak++
	logStreak = s.streak%stalePollLogInterval == 0
	if s.streak >= stalePollResyncStreak && now.Sub(s.lastResync) >= stalePollResyncCooldown {
		s.lastResync = now
		s.streak = 0
		return logStreak, true
	}
	return logStreak, false
}
