package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below [slog.LevelDebug] and carries raw wire
// payloads: the JSON bodies exchanged with the LLM backend and the
// Telegram long-poll traffic. At -8 it follows the spacing slog uses
// between its built-in levels.
//
// Trace logging is noisy and echoes conversation content to stderr,
// so leave it off unless a backend exchange needs to be inspected
// byte for byte.
const LevelTrace = slog.Level(-8)

// ParseLogLevel maps the log_level config value to an [slog.Level].
// Matching is case-insensitive and ignores surrounding whitespace;
// the empty string means info, the default for a running agent.
//
//   - "trace" → [LevelTrace], raw LLM and Telegram payloads
//   - "debug" → [slog.LevelDebug], per-message and per-round detail
//   - "info" or "" → [slog.LevelInfo]
//   - "warn" or "warning" → [slog.LevelWarn]
//   - "error" → [slog.LevelError]
//
// Anything else is an error so a typo in config.yaml fails startup
// instead of silently logging at info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLogLevelNames is an [slog.HandlerOptions.ReplaceAttr] that
// renders [LevelTrace] as "TRACE". slog has no name for custom levels
// and would print "DEBUG-4" otherwise. The zclaw binary installs it on
// its stderr handler:
//
//	slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level:       level,
//	    ReplaceAttr: config.ReplaceLogLevelNames,
//	})
func ReplaceLogLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
