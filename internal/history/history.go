// Package history keeps the rolling conversation window the agent sends
// to the model. The store is owned by the single agent goroutine, so it
// carries no locking.
package history

import (
	"log/slog"

	"github.com/zclaw/zclaw/internal/textutil"
)

// Role is the author of a turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

// String returns the wire-format role name.
func (r Role) String() string {
	if r == RoleAssistant {
		return "assistant"
	}
	return "user"
}

// Turn is one entry in the conversation window. At most one of
// IsToolUse and IsToolResult is set. For a tool-use turn Content holds
// the serialized JSON arguments; for a tool-result turn it holds the
// result text.
type Turn struct {
	Role         Role
	Content      string
	IsToolUse    bool
	IsToolResult bool
	ToolID       string
	ToolName     string
}

// UserTurn builds a plain user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

// AssistantTurn builds a plain assistant turn.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text}
}

// ToolUseTurn builds the assistant turn recording a tool call. args is
// the serialized JSON argument object.
func ToolUseTurn(id, name, args string) Turn {
	return Turn{Role: RoleAssistant, Content: args, IsToolUse: true, ToolID: id, ToolName: name}
}

// ToolResultTurn builds the user-role turn carrying a tool's output
// back to the model.
func ToolResultTurn(id, result string) Turn {
	return Turn{Role: RoleUser, Content: result, IsToolResult: true, ToolID: id}
}

// Store is a bounded conversation window. When full, appending evicts
// the oldest turn.
type Store struct {
	turns      []Turn
	capacity   int
	maxContent int
	evicted    int
	log        *slog.Logger
}

// New creates a store remembering up to pairs user/assistant exchanges
// (capacity 2×pairs turns), truncating each turn's content to
// maxContent bytes.
func New(pairs, maxContent int, log *slog.Logger) *Store {
	if pairs < 1 {
		pairs = 1
	}
	return &Store{
		turns:      make([]Turn, 0, 2*pairs),
		capacity:   2 * pairs,
		maxContent: maxContent,
		log:        log,
	}
}

// Len returns the number of stored turns.
func (s *Store) Len() int { return len(s.turns) }

// Turns returns the current window, oldest first. The slice is only
// valid until the next mutation.
func (s *Store) Turns() []Turn { return s.turns }

// Append adds a turn, truncating oversized content and evicting the
// oldest turn when the window is full. Returns the store length after
// the append.
func (s *Store) Append(t Turn) int {
	t.Content = textutil.Truncate(t.Content, s.maxContent)
	if len(s.turns) >= s.capacity {
		s.log.Debug("history full, evicting oldest turn", "capacity", s.capacity)
		copy(s.turns, s.turns[1:])
		s.turns = s.turns[:len(s.turns)-1]
		s.evicted++
	}
	s.turns = append(s.turns, t)
	return len(s.turns)
}

// Mark returns the position of the next turn to be appended, counted
// from the start of the conversation rather than the start of the
// window. Positions stay meaningful across evictions: pass the value
// to RollbackTo to undo every turn appended after the mark, even if
// older turns have been evicted in between.
func (s *Store) Mark() int { return s.evicted + len(s.turns) }

// RollbackTo truncates the window back to a position captured by Mark.
// Marks that fell off the front of the window truncate to empty; a
// position at or beyond the current end is a no-op.
func (s *Store) RollbackTo(pos int, reason string) {
	target := pos - s.evicted
	if target < 0 {
		target = 0
	}
	if target >= len(s.turns) {
		return
	}
	s.log.Info("rolling back history", "from", len(s.turns), "to", target, "reason", reason)
	s.turns = s.turns[:target]
}

// Clear empties the window.
func (s *Store) Clear() {
	s.turns = s.turns[:0]
	s.evicted = 0
}
