package history

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppendEvictsOldest(t *testing.T) {
	s := New(2, 1024, testLogger()) // capacity 4
	for i := 0; i < 5; i++ {
		s.Append(UserTurn(fmt.Sprintf("msg-%d", i)))
	}
	if s.Len() != 4 {
		t.Fatalf("Len = %d, want 4", s.Len())
	}
	if got := s.Turns()[0].Content; got != "msg-1" {
		t.Errorf("oldest turn = %q, want msg-1", got)
	}
	if got := s.Turns()[3].Content; got != "msg-4" {
		t.Errorf("newest turn = %q, want msg-4", got)
	}
}

func TestAppendTruncatesContent(t *testing.T) {
	s := New(2, 8, testLogger())
	s.Append(UserTurn(strings.Repeat("x", 100)))
	if got := s.Turns()[0].Content; len(got) != 8 {
		t.Errorf("content length = %d, want 8", len(got))
	}
}

func TestRollbackRemovesExchange(t *testing.T) {
	s := New(12, 1024, testLogger())
	s.Append(UserTurn("hello"))
	s.Append(AssistantTurn("hi"))

	mark := s.Mark()
	s.Append(UserTurn("do the thing"))
	s.Append(ToolUseTurn("call_1", "gpio_write", `{"pin":4}`))
	s.Append(ToolResultTurn("call_1", "OK"))

	s.RollbackTo(mark, "transport failure")

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if got := s.Turns()[1].Content; got != "hi" {
		t.Errorf("last turn = %q, want hi", got)
	}
	for _, turn := range s.Turns() {
		if turn.IsToolUse || turn.IsToolResult {
			t.Error("rollback left a dangling tool turn")
		}
	}
}

func TestRollbackAfterEviction(t *testing.T) {
	s := New(1, 1024, testLogger()) // capacity 2
	s.Append(UserTurn("first"))
	s.Append(AssistantTurn("ok"))

	// Window is full; the next append evicts "first".
	mark := s.Mark()
	s.Append(UserTurn("poisoned"))

	s.RollbackTo(mark, "transport failure")

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if got := s.Turns()[0].Content; got != "ok" {
		t.Errorf("surviving turn = %q, want ok", got)
	}
	for _, turn := range s.Turns() {
		if turn.Content == "poisoned" {
			t.Error("rolled-back turn survived eviction")
		}
	}
}

func TestRollbackMarkEvictedOffWindow(t *testing.T) {
	s := New(1, 1024, testLogger()) // capacity 2
	mark := s.Mark()
	s.Append(UserTurn("a"))
	s.Append(AssistantTurn("b"))
	s.Append(UserTurn("c")) // evicts "a"; the mark now predates the window
	s.RollbackTo(mark, "stale mark")
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestClearResetsEvictionCount(t *testing.T) {
	s := New(1, 1024, testLogger())
	for i := 0; i < 4; i++ {
		s.Append(UserTurn(fmt.Sprintf("msg-%d", i)))
	}
	s.Clear()
	if got := s.Mark(); got != 0 {
		t.Errorf("Mark after Clear = %d, want 0", got)
	}
	mark := s.Mark()
	s.Append(UserTurn("fresh"))
	s.RollbackTo(mark, "undo")
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestRollbackBeyondLengthIsNoop(t *testing.T) {
	s := New(12, 1024, testLogger())
	s.Append(UserTurn("a"))
	s.RollbackTo(5, "stale mark")
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestRollbackNegativeClampsToZero(t *testing.T) {
	s := New(12, 1024, testLogger())
	s.Append(UserTurn("a"))
	s.RollbackTo(-3, "bad mark")
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestTurnConstructors(t *testing.T) {
	tu := ToolUseTurn("id1", "wait", `{"seconds":2}`)
	if tu.Role != RoleAssistant || !tu.IsToolUse || tu.IsToolResult {
		t.Errorf("tool-use turn shape wrong: %+v", tu)
	}
	tr := ToolResultTurn("id1", "done")
	if tr.Role != RoleUser || !tr.IsToolResult || tr.IsToolUse {
		t.Errorf("tool-result turn shape wrong: %+v", tr)
	}
	if RoleUser.String() != "user" || RoleAssistant.String() != "assistant" {
		t.Error("role names wrong")
	}
}
