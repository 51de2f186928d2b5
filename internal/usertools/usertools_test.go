package usertools

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zclaw/zclaw/internal/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ut.db")
	store, err := memstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewManager(store, func(name string) bool { return name == "gpio_write" }, testLogger()), path
}

func TestCreateFindDelete(t *testing.T) {
	m, _ := newManager(t)

	if err := m.Create("blink", "Blink the LED", "Turn pin 4 on, wait 1 second, turn it off"); err != nil {
		t.Fatal(err)
	}
	tool := m.Find("blink")
	if tool == nil || tool.Action == "" {
		t.Fatalf("Find = %+v", tool)
	}

	ok, err := m.Delete("blink")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if m.Find("blink") != nil {
		t.Error("tool still present after delete")
	}
	ok, err = m.Delete("blink")
	if err != nil || ok {
		t.Errorf("deleting a missing tool = %v, %v", ok, err)
	}
}

func TestCreateValidation(t *testing.T) {
	m, _ := newManager(t)

	if err := m.Create("", "d", "a"); err == nil {
		t.Error("empty name should fail")
	}
	if err := m.Create(strings.Repeat("n", MaxNameLen+1), "d", "a"); err == nil {
		t.Error("oversized name should fail")
	}
	if err := m.Create("t", strings.Repeat("d", MaxDescLen+1), "a"); err == nil {
		t.Error("oversized description should fail")
	}
	if err := m.Create("t", "d", strings.Repeat("a", MaxActionLen+1)); err == nil {
		t.Error("oversized action should fail")
	}
	if err := m.Create("gpio_write", "d", "a"); err == nil {
		t.Error("built-in name shadow should fail")
	}

	if err := m.Create("dup", "d", "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Create("dup", "d", "a"); err == nil {
		t.Error("duplicate name should fail")
	}
}

func TestCreateCapacity(t *testing.T) {
	m, _ := newManager(t)
	for i := 0; i < MaxTools; i++ {
		if err := m.Create(fmt.Sprintf("tool%d", i), "d", "a"); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Create("overflow", "d", "a"); err == nil {
		t.Errorf("tool %d should exceed the cap", MaxTools+1)
	}
	if m.Count() != MaxTools {
		t.Errorf("Count = %d, want %d", m.Count(), MaxTools)
	}
}

func TestToolsPersistAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	store, err := memstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(store, nil, testLogger())
	if err := m.Create("blink", "Blink", "Blink pin 4"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store2, err := memstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()
	m2 := NewManager(store2, nil, testLogger())
	if m2.Find("blink") == nil {
		t.Error("tool did not survive reload")
	}
}
