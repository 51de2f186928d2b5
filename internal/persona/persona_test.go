package persona

import (
	"path/filepath"
	"testing"

	"github.com/zclaw/zclaw/internal/memstore"
)

func openStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.Open(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"neutral", "neutral", true},
		{"Friendly", "friendly", true},
		{"  TECHNICAL  ", "technical", true},
		{"witty", "witty", true},
		{"sarcastic", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Canonicalize(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Canonicalize(%q) = %q/%v, want %q/%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSaveLoadReset(t *testing.T) {
	s := openStore(t)

	if got := Load(s); got != Default {
		t.Errorf("fresh store persona = %q, want %q", got, Default)
	}

	if err := Save(s, "Witty"); err != nil {
		t.Fatal(err)
	}
	if got := Load(s); got != "witty" {
		t.Errorf("Load = %q, want witty", got)
	}

	if err := Save(s, "invalid"); err == nil {
		t.Error("saving an unknown persona should fail")
	}

	if err := Reset(s); err != nil {
		t.Fatal(err)
	}
	if got := Load(s); got != "neutral" {
		t.Errorf("Load after reset = %q", got)
	}
}

func TestCorruptStoredValueDegrades(t *testing.T) {
	s := openStore(t)
	s.Set(memstore.NamespacePersona, "current", "garbage")
	if got := Load(s); got != Default {
		t.Errorf("corrupt persona should load as default, got %q", got)
	}
}

func TestClause(t *testing.T) {
	if Clause("neutral") != "" {
		t.Error("neutral persona should add no clause")
	}
	for _, p := range []string{"friendly", "technical", "witty"} {
		if Clause(p) == "" {
			t.Errorf("persona %q should have a clause", p)
		}
	}
}
