// Package persona manages the device's response tone. The setting is
// persistent and survives restarts until changed or reset.
package persona

import (
	"fmt"
	"strings"

	"github.com/zclaw/zclaw/internal/memstore"
)

// Default is the persona used when none is stored or the stored value
// fails to canonicalize.
const Default = "neutral"

// key is the persisted entry in the persona namespace.
const key = "current"

// valid holds the canonical persona names.
var valid = map[string]bool{
	"neutral":   true,
	"friendly":  true,
	"technical": true,
	"witty":     true,
}

// Names lists the valid personas, in the order shown to users.
func Names() []string {
	return []string{"neutral", "friendly", "technical", "witty"}
}

// Canonicalize lowercases and validates a persona name. Returns the
// canonical form and whether the input named a known persona.
func Canonicalize(s string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(s))
	if !valid[c] {
		return "", false
	}
	return c, true
}

// Load returns the stored persona, degrading to Default on a missing
// or corrupt entry.
func Load(store *memstore.Store) string {
	v, err := store.Get(memstore.NamespacePersona, key)
	if err != nil {
		return Default
	}
	c, ok := Canonicalize(v)
	if !ok {
		return Default
	}
	return c
}

// Save persists a persona. The name must already be canonical.
func Save(store *memstore.Store, name string) error {
	c, ok := Canonicalize(name)
	if !ok {
		return fmt.Errorf("unknown persona %q", name)
	}
	return store.Set(memstore.NamespacePersona, key, c)
}

// Reset restores the default persona.
func Reset(store *memstore.Store) error {
	return store.Set(memstore.NamespacePersona, key, Default)
}

// Clause returns the system-prompt sentence for a persona. Neutral
// adds nothing.
func Clause(name string) string {
	switch name {
	case "friendly":
		return "Adopt a warm, friendly tone."
	case "technical":
		return "Adopt a precise, technical tone and include relevant detail."
	case "witty":
		return "Adopt a lightly witty tone without sacrificing clarity."
	default:
		return ""
	}
}
