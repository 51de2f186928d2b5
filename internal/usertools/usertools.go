// Package usertools manages user-defined template tools. A template
// tool carries no code, just a natural-language action; calling one
// hands the model "Execute this action now: <action>" so it carries
// the action out with its built-in tools.
package usertools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zclaw/zclaw/internal/memstore"
)

// Limits on user tool definitions.
const (
	MaxTools     = 8
	MaxNameLen   = 24
	MaxDescLen   = 128
	MaxActionLen = 256
)

// storeKey holds the serialized tool list in the usertools namespace.
const storeKey = "tools"

// Tool is one user-defined template tool.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// Manager owns the tool list and its persistence. The agent goroutine
// is the only caller.
type Manager struct {
	store *memstore.Store
	log   *slog.Logger
	tools []Tool

	// isBuiltin rejects names that shadow built-in tools.
	isBuiltin func(name string) bool
}

// NewManager loads the persisted tool list. isBuiltin may be nil.
func NewManager(store *memstore.Store, isBuiltin func(string) bool, log *slog.Logger) *Manager {
	m := &Manager{store: store, isBuiltin: isBuiltin, log: log}
	m.load()
	return m
}

func (m *Manager) load() {
	raw, err := m.store.Get(memstore.NamespaceUserTools, storeKey)
	if err != nil || raw == "" {
		return
	}
	var tools []Tool
	if err := json.Unmarshal([]byte(raw), &tools); err != nil {
		m.log.Warn("discarding corrupt user tool list", "error", err)
		return
	}
	if len(tools) > MaxTools {
		tools = tools[:MaxTools]
	}
	m.tools = tools
	m.log.Info("loaded user tools", "count", len(tools))
}

func (m *Manager) save() error {
	raw, err := json.Marshal(m.tools)
	if err != nil {
		return fmt.Errorf("marshal user tools: %w", err)
	}
	return m.store.Set(memstore.NamespaceUserTools, storeKey, string(raw))
}

// Create validates and persists a new tool. On a persistence failure
// the in-memory list is rolled back.
func (m *Manager) Create(name, description, action string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLen {
		return fmt.Errorf("tool name must be 1-%d characters", MaxNameLen)
	}
	if len(description) > MaxDescLen {
		return fmt.Errorf("description too long (max %d)", MaxDescLen)
	}
	if action == "" || len(action) > MaxActionLen {
		return fmt.Errorf("action must be 1-%d characters", MaxActionLen)
	}
	if m.isBuiltin != nil && m.isBuiltin(name) {
		return fmt.Errorf("'%s' conflicts with a built-in tool", name)
	}
	if m.Find(name) != nil {
		return fmt.Errorf("tool '%s' already exists", name)
	}
	if len(m.tools) >= MaxTools {
		return fmt.Errorf("maximum of %d user tools reached", MaxTools)
	}

	m.tools = append(m.tools, Tool{Name: name, Description: description, Action: action})
	if err := m.save(); err != nil {
		m.tools = m.tools[:len(m.tools)-1]
		return fmt.Errorf("persist tool '%s': %w", name, err)
	}
	m.log.Info("created user tool", "name", name)
	return nil
}

// Delete removes a tool by name. Returns false if no tool matched.
func (m *Manager) Delete(name string) (bool, error) {
	for i, t := range m.tools {
		if t.Name != name {
			continue
		}
		previous := m.tools
		m.tools = append(append([]Tool{}, m.tools[:i]...), m.tools[i+1:]...)
		if err := m.save(); err != nil {
			m.tools = previous
			return false, fmt.Errorf("persist deletion of '%s': %w", name, err)
		}
		m.log.Info("deleted user tool", "name", name)
		return true, nil
	}
	return false, nil
}

// Find returns the named tool, nil when absent.
func (m *Manager) Find(name string) *Tool {
	for i := range m.tools {
		if m.tools[i].Name == name {
			return &m.tools[i]
		}
	}
	return nil
}

// All returns the current tool list, in creation order.
func (m *Manager) All() []Tool {
	return m.tools
}

// Count returns the number of defined tools.
func (m *Manager) Count() int { return len(m.tools) }
