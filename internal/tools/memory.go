package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclaw/zclaw/internal/memstore"
)

func (r *Registry) registerMemoryTools() {
	r.Register(&Tool{
		Name:        "memory_set",
		Description: "Store a persistent memory that survives restarts. Keys must start with 'u_'.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Memory key, must start with 'u_' (e.g. u_favorite_color)",
				},
				"value": map[string]any{
					"type":        "string",
					"description": "Value to remember",
				},
			},
			"required": []string{"key", "value"},
		},
		Handler: r.handleMemorySet,
	})

	r.Register(&Tool{
		Name:        "memory_get",
		Description: "Recall a stored memory by key.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Memory key to look up",
				},
			},
			"required": []string{"key"},
		},
		Handler: r.handleMemoryGet,
	})

	r.Register(&Tool{
		Name:        "memory_list",
		Description: "List all stored memory keys.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleMemoryList,
	})

	r.Register(&Tool{
		Name:        "memory_delete",
		Description: "Forget a stored memory by key.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Memory key to delete",
				},
			},
			"required": []string{"key"},
		},
		Handler: r.handleMemoryDelete,
	})
}

// checkMemoryKey enforces the tool-facing key policy: user prefix
// only, system keys never.
func checkMemoryKey(key string) error {
	if !memstore.ToolAccessible(key) {
		return fmt.Errorf("key must start with '%s' (got '%s')", memstore.UserKeyPrefix, key)
	}
	return nil
}

func (r *Registry) handleMemorySet(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	value, err := stringArg(args, "value")
	if err != nil {
		return "", err
	}
	if err := checkMemoryKey(key); err != nil {
		return "", err
	}
	if err := r.store.Set(memstore.NamespaceMemory, key, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Remembered %s.", key), nil
}

func (r *Registry) handleMemoryGet(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	if err := checkMemoryKey(key); err != nil {
		return "", err
	}
	exists, err := r.store.Exists(memstore.NamespaceMemory, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return fmt.Sprintf("No memory stored for %s.", key), nil
	}
	value, err := r.store.Get(memstore.NamespaceMemory, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", key, value), nil
}

func (r *Registry) handleMemoryList(ctx context.Context, args map[string]any) (string, error) {
	keys, err := r.store.Keys(memstore.NamespaceMemory)
	if err != nil {
		return "", err
	}
	var visible []string
	for _, k := range keys {
		if memstore.ToolAccessible(k) {
			visible = append(visible, k)
		}
	}
	if len(visible) == 0 {
		return "No memories stored.", nil
	}
	return fmt.Sprintf("Stored keys: %s", strings.Join(visible, ", ")), nil
}

func (r *Registry) handleMemoryDelete(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	if err := checkMemoryKey(key); err != nil {
		return "", err
	}
	if err := r.store.Delete(memstore.NamespaceMemory, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("Forgot %s.", key), nil
}
