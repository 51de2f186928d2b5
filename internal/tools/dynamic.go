package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclaw/zclaw/internal/usertools"
)

func (r *Registry) registerDynamicTools() {
	r.Register(&Tool{
		Name: "create_tool",
		Description: fmt.Sprintf(
			"Create a custom tool the user can invoke later. The action is a natural-language instruction you will carry out with your built-in tools when the custom tool is called. Up to %d tools.",
			usertools.MaxTools),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": fmt.Sprintf("Tool name, max %d characters", usertools.MaxNameLen),
				},
				"description": map[string]any{
					"type":        "string",
					"description": fmt.Sprintf("What the tool does, max %d characters", usertools.MaxDescLen),
				},
				"action": map[string]any{
					"type":        "string",
					"description": fmt.Sprintf("Instruction to execute when called, max %d characters", usertools.MaxActionLen),
				},
			},
			"required": []string{"name", "description", "action"},
		},
		Handler: r.handleCreateTool,
	})

	r.Register(&Tool{
		Name:        "list_tools",
		Description: "List the user-created custom tools.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleListTools,
	})

	r.Register(&Tool{
		Name:        "delete_tool",
		Description: "Delete a user-created custom tool by name.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Name of the custom tool to delete",
				},
			},
			"required": []string{"name"},
		},
		Handler: r.handleDeleteTool,
	})
}

func (r *Registry) handleCreateTool(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return "", err
	}
	description, err := stringArg(args, "description")
	if err != nil {
		return "", err
	}
	action, err := stringArg(args, "action")
	if err != nil {
		return "", err
	}

	if err := r.user.Create(name, description, action); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created tool '%s'.", name), nil
}

func (r *Registry) handleListTools(ctx context.Context, args map[string]any) (string, error) {
	all := r.user.All()
	if len(all) == 0 {
		return "No custom tools defined.", nil
	}
	var lines []string
	for _, t := range all {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Name, t.Description))
	}
	return strings.Join(lines, "; "), nil
}

func (r *Registry) handleDeleteTool(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return "", err
	}
	ok, err := r.user.Delete(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no custom tool named '%s'", name)
	}
	return fmt.Sprintf("Deleted tool '%s'.", name), nil
}
