package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclaw/zclaw/internal/persona"
)

func (r *Registry) registerPersonaTools() {
	r.Register(&Tool{
		Name:        "set_persona",
		Description: "Change the device's response tone. Only use when the user explicitly asks.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"persona": map[string]any{
					"type":        "string",
					"description": "One of: neutral, friendly, technical, witty",
				},
			},
			"required": []string{"persona"},
		},
		Handler: r.handleSetPersona,
	})

	r.Register(&Tool{
		Name:        "get_persona",
		Description: "Report the current persona setting.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGetPersona,
	})

	r.Register(&Tool{
		Name:        "reset_persona",
		Description: "Reset the persona to neutral.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleResetPersona,
	})
}

func (r *Registry) handleSetPersona(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "persona")
	if err != nil {
		return "", err
	}
	canonical, ok := persona.Canonicalize(name)
	if !ok {
		return "", fmt.Errorf("unknown persona '%s' (use %s)", name, strings.Join(persona.Names(), ", "))
	}
	if err := persona.Save(r.store, canonical); err != nil {
		return "", err
	}
	return fmt.Sprintf("Persona set to %s.", canonical), nil
}

func (r *Registry) handleGetPersona(ctx context.Context, args map[string]any) (string, error) {
	current := persona.Load(r.store)
	return fmt.Sprintf("Current persona: %s. Available: %s.",
		current, strings.Join(persona.Names(), ", ")), nil
}

func (r *Registry) handleResetPersona(ctx context.Context, args map[string]any) (string, error) {
	if err := persona.Reset(r.store); err != nil {
		return "", err
	}
	return "Persona reset to neutral.", nil
}
