package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zclaw/zclaw/internal/buildinfo"
	"github.com/zclaw/zclaw/internal/diag"
)

func (r *Registry) registerSystemTools() {
	r.Register(&Tool{
		Name:        "system_diag",
		Description: "Report system diagnostics: version, uptime, memory, queue and limiter state.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"scope": map[string]any{
					"type":        "string",
					"description": "One of quick|runtime|memory|rates|time|all (default quick)",
				},
				"verbose": map[string]any{
					"type":        "boolean",
					"description": "Include extended detail (default false)",
				},
			},
		},
		Handler: r.handleSystemDiag,
	})

	r.Register(&Tool{
		Name:        "send_email",
		Description: "Send an email through the provisioned relay bridge.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"to": map[string]any{
					"type":        "string",
					"description": "Recipient address",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "Subject line",
				},
				"body": map[string]any{
					"type":        "string",
					"description": "Message body, plain text",
				},
			},
			"required": []string{"to", "subject", "body"},
		},
		Handler: r.handleSendEmail,
	})
}

func (r *Registry) handleSystemDiag(ctx context.Context, args map[string]any) (string, error) {
	scope := "quick"
	if raw, present := args["scope"]; present {
		s, isString := raw.(string)
		if !isString || s == "" {
			return "", fmt.Errorf("scope must be one of quick|runtime|memory|rates|time|all")
		}
		if !diag.ValidScope(s) {
			return "", fmt.Errorf("unknown scope '%s' (use quick|runtime|memory|rates|time|all)", s)
		}
		scope = s
	}
	verbose := false
	if raw, present := args["verbose"]; present {
		b, isBool := raw.(bool)
		if !isBool {
			return "", fmt.Errorf("verbose must be boolean")
		}
		verbose = b
	}

	if r.diag != nil {
		return r.diag(scope, verbose), nil
	}

	// No reporter wired (stripped builds): fall back to build info.
	info := buildinfo.Info()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, info[k]))
	}
	return strings.Join(parts, " "), nil
}

func (r *Registry) handleSendEmail(ctx context.Context, args map[string]any) (string, error) {
	if r.email == nil || !r.email.Configured() {
		return "", fmt.Errorf("email bridge is not configured. Provision bridge_url and bridge_key first")
	}
	to, err := stringArg(args, "to")
	if err != nil {
		return "", err
	}
	subject, err := stringArg(args, "subject")
	if err != nil {
		return "", err
	}
	body, err := stringArg(args, "body")
	if err != nil {
		return "", err
	}

	detail, err := r.email.Send(ctx, to, subject, body)
	if err != nil {
		return "", err
	}
	if detail == "" {
		detail = "accepted"
	}
	return fmt.Sprintf("Email to %s: %s", to, detail), nil
}
