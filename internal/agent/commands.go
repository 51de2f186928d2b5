package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const helpText = "Commands:\n" +
	"/help - show this help\n" +
	"/stop - pause the agent\n" +
	"/resume - resume after /stop\n" +
	"/settings - show current settings\n" +
	"/diag [quick|runtime|memory|rates|time|all] [verbose] - diagnostics\n" +
	"Anything else is sent to the model."

const greeting = "Hi! I'm zclaw, a small on-device assistant.\n\n" + helpText

// parseCommand recognizes "/<name>" and "/<name>@<suffix> <payload>".
// Leading and trailing whitespace was already stripped. Anything else
// is conversational.
func parseCommand(text string) (name, payload string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token := text
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		token = text[:i]
		payload = strings.TrimSpace(text[i+1:])
	}
	name = token[1:]
	// Chat clients append "@botname" to disambiguate group commands.
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), payload, true
}

// dispatch runs one administrative command. It never touches the
// network or the round logic. handled=false sends the message down
// the conversational path instead.
func (a *Agent) dispatch(ctx context.Context, name, payload string, log *slog.Logger) (reply string, handled bool) {
	switch name {
	case "start":
		if a.paused {
			log.Info("command suppressed while paused", "command", name)
			return "", true
		}
		now := a.now()
		if !a.lastStartAt.IsZero() && now.Sub(a.lastStartAt) < a.startCooldown {
			log.Info("start debounced", "window", a.startCooldown)
			return "", true
		}
		a.lastStartAt = now
		return greeting, true

	case "help":
		if a.paused {
			log.Info("command suppressed while paused", "command", name)
			return "", true
		}
		return helpText, true

	case "stop":
		a.paused = true
		log.Info("agent paused")
		return "Paused. Send /resume to continue.", true

	case "resume":
		a.paused = false
		log.Info("agent resumed")
		return "Resumed.", true

	case "settings":
		return a.settingsText(), true

	case "diag":
		return a.diagText(ctx, payload), true
	}
	return "", false
}

func (a *Agent) settingsText() string {
	return fmt.Sprintf(
		"Backend: %s\nModel: %s\nPersona: %s\nPaused: %t\nHistory: %d turns\nRequests: %d this hour, %d today",
		a.backend, a.model, a.persona, a.paused,
		a.history.Len(), a.limiter.RequestsThisHour(), a.limiter.RequestsToday(),
	)
}

// diagText reuses the system_diag tool so /diag and the model-visible
// diagnostics report the same facts.
func (a *Agent) diagText(ctx context.Context, payload string) string {
	args := map[string]any{}
	for _, field := range strings.Fields(payload) {
		switch strings.ToLower(field) {
		case "verbose", "true", "1":
			args["verbose"] = true
		default:
			args["scope"] = strings.ToLower(field)
		}
	}
	return a.tools.Execute(ctx, "system_diag", args)
}
