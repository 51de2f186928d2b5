package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclaw/zclaw/internal/cron"
)

func (r *Registry) registerScheduleTools() {
	r.Register(&Tool{
		Name:        "schedule_set",
		Description: "Schedule a natural-language action. Types: 'periodic' (every N minutes), 'daily' (at hour:minute), 'once' (after N minutes).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type":        "string",
					"description": "Schedule type: periodic, daily, or once",
				},
				"interval_or_hour": map[string]any{
					"type":        "integer",
					"description": "Minutes for periodic/once, hour (0-23) for daily",
				},
				"minute": map[string]any{
					"type":        "integer",
					"description": "Minute (0-59), daily type only",
				},
				"action": map[string]any{
					"type":        "string",
					"description": "What to do when the schedule fires",
				},
			},
			"required": []string{"type", "interval_or_hour", "action"},
		},
		Handler: r.handleScheduleSet,
	})

	r.Register(&Tool{
		Name:        "schedule_list",
		Description: "List all schedule entries with their IDs.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleScheduleList,
	})

	r.Register(&Tool{
		Name:        "schedule_delete",
		Description: "Delete a schedule entry by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "Entry ID from schedule_list",
				},
			},
			"required": []string{"id"},
		},
		Handler: r.handleScheduleDelete,
	})

	r.Register(&Tool{
		Name:        "get_time",
		Description: "Get the current date and time.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGetTime,
	})
}

func (r *Registry) handleScheduleSet(ctx context.Context, args map[string]any) (string, error) {
	if r.sched == nil {
		return "", fmt.Errorf("scheduler not available")
	}
	typeStr, err := stringArg(args, "type")
	if err != nil {
		return "", err
	}
	typ, err := cron.ParseEntryType(typeStr)
	if err != nil {
		return "", err
	}
	intervalOrHour, err := intArg(args, "interval_or_hour")
	if err != nil {
		return "", err
	}
	minute := optionalIntArg(args, "minute", 0)
	action, err := stringArg(args, "action")
	if err != nil {
		return "", err
	}

	id, err := r.sched.Set(typ, intervalOrHour, minute, action)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Scheduled entry %d (%s).", id, typ), nil
}

func (r *Registry) handleScheduleList(ctx context.Context, args map[string]any) (string, error) {
	if r.sched == nil {
		return "", fmt.Errorf("scheduler not available")
	}
	entries := r.sched.List()
	if len(entries) == 0 {
		return "No schedules set.", nil
	}

	var lines []string
	for _, e := range entries {
		var when string
		switch e.Type {
		case cron.TypeDaily:
			when = fmt.Sprintf("daily at %02d:%02d", e.Hour, e.Minute)
		case cron.TypeOnce:
			when = fmt.Sprintf("once after %d min", e.IntervalMinutes)
		default:
			when = fmt.Sprintf("every %d min", e.IntervalMinutes)
		}
		lines = append(lines, fmt.Sprintf("[%d] %s: %s", e.ID, when, e.Action))
	}
	return strings.Join(lines, "; "), nil
}

func (r *Registry) handleScheduleDelete(ctx context.Context, args map[string]any) (string, error) {
	if r.sched == nil {
		return "", fmt.Errorf("scheduler not available")
	}
	id, err := intArg(args, "id")
	if err != nil {
		return "", err
	}
	ok, err := r.sched.Delete(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no schedule entry with id %d", id)
	}
	return fmt.Sprintf("Deleted schedule entry %d.", id), nil
}

func (r *Registry) handleGetTime(ctx context.Context, args map[string]any) (string, error) {
	if r.sched == nil {
		return "", fmt.Errorf("scheduler not available")
	}
	return r.sched.TimeString(), nil
}
