// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclaw/zclaw/internal/cron"
	"github.com/zclaw/zclaw/internal/emailbridge"
	"github.com/zclaw/zclaw/internal/hw"
	"github.com/zclaw/zclaw/internal/llm"
	"github.com/zclaw/zclaw/internal/memstore"
	"github.com/zclaw/zclaw/internal/usertools"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the built-in tools and the user-defined template
// tools layered on top of them.
type Registry struct {
	tools map[string]*Tool
	order []string

	gpio      hw.GPIO
	i2c       hw.I2C
	pinPolicy hw.PinPolicy
	store     *memstore.Store
	sched     *cron.Scheduler
	email     *emailbridge.Client
	user      *usertools.Manager
	diag      func(scope string, verbose bool) string
	log       *slog.Logger
}

// Deps carries everything the built-in tools touch. Diag may be nil;
// system_diag then reports only build info.
type Deps struct {
	GPIO      hw.GPIO
	I2C       hw.I2C
	PinPolicy hw.PinPolicy
	Store     *memstore.Store
	Scheduler *cron.Scheduler
	Email     *emailbridge.Client
	Diag      func(scope string, verbose bool) string
	Log       *slog.Logger
}

// NewRegistry creates the registry, registers the built-ins, and
// loads the persisted user tools.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		tools:     make(map[string]*Tool),
		gpio:      deps.GPIO,
		i2c:       deps.I2C,
		pinPolicy: deps.PinPolicy,
		store:     deps.Store,
		sched:     deps.Scheduler,
		email:     deps.Email,
		diag:      deps.Diag,
		log:       deps.Log,
	}
	r.registerGPIOTools()
	r.registerMemoryTools()
	r.registerScheduleTools()
	r.registerPersonaTools()
	r.registerSystemTools()
	r.registerDynamicTools()
	r.user = usertools.NewManager(deps.Store, r.Has, deps.Log)
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Has reports whether a built-in tool exists with this name.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// UserTools exposes the template tool manager.
func (r *Registry) UserTools() *usertools.Manager { return r.user }

// Specs returns the tool descriptions offered to the model: the
// built-ins in registration order, then the user tools.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order)+r.user.Count())
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	for _, ut := range r.user.All() {
		specs = append(specs, llm.ToolSpec{
			Name:        ut.Name,
			Description: ut.Description,
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		})
	}
	return specs
}

// Execute runs a tool and always returns text: handler failures come
// back as "Error: …" strings the model can read and react to. A call
// to a user-defined template tool yields its action wrapped in an
// execution instruction.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	if ut := r.user.Find(name); ut != nil {
		return fmt.Sprintf("Execute this action now: %s", ut.Action)
	}

	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool '%s'", name)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.log.Warn("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// Names returns all built-in tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Argument extraction helpers. JSON numbers arrive as float64.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("'%s' required (string)", key)
	}
	return v, nil
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("'%s' required (integer)", key)
	}
	return int(v), nil
}

func optionalIntArg(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}
