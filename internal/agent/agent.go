// Package agent runs the per-message orchestration loop: command fast
// path, bounded tool rounds against the model, rate-limit admission,
// and retry with a wall-clock budget around every transport call.
//
// A single worker goroutine owns the history store, persona cache,
// pause flag, and debounce state. Nothing here needs locking.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/config"
	"github.com/zclaw/zclaw/internal/history"
	"github.com/zclaw/zclaw/internal/llm"
	"github.com/zclaw/zclaw/internal/memstore"
	"github.com/zclaw/zclaw/internal/persona"
	"github.com/zclaw/zclaw/internal/prompts"
	"github.com/zclaw/zclaw/internal/textutil"
	"github.com/zclaw/zclaw/internal/tools"
)

// Fixed user-visible outcome strings. The model-facing placeholder
// texts match what remote clients already expect; do not reword.
const (
	errTransport  = "Error: Failed to contact LLM API after retries"
	errParse      = "Error: Failed to parse LLM response"
	errBuild      = "Error: Failed to build request"
	emptyResponse = "(No response from model)"
	maxRoundsText = "(Reached max tool iterations)"
)

// Transport sends one request body and returns the raw response.
// Retry policy lives here in the agent, not in the transport.
type Transport interface {
	Send(ctx context.Context, body []byte) ([]byte, error)
}

// Limiter gates and accounts outbound model requests.
type Limiter interface {
	Check() error
	Record()
	RequestsThisHour() int
	RequestsToday() int
}

// Options wires the agent's collaborators.
type Options struct {
	Backend   llm.Backend
	Model     string
	Transport Transport
	Limiter   Limiter
	History   *history.Store
	Tools     *tools.Registry
	Store     *memstore.Store

	Input      *bus.Queue
	ConsoleOut *bus.Queue
	BridgeOut  *bus.Queue

	Config config.AgentConfig
	Log    *slog.Logger
}

// Agent processes inbound messages one at a time to completion.
type Agent struct {
	backend   llm.Backend
	model     string
	transport Transport
	limiter   Limiter
	history   *history.Store
	tools     *tools.Registry
	store     *memstore.Store

	input      *bus.Queue
	consoleOut *bus.Queue
	bridgeOut  *bus.Queue

	maxRounds   int
	maxLen      int
	maxRetries  int
	retryBase   time.Duration
	retryMax    time.Duration
	retryBudget time.Duration

	startCooldown  time.Duration
	replayCooldown time.Duration

	persona string
	paused  bool

	lastStartAt time.Time
	lastText    string
	lastTextAt  time.Time

	log *slog.Logger

	// Injectable for tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

func New(opts Options) *Agent {
	cfg := opts.Config
	return &Agent{
		backend:        opts.Backend,
		model:          opts.Model,
		transport:      opts.Transport,
		limiter:        opts.Limiter,
		history:        opts.History,
		tools:          opts.Tools,
		store:          opts.Store,
		input:          opts.Input,
		consoleOut:     opts.ConsoleOut,
		bridgeOut:      opts.BridgeOut,
		maxRounds:      cfg.MaxToolRounds,
		maxLen:         cfg.MaxMessageLen,
		maxRetries:     cfg.MaxRetries,
		retryBase:      cfg.RetryBase(),
		retryMax:       cfg.RetryMax(),
		retryBudget:    cfg.RetryBudget(),
		startCooldown:  cfg.StartCooldown(),
		replayCooldown: cfg.ReplayCooldown(),
		persona:        persona.Load(opts.Store),
		log:            opts.Log.With("component", "agent"),
		now:            time.Now,
		sleep:          sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Run receives from the input queue and processes each message to
// completion before taking the next.
func (a *Agent) Run(ctx context.Context) {
	a.log.Info("agent started", "backend", a.backend, "model", a.model)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.input.C():
			a.Process(ctx, msg)
		}
	}
}

// Process handles one inbound message: command fast path, pause and
// replay gating, then the round sequence. Exactly one reply goes out
// per terminal outcome; suppressed messages produce none.
func (a *Agent) Process(ctx context.Context, msg bus.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	text = textutil.Truncate(text, a.maxLen)
	log := a.log.With("request_id", uuid.NewString(), "source", msg.Source.String())

	if name, payload, ok := parseCommand(text); ok {
		if reply, handled := a.dispatch(ctx, name, payload, log); handled {
			if reply != "" {
				a.respond(ctx, msg, reply)
			}
			return
		}
		// Unrecognized command shapes fall through to the model.
	}

	if a.paused {
		log.Info("paused, message suppressed")
		return
	}
	now := a.now()
	if text == a.lastText && now.Sub(a.lastTextAt) < a.replayCooldown {
		log.Info("verbatim duplicate suppressed", "window", a.replayCooldown)
		return
	}
	a.lastText, a.lastTextAt = text, now

	reply := a.runRounds(ctx, text, log)
	a.respond(ctx, msg, reply)
}

// roundMetrics accumulates per-message counters for the final log
// line. Never user-visible.
type roundMetrics struct {
	llmCalls  int
	llmTime   time.Duration
	toolCalls int
	toolTime  time.Duration
}

// runRounds drives the ask-model/execute-tool loop. The marker taken
// before the user turn is the rollback point for every admission,
// transport, and parse failure, so a failed message leaves no trace
// in the next request.
func (a *Agent) runRounds(ctx context.Context, text string, log *slog.Logger) string {
	started := a.now()
	marker := a.history.Mark()
	a.history.Append(history.UserTurn(text))
	specs := a.tools.Specs()
	var m roundMetrics

	for round := 1; round <= a.maxRounds; round++ {
		body, err := llm.BuildRequest(a.backend, a.model, prompts.System(a.persona), a.history.Turns(), specs)
		if err != nil {
			log.Error("request build failed", "error", err)
			a.history.RollbackTo(marker, "request build failed")
			return errBuild
		}

		if err := a.limiter.Check(); err != nil {
			log.Warn("rate limited", "reason", err)
			a.history.RollbackTo(marker, "rate limited")
			return err.Error()
		}

		callStart := a.now()
		raw, err := a.sendWithRetry(ctx, body, log)
		m.llmCalls++
		m.llmTime += a.now().Sub(callStart)
		if err != nil {
			log.Error("transport exhausted", "error", err)
			a.history.RollbackTo(marker, "transport exhausted")
			return errTransport
		}
		a.limiter.Record()

		res, err := llm.ParseResponse(a.backend, raw)
		if err != nil {
			log.Error("response parse failed", "error", err)
			a.history.RollbackTo(marker, "response parse failed")
			return errParse
		}

		if res.HasToolCall() {
			log.Info("tool call", "tool", res.ToolName, "round", round)
			a.history.Append(history.ToolUseTurn(res.ToolID, res.ToolName, res.InputJSON()))
			toolStart := a.now()
			result := a.executeTool(ctx, res)
			m.toolCalls++
			m.toolTime += a.now().Sub(toolStart)
			a.history.Append(history.ToolResultTurn(res.ToolID, result))
			continue
		}

		reply := res.Text
		if reply == "" {
			reply = emptyResponse
		}
		a.history.Append(history.AssistantTurn(reply))
		a.logMetrics(log, m, started, "text")
		return reply
	}

	// Graceful exhaustion: the tool interactions stay in history.
	log.Warn("max tool rounds reached", "rounds", a.maxRounds)
	a.history.Append(history.AssistantTurn(maxRoundsText))
	a.logMetrics(log, m, started, "max-rounds")
	return maxRoundsText
}

// executeTool runs one tool call and refreshes the cached persona
// when a persona tool reports success. Executor "Error: …" strings
// are ordinary results the model sees, not round failures.
func (a *Agent) executeTool(ctx context.Context, res *llm.Result) string {
	result := a.tools.Execute(ctx, res.ToolName, res.ToolInput)
	switch res.ToolName {
	case "set_persona", "reset_persona":
		if !strings.HasPrefix(result, "Error:") {
			a.persona = persona.Load(a.store)
		}
	}
	return result
}

// sendWithRetry makes up to maxRetries attempts. The delay before
// retry i is min(base·2^(i-1), max), and the whole sequence is bounded
// by the wall-clock retry budget: once elapsed time meets the budget
// the loop stops without sleeping, and a delay that would overshoot
// the remaining budget is clamped (stopping if the clamp hits zero).
func (a *Agent) sendWithRetry(ctx context.Context, body []byte, log *slog.Logger) ([]byte, error) {
	started := a.now()
	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		raw, err := a.transport.Send(ctx, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if attempt == a.maxRetries {
			break
		}
		delay := a.retryBase * (1 << (attempt - 1))
		if delay > a.retryMax {
			delay = a.retryMax
		}
		elapsed := a.now().Sub(started)
		if elapsed >= a.retryBudget {
			log.Warn("retry budget exhausted", "attempt", attempt, "elapsed", elapsed)
			break
		}
		if remaining := a.retryBudget - elapsed; delay > remaining {
			delay = remaining
		}
		if delay <= 0 {
			break
		}
		log.Warn("transport attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		a.sleep(ctx, delay)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("transport failed after %d attempts: %w", a.maxRetries, lastErr)
}

func (a *Agent) logMetrics(log *slog.Logger, m roundMetrics, started time.Time, outcome string) {
	log.Info("message processed",
		"outcome", outcome,
		"llm_calls", m.llmCalls,
		"llm_time", m.llmTime,
		"tool_calls", m.toolCalls,
		"tool_time", m.toolTime,
		"total_time", a.now().Sub(started),
	)
}

// respond mirrors one terminal text to every configured output
// channel. Enqueueing waits briefly then drops; a stalled consumer
// must never stall the loop.
func (a *Agent) respond(ctx context.Context, msg bus.Message, text string) {
	if a.consoleOut != nil {
		a.consoleOut.Send(ctx, bus.Message{Text: text, Source: msg.Source})
	}
	if a.bridgeOut != nil {
		a.bridgeOut.Send(ctx, bus.Message{Text: text, Source: msg.Source, ReplyTo: msg.ReplyTo})
	}
}

// Paused reports the pause flag, for diagnostics.
func (a *Agent) Paused() bool { return a.paused }
