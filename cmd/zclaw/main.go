// Zclaw is a small conversational agent designed to run on a single
// device. It answers over a local console, an optional browser
// console, and an optional Telegram chat, calling tools (GPIO,
// memory, scheduler, email) on the model's behalf.
//
// Usage:
//
//	zclaw serve              Run the agent (default)
//	zclaw version            Print version and build information
//	zclaw -config FILE ...   Use an explicit config file
//
// Configuration comes from a single YAML file discovered via
// [config.DefaultSearchPaths].
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zclaw/zclaw/internal/agent"
	"github.com/zclaw/zclaw/internal/buildinfo"
	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/channel"
	"github.com/zclaw/zclaw/internal/config"
	"github.com/zclaw/zclaw/internal/cron"
	"github.com/zclaw/zclaw/internal/diag"
	"github.com/zclaw/zclaw/internal/emailbridge"
	"github.com/zclaw/zclaw/internal/history"
	"github.com/zclaw/zclaw/internal/hw"
	"github.com/zclaw/zclaw/internal/llm"
	"github.com/zclaw/zclaw/internal/memstore"
	"github.com/zclaw/zclaw/internal/ratelimit"
	"github.com/zclaw/zclaw/internal/telegram"
	"github.com/zclaw/zclaw/internal/tools"
	"github.com/zclaw/zclaw/internal/webconsole"
)

// main stays minimal so the startup-to-shutdown lifecycle can be
// driven from tests through run.
func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	command := "serve"

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			fmt.Fprintln(stdout, "usage: zclaw [-config FILE] [serve|version]")
			return nil
		case !strings.HasPrefix(args[i], "-"):
			command = args[i]
		default:
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}

	switch command {
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "serve":
		return runServe(ctx, stdin, stdout, configPath)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runServe(ctx context.Context, stdin io.Reader, stdout io.Writer, configPath string) error {
	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		level, err = config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	log.Info("starting zclaw", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "config", cfgPath)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Persistent key-value store backing memory, cron entries, user
	// tools, persona, and rate-limit counters.
	store, err := memstore.Open(filepath.Join(cfg.DataDir, "zclaw.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	backend, err := llm.ParseBackend(cfg.LLM.Backend)
	if err != nil {
		return err
	}
	model := cfg.LLM.Model
	if model == "" {
		model = backend.DefaultModel()
	}
	baseURL := cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = backend.DefaultEndpoint()
	}
	client, err := llm.NewClient(backend, baseURL, cfg.LLM.APIKey, cfg.LLM.Timeout(), log)
	if err != nil {
		return err
	}

	input := bus.NewQueue("input", cfg.Agent.InputQueueLen, log)
	consoleOut := bus.NewQueue("console-out", cfg.Agent.OutputQueueLen, log)

	sched := cron.New(store, input, cfg.Cron.MaxEntries, cfg.Cron.MaxActionLen, cfg.Cron.CheckInterval(), log)

	var email *emailbridge.Client
	if cfg.Email.BridgeURL != "" {
		email = emailbridge.New(cfg.Email.BridgeURL, cfg.Email.BridgeKey, log)
	}

	// The reporter's fields are filled in as subsystems come up below;
	// nothing asks for a report until the agent loop is running.
	reporter := diag.New()

	pinPolicy := hw.PinPolicy{Min: cfg.GPIO.MinPin, Max: cfg.GPIO.MaxPin, Allowed: cfg.GPIO.AllowedPins}
	registry := tools.NewRegistry(tools.Deps{
		GPIO:      hw.NewSimGPIO(pinPolicy.PolicyPins()),
		I2C:       &hw.SimI2C{},
		PinPolicy: pinPolicy,
		Store:     store,
		Scheduler: sched,
		Email:     email,
		Diag:      reporter.Report,
		Log:       log,
	})

	limiter := ratelimit.New(store, cfg.RateLimit.MaxPerHour, cfg.RateLimit.MaxPerDay, cfg.RateLimitEnabled(), log)
	hist := history.New(cfg.Agent.MaxHistoryTurns, cfg.Agent.MaxMessageLen, log)
	reporter.Limiter = limiter
	reporter.HistoryLen = hist.Len
	reporter.Queues = []*bus.Queue{input, consoleOut}

	var bridgeOut *bus.Queue
	var bridge *telegram.Bridge
	if cfg.Telegram.Token != "" {
		bridgeOut = bus.NewQueue("bridge-out", cfg.Telegram.OutputQueueLen, log)
		bridge, err = telegram.New(cfg.Telegram, backend, cfg.Agent.MaxMessageLen, input, bridgeOut, log)
		if err != nil {
			return err
		}
		reporter.Queues = append(reporter.Queues, bridgeOut)
	}

	worker := agent.New(agent.Options{
		Backend:    backend,
		Model:      model,
		Transport:  client,
		Limiter:    limiter,
		History:    hist,
		Tools:      registry,
		Store:      store,
		Input:      input,
		ConsoleOut: consoleOut,
		BridgeOut:  bridgeOut,
		Config:     cfg.Agent,
		Log:        log,
	})

	console := channel.NewConsole(stdin, stdout, input, consoleOut, cfg.Agent.MaxMessageLen, log)
	if cfg.WebConsole.Enabled {
		web := webconsole.NewServer(cfg.WebConsole, input, cfg.Agent.MaxMessageLen, log)
		console.SetMirror(web.Broadcast)
		reporter.ClientCount = web.ClientCount
		go func() {
			if err := web.Run(ctx); err != nil {
				log.Error("web console failed", "error", err)
			}
		}()
	}

	go worker.Run(ctx)
	go sched.Run(ctx)
	go console.RunWriter(ctx)
	if bridge != nil {
		go bridge.Run(ctx)
		go bridge.RunSender(ctx)
	}

	// The console reader owns the foreground; EOF on stdin or a
	// shutdown signal ends the process.
	errCh := make(chan error, 1)
	go func() { errCh <- console.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
		log.Info("console closed")
	}
	cancel()
	log.Info("zclaw stopped")
	return nil
}
