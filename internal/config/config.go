// Package config handles zclaw configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/zclaw/config.yaml, /etc/zclaw/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "zclaw", "config.yaml"))
	}

	paths = append(paths, "/etc/zclaw/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all zclaw configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Agent      AgentConfig      `yaml:"agent"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	WebConsole WebConsoleConfig `yaml:"web_console"`
	Cron       CronConfig       `yaml:"cron"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Email      EmailConfig      `yaml:"email"`
	DataDir    string           `yaml:"data_dir"`
	LogLevel   string           `yaml:"log_level"`
}

// LLMConfig selects the backend and its credentials.
type LLMConfig struct {
	// Backend is one of: anthropic, openai, openrouter, ollama.
	Backend string `yaml:"backend"`
	APIKey  string `yaml:"api_key"`
	// Model overrides the backend's default model when non-empty.
	Model string `yaml:"model"`
	// BaseURL overrides the backend's default endpoint (mainly for ollama).
	BaseURL string `yaml:"base_url"`
	// TimeoutMS bounds a single HTTP exchange with the backend.
	TimeoutMS int `yaml:"timeout_ms"`
}

// AgentConfig bounds the conversation loop.
type AgentConfig struct {
	// MaxHistoryTurns is the number of user/assistant exchange pairs kept.
	MaxHistoryTurns int `yaml:"max_history_turns"`
	// MaxMessageLen bounds any single history entry, in bytes.
	MaxMessageLen int `yaml:"max_message_len"`
	// MaxToolRounds bounds model→tool→model iterations per message.
	MaxToolRounds int `yaml:"max_tool_rounds"`

	MaxRetries       int `yaml:"max_retries"`
	RetryBaseMS      int `yaml:"retry_base_ms"`
	RetryMaxMS       int `yaml:"retry_max_ms"`
	RetryBudgetMS    int `yaml:"retry_budget_ms"`
	StartCooldownMS  int `yaml:"start_cooldown_ms"`
	ReplayCooldownMS int `yaml:"replay_cooldown_ms"`

	InputQueueLen  int `yaml:"input_queue_len"`
	OutputQueueLen int `yaml:"output_queue_len"`
}

// RateLimitConfig caps LLM usage per clock window.
type RateLimitConfig struct {
	Enabled    *bool `yaml:"enabled"`
	MaxPerHour int   `yaml:"max_per_hour"`
	MaxPerDay  int   `yaml:"max_per_day"`
}

// TelegramConfig configures the chat bridge. A missing token disables it.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// ChatID is the single authorized chat. Messages from any other chat
	// are rejected; zero rejects everything until provisioned.
	ChatID         int64 `yaml:"chat_id"`
	OutputQueueLen int   `yaml:"output_queue_len"`
	FlushOnStart   *bool `yaml:"flush_on_start"`
}

// WebConsoleConfig configures the browser console relay.
type WebConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// CronConfig bounds the scheduler.
type CronConfig struct {
	CheckIntervalMS int `yaml:"check_interval_ms"`
	MaxEntries      int `yaml:"max_entries"`
	MaxActionLen    int `yaml:"max_action_len"`
}

// GPIOConfig is the pin safety policy for GPIO tools.
type GPIOConfig struct {
	MinPin int `yaml:"min_pin"`
	MaxPin int `yaml:"max_pin"`
	// AllowedPins, when non-empty, replaces the min/max range entirely.
	AllowedPins []int `yaml:"allowed_pins"`
}

// EmailConfig points at the outbound email relay bridge.
type EmailConfig struct {
	BridgeURL string `yaml:"bridge_url"`
	BridgeKey string `yaml:"bridge_key"`
}

// Default limits mirror the values the agent was tuned with; config values
// of zero fall back to these.
const (
	DefaultMaxHistoryTurns = 12
	DefaultMaxMessageLen   = 1024
	DefaultMaxToolRounds   = 5

	DefaultMaxRetries    = 3
	DefaultRetryBaseMS   = 2000
	DefaultRetryMaxMS    = 10000
	DefaultRetryBudgetMS = 45000

	DefaultStartCooldownMS  = 30000
	DefaultReplayCooldownMS = 20000

	DefaultInputQueueLen          = 8
	DefaultOutputQueueLen         = 8
	DefaultTelegramOutputQueueLen = 4

	DefaultRateLimitPerHour = 100
	DefaultRateLimitPerDay  = 1000

	DefaultCronCheckIntervalMS = 10000
	DefaultCronMaxEntries      = 16
	DefaultCronMaxActionLen    = 256

	DefaultGPIOMinPin = 2
	DefaultGPIOMaxPin = 10

	DefaultLLMTimeoutMS = 20000
)

// Load reads and validates a config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued limits with their defaults.
func (c *Config) ApplyDefaults() {
	a := &c.Agent
	setIntDefault(&a.MaxHistoryTurns, DefaultMaxHistoryTurns)
	setIntDefault(&a.MaxMessageLen, DefaultMaxMessageLen)
	setIntDefault(&a.MaxToolRounds, DefaultMaxToolRounds)
	setIntDefault(&a.MaxRetries, DefaultMaxRetries)
	setIntDefault(&a.RetryBaseMS, DefaultRetryBaseMS)
	setIntDefault(&a.RetryMaxMS, DefaultRetryMaxMS)
	setIntDefault(&a.RetryBudgetMS, DefaultRetryBudgetMS)
	setIntDefault(&a.StartCooldownMS, DefaultStartCooldownMS)
	setIntDefault(&a.ReplayCooldownMS, DefaultReplayCooldownMS)
	setIntDefault(&a.InputQueueLen, DefaultInputQueueLen)
	setIntDefault(&a.OutputQueueLen, DefaultOutputQueueLen)

	setIntDefault(&c.RateLimit.MaxPerHour, DefaultRateLimitPerHour)
	setIntDefault(&c.RateLimit.MaxPerDay, DefaultRateLimitPerDay)

	setIntDefault(&c.Telegram.OutputQueueLen, DefaultTelegramOutputQueueLen)

	setIntDefault(&c.Cron.CheckIntervalMS, DefaultCronCheckIntervalMS)
	setIntDefault(&c.Cron.MaxEntries, DefaultCronMaxEntries)
	setIntDefault(&c.Cron.MaxActionLen, DefaultCronMaxActionLen)

	if c.GPIO.MinPin == 0 && c.GPIO.MaxPin == 0 {
		c.GPIO.MinPin = DefaultGPIOMinPin
		c.GPIO.MaxPin = DefaultGPIOMaxPin
	}

	setIntDefault(&c.LLM.TimeoutMS, DefaultLLMTimeoutMS)

	if c.LLM.Backend == "" {
		c.LLM.Backend = "anthropic"
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.WebConsole.Port == 0 {
		c.WebConsole.Port = 8080
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case "anthropic", "openai", "openrouter", "ollama":
	default:
		return fmt.Errorf("unknown llm backend %q (valid: anthropic, openai, openrouter, ollama)", c.LLM.Backend)
	}
	if c.GPIO.MinPin > c.GPIO.MaxPin {
		return fmt.Errorf("gpio min_pin %d exceeds max_pin %d", c.GPIO.MinPin, c.GPIO.MaxPin)
	}
	if c.Agent.MaxRetries < 1 {
		return fmt.Errorf("agent max_retries must be at least 1")
	}
	return nil
}

// RateLimitEnabled reports whether the rate limiter should run.
// It defaults to on when the config omits the flag.
func (c *Config) RateLimitEnabled() bool {
	if c.RateLimit.Enabled == nil {
		return true
	}
	return *c.RateLimit.Enabled
}

// TelegramFlushOnStart reports whether stale pending updates should
// be dropped at startup (defaults to on).
func (c *Config) TelegramFlushOnStart() bool {
	if c.Telegram.FlushOnStart == nil {
		return true
	}
	return *c.Telegram.FlushOnStart
}

// Timeout returns the single-exchange HTTP timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// CheckInterval returns the scheduler tick as a duration.
func (c *CronConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMS) * time.Millisecond
}

// RetryBase returns the base retry delay as a duration.
func (c *AgentConfig) RetryBase() time.Duration { return time.Duration(c.RetryBaseMS) * time.Millisecond }

// RetryMax returns the retry delay cap as a duration.
func (c *AgentConfig) RetryMax() time.Duration { return time.Duration(c.RetryMaxMS) * time.Millisecond }

// RetryBudget returns the wall-clock retry budget as a duration.
func (c *AgentConfig) RetryBudget() time.Duration {
	return time.Duration(c.RetryBudgetMS) * time.Millisecond
}

// StartCooldown returns the /start debounce window.
func (c *AgentConfig) StartCooldown() time.Duration {
	return time.Duration(c.StartCooldownMS) * time.Millisecond
}

// ReplayCooldown returns the duplicate-message suppression window.
func (c *AgentConfig) ReplayCooldown() time.Duration {
	return time.Duration(c.ReplayCooldownMS) * time.Millisecond
}

func setIntDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
