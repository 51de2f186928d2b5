// Package llm speaks to the model backends. It builds wire requests
// from conversation history, parses responses into a uniform Result,
// and owns the HTTP transport. Retry and rate limiting live in the
// agent loop, not here.
package llm

import (
	"fmt"
	"strings"
)

// Backend identifies a model provider and, implicitly, its wire format.
type Backend int

const (
	// BackendAnthropic uses the structured-blocks message format.
	BackendAnthropic Backend = iota
	// BackendOpenAI uses the chat-completions format.
	BackendOpenAI
	// BackendOpenRouter is OpenAI-compatible with its own endpoint.
	BackendOpenRouter
	// BackendOllama is OpenAI-compatible and typically local.
	BackendOllama
)

// ParseBackend converts a config string to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anthropic":
		return BackendAnthropic, nil
	case "openai":
		return BackendOpenAI, nil
	case "openrouter":
		return BackendOpenRouter, nil
	case "ollama":
		return BackendOllama, nil
	default:
		return BackendAnthropic, fmt.Errorf("unknown backend %q", s)
	}
}

// String returns the backend's config name.
func (b Backend) String() string {
	switch b {
	case BackendAnthropic:
		return "anthropic"
	case BackendOpenAI:
		return "openai"
	case BackendOpenRouter:
		return "openrouter"
	case BackendOllama:
		return "ollama"
	default:
		return "unknown"
	}
}

// IsOpenAIFormat reports whether the backend speaks the
// chat-completions wire shape rather than structured blocks.
func (b Backend) IsOpenAIFormat() bool {
	switch b {
	case BackendOpenAI, BackendOpenRouter, BackendOllama:
		return true
	default:
		return false
	}
}

// DefaultEndpoint returns the backend's messages/completions URL.
func (b Backend) DefaultEndpoint() string {
	switch b {
	case BackendAnthropic:
		return "https://api.anthropic.com/v1/messages"
	case BackendOpenAI:
		return "https://api.openai.com/v1/chat/completions"
	case BackendOpenRouter:
		return "https://openrouter.ai/api/v1/chat/completions"
	case BackendOllama:
		return "http://localhost:11434/v1/chat/completions"
	default:
		return ""
	}
}

// DefaultModel returns the model used when the config names none.
func (b Backend) DefaultModel() string {
	switch b {
	case BackendAnthropic:
		return "claude-3-5-haiku-20241022"
	case BackendOpenAI:
		return "gpt-4o-mini"
	case BackendOpenRouter:
		return "anthropic/claude-3.5-haiku"
	case BackendOllama:
		return "llama3.2"
	default:
		return ""
	}
}
