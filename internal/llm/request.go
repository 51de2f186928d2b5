package llm

import (
	"encoding/json"
	"fmt"

	"github.com/zclaw/zclaw/internal/history"
)

// MaxTokens bounds the model's reply length on every request.
const MaxTokens = 1024

// ToolSpec describes one tool offered to the model. Parameters is a
// JSON Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// BuildRequest serializes the conversation into the backend's wire
// format. The same history feeds both formats; translation is lossless
// in both directions for the fields the agent uses.
func BuildRequest(backend Backend, model, systemPrompt string, turns []history.Turn, tools []ToolSpec) ([]byte, error) {
	if backend.IsOpenAIFormat() {
		return buildOpenAIRequest(model, systemPrompt, turns, tools)
	}
	return buildAnthropicRequest(model, systemPrompt, turns, tools)
}

// Structured-blocks (Anthropic) request shapes.

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role string `json:"role"`
	// Content is a plain string for text turns, or a one-element
	// array of content blocks for tool traffic.
	Content any `json:"content"`
}

type anthropicContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func buildAnthropicRequest(model, systemPrompt string, turns []history.Turn, tools []ToolSpec) ([]byte, error) {
	req := anthropicRequest{
		Model:     model,
		MaxTokens: MaxTokens,
		System:    systemPrompt,
		Messages:  make([]anthropicMessage, 0, len(turns)),
	}

	for _, t := range turns {
		msg := anthropicMessage{Role: t.Role.String()}
		switch {
		case t.IsToolUse:
			msg.Content = []anthropicContentBlock{{
				Type:  "tool_use",
				ID:    t.ToolID,
				Name:  t.ToolName,
				Input: parseArgs(t.Content),
			}}
		case t.IsToolResult:
			msg.Content = []anthropicContentBlock{{
				Type:      "tool_result",
				ToolUseID: t.ToolID,
				Content:   t.Content,
			}}
		default:
			msg.Content = t.Content
		}
		req.Messages = append(req.Messages, msg)
	}

	for _, ts := range tools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: ts.Parameters,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// Chat-completions (OpenAI-compatible) request shapes.

type openAIRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []openAIMessage `json:"messages"`
	Tools     []openAITool    `json:"tools,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name string `json:"name"`
	// Arguments is the serialized JSON argument object, not an
	// embedded object. That is the chat-completions wire contract.
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string           `json:"type"`
	Function openAIToolSchema `json:"function"`
}

type openAIToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func buildOpenAIRequest(model, systemPrompt string, turns []history.Turn, tools []ToolSpec) ([]byte, error) {
	req := openAIRequest{
		Model:     model,
		MaxTokens: MaxTokens,
		Messages:  make([]openAIMessage, 0, len(turns)+1),
	}

	if systemPrompt != "" {
		sys := systemPrompt
		req.Messages = append(req.Messages, openAIMessage{Role: "system", Content: &sys})
	}

	for _, t := range turns {
		switch {
		case t.IsToolUse:
			req.Messages = append(req.Messages, openAIMessage{
				Role:    "assistant",
				Content: nil,
				ToolCalls: []openAIToolCall{{
					ID:   t.ToolID,
					Type: "function",
					Function: openAIFunction{
						Name:      t.ToolName,
						Arguments: normalizeArgs(t.Content),
					},
				}},
			})
		case t.IsToolResult:
			content := t.Content
			req.Messages = append(req.Messages, openAIMessage{
				Role:       "tool",
				Content:    &content,
				ToolCallID: t.ToolID,
			})
		default:
			content := t.Content
			req.Messages = append(req.Messages, openAIMessage{
				Role:    t.Role.String(),
				Content: &content,
			})
		}
	}

	for _, ts := range tools {
		req.Tools = append(req.Tools, openAITool{
			Type: "function",
			Function: openAIToolSchema{
				Name:        ts.Name,
				Description: ts.Description,
				Parameters:  ts.Parameters,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// parseArgs decodes a serialized argument object, degrading to an
// empty object on malformed input so one bad turn cannot poison the
// whole request.
func parseArgs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// normalizeArgs returns raw when it is a valid JSON object, "{}"
// otherwise.
func normalizeArgs(raw string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return "{}"
	}
	return raw
}
