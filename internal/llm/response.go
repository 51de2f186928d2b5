package llm

import (
	"encoding/json"
	"fmt"
)

// Result is the uniform parse of one model reply, independent of wire
// format. ToolName empty means a plain text reply.
type Result struct {
	Text      string
	ToolName  string
	ToolID    string
	ToolInput map[string]any
}

// HasToolCall reports whether the model requested a tool invocation.
func (r *Result) HasToolCall() bool { return r.ToolName != "" }

// InputJSON returns the tool arguments reserialized as JSON, for
// storing in the tool-use history turn.
func (r *Result) InputJSON() string {
	if r.ToolInput == nil {
		return "{}"
	}
	b, err := json.Marshal(r.ToolInput)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// apiError is the top-level error object both wire formats share.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponse decodes a raw backend reply into a Result. A top-level
// error object becomes an "API Error: …" text result rather than a Go
// error, so the failure reaches the user as content.
func ParseResponse(backend Backend, raw []byte) (*Result, error) {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
		return &Result{Text: fmt.Sprintf("API Error: %s", apiErr.Error.Message)}, nil
	}

	if backend.IsOpenAIFormat() {
		return parseOpenAIResponse(raw)
	}
	return parseAnthropicResponse(raw)
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

func parseAnthropicResponse(raw []byte) (*Result, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Content == nil {
		return nil, fmt.Errorf("response has no content array")
	}

	// First text block and first tool_use block win; the agent runs
	// one tool per round.
	res := &Result{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if res.Text == "" {
				res.Text = block.Text
			}
		case "tool_use":
			if res.ToolName == "" {
				res.ToolName = block.Name
				res.ToolID = block.ID
				res.ToolInput = block.Input
				if res.ToolInput == nil {
					res.ToolInput = map[string]any{}
				}
			}
		}
	}
	return res, nil
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   *string          `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func parseOpenAIResponse(raw []byte) (*Result, error) {
	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response has no choices")
	}

	msg := resp.Choices[0].Message
	res := &Result{}
	if msg.Content != nil {
		res.Text = *msg.Content
	}
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		res.ToolName = call.Function.Name
		res.ToolID = call.ID
		res.ToolInput = parseArgs(call.Function.Arguments)
	}
	return res, nil
}
