package llm

import (
	"encoding/json"
	"testing"

	"github.com/zclaw/zclaw/internal/history"
)

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("request is not valid JSON: %v", err)
	}
	return m
}

func sampleTurns() []history.Turn {
	return []history.Turn{
		history.UserTurn("turn on the light"),
		history.ToolUseTurn("call_1", "gpio_write", `{"pin":4,"level":1}`),
		history.ToolResultTurn("call_1", "OK: pin 4 set high"),
		history.AssistantTurn("Done, the light is on."),
	}
}

func sampleTools() []ToolSpec {
	return []ToolSpec{{
		Name:        "gpio_write",
		Description: "Set a GPIO pin level",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pin":   map[string]any{"type": "integer"},
				"level": map[string]any{"type": "integer"},
			},
		},
	}}
}

func TestBuildAnthropicRequest(t *testing.T) {
	raw, err := BuildRequest(BackendAnthropic, "test-model", "You are a device.", sampleTurns(), sampleTools())
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, raw)

	if m["system"] != "You are a device." {
		t.Errorf("system = %v, want top-level field", m["system"])
	}
	if m["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v, want 1024", m["max_tokens"])
	}

	msgs := m["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("len(messages) = %d, want 4 (system must not be a message)", len(msgs))
	}

	// Tool-use turn: assistant message with a one-element content array.
	toolUse := msgs[1].(map[string]any)
	if toolUse["role"] != "assistant" {
		t.Errorf("tool-use role = %v", toolUse["role"])
	}
	blocks := toolUse["content"].([]any)
	block := blocks[0].(map[string]any)
	if block["type"] != "tool_use" || block["id"] != "call_1" || block["name"] != "gpio_write" {
		t.Errorf("tool_use block = %v", block)
	}
	input := block["input"].(map[string]any)
	if input["pin"] != float64(4) {
		t.Errorf("input must be a parsed object, got %v", block["input"])
	}

	// Tool-result turn: user message with tool_result block.
	toolRes := msgs[2].(map[string]any)
	if toolRes["role"] != "user" {
		t.Errorf("tool-result role = %v", toolRes["role"])
	}
	resBlock := toolRes["content"].([]any)[0].(map[string]any)
	if resBlock["type"] != "tool_result" || resBlock["tool_use_id"] != "call_1" {
		t.Errorf("tool_result block = %v", resBlock)
	}
	if resBlock["content"] != "OK: pin 4 set high" {
		t.Errorf("tool_result content = %v, want plain string", resBlock["content"])
	}

	tools := m["tools"].([]any)
	tool := tools[0].(map[string]any)
	if _, ok := tool["input_schema"]; !ok {
		t.Errorf("tool schema key = %v, want input_schema", tool)
	}
}

func TestBuildOpenAIRequest(t *testing.T) {
	raw, err := BuildRequest(BackendOpenAI, "test-model", "You are a device.", sampleTurns(), sampleTools())
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, raw)

	if _, ok := m["system"]; ok {
		t.Error("chat-completions format must not carry a top-level system field")
	}

	msgs := m["messages"].([]any)
	if len(msgs) != 5 {
		t.Fatalf("len(messages) = %d, want 5 (system prompt is first message)", len(msgs))
	}
	sys := msgs[0].(map[string]any)
	if sys["role"] != "system" || sys["content"] != "You are a device." {
		t.Errorf("first message = %v, want system prompt", sys)
	}

	// Tool-use turn: assistant with null content and tool_calls.
	toolUse := msgs[2].(map[string]any)
	if toolUse["role"] != "assistant" {
		t.Errorf("tool-use role = %v", toolUse["role"])
	}
	if toolUse["content"] != nil {
		t.Errorf("tool-use content = %v, want null", toolUse["content"])
	}
	call := toolUse["tool_calls"].([]any)[0].(map[string]any)
	if call["id"] != "call_1" || call["type"] != "function" {
		t.Errorf("tool call = %v", call)
	}
	fn := call["function"].(map[string]any)
	args, ok := fn["arguments"].(string)
	if !ok {
		t.Fatalf("arguments must be a serialized string, got %T", fn["arguments"])
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil || parsed["pin"] != float64(4) {
		t.Errorf("arguments string does not round-trip: %q", args)
	}

	// Tool-result turn: role tool with tool_call_id.
	toolRes := msgs[3].(map[string]any)
	if toolRes["role"] != "tool" || toolRes["tool_call_id"] != "call_1" {
		t.Errorf("tool-result message = %v", toolRes)
	}

	tool := m["tools"].([]any)[0].(map[string]any)
	if tool["type"] != "function" {
		t.Errorf("tool type = %v", tool["type"])
	}
	schema := tool["function"].(map[string]any)
	if _, ok := schema["parameters"]; !ok {
		t.Errorf("tool schema key = %v, want parameters", schema)
	}
}

func TestBuildOpenAIRequestMalformedArgs(t *testing.T) {
	turns := []history.Turn{
		history.ToolUseTurn("call_9", "wait", `{broken`),
	}
	raw, err := BuildRequest(BackendOllama, "m", "", turns, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, raw)
	call := m["messages"].([]any)[0].(map[string]any)["tool_calls"].([]any)[0].(map[string]any)
	if args := call["function"].(map[string]any)["arguments"]; args != "{}" {
		t.Errorf("malformed args = %v, want {}", args)
	}
}

func TestBuildAnthropicRequestMalformedArgs(t *testing.T) {
	turns := []history.Turn{
		history.ToolUseTurn("call_9", "wait", `not json`),
	}
	raw, err := BuildRequest(BackendAnthropic, "m", "", turns, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, raw)
	block := m["messages"].([]any)[0].(map[string]any)["content"].([]any)[0].(map[string]any)
	// omitempty drops an empty input object; presence of the block
	// with no poison is what matters.
	if block["type"] != "tool_use" {
		t.Errorf("block = %v", block)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"anthropic", BackendAnthropic, false},
		{"OpenAI", BackendOpenAI, false},
		{" openrouter ", BackendOpenRouter, false},
		{"ollama", BackendOllama, false},
		{"grok", BackendAnthropic, true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBackend(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsOpenAIFormat(t *testing.T) {
	if BackendAnthropic.IsOpenAIFormat() {
		t.Error("anthropic is not chat-completions format")
	}
	for _, b := range []Backend{BackendOpenAI, BackendOpenRouter, BackendOllama} {
		if !b.IsOpenAIFormat() {
			t.Errorf("%s should be chat-completions format", b)
		}
	}
}
