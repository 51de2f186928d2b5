package llm

import (
	"encoding/json"
	"testing"

	"github.com/zclaw/zclaw/internal/history"
)

func TestParseAnthropicTextResponse(t *testing.T) {
	raw := []byte(`{"content":[{"type":"text","text":"Hello there."}]}`)
	res, err := ParseResponse(BackendAnthropic, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Hello there." || res.HasToolCall() {
		t.Errorf("result = %+v", res)
	}
}

func TestParseAnthropicToolResponse(t *testing.T) {
	raw := []byte(`{"content":[
		{"type":"text","text":"Setting the pin."},
		{"type":"tool_use","id":"toolu_1","name":"gpio_write","input":{"pin":4,"level":1}}
	]}`)
	res, err := ParseResponse(BackendAnthropic, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Setting the pin." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.ToolName != "gpio_write" || res.ToolID != "toolu_1" {
		t.Errorf("tool call = %q/%q", res.ToolName, res.ToolID)
	}
	if res.ToolInput["pin"] != float64(4) {
		t.Errorf("ToolInput = %v", res.ToolInput)
	}
}

func TestParseOpenAITextResponse(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{"content":"Hello there."}}]}`)
	res, err := ParseResponse(BackendOpenAI, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Hello there." || res.HasToolCall() {
		t.Errorf("result = %+v", res)
	}
}

func TestParseOpenAIToolResponse(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{
		"content":null,
		"tool_calls":[{"id":"call_7","type":"function","function":{"name":"wait","arguments":"{\"seconds\":2}"}}]
	}}]}`)
	res, err := ParseResponse(BackendOpenRouter, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty for null content", res.Text)
	}
	if res.ToolName != "wait" || res.ToolID != "call_7" {
		t.Errorf("tool call = %q/%q", res.ToolName, res.ToolID)
	}
	if res.ToolInput["seconds"] != float64(2) {
		t.Errorf("ToolInput = %v", res.ToolInput)
	}
}

func TestParseOpenAIMalformedArgumentsDegrade(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{
		"tool_calls":[{"id":"call_8","type":"function","function":{"name":"wait","arguments":"{broken"}}]
	}}]}`)
	res, err := ParseResponse(BackendOllama, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.ToolName != "wait" {
		t.Errorf("ToolName = %q", res.ToolName)
	}
	if len(res.ToolInput) != 0 {
		t.Errorf("malformed arguments should degrade to empty object, got %v", res.ToolInput)
	}
}

func TestParseErrorObjectBothFormats(t *testing.T) {
	raw := []byte(`{"error":{"message":"quota exceeded"}}`)
	for _, b := range []Backend{BackendAnthropic, BackendOpenAI} {
		res, err := ParseResponse(b, raw)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if res.Text != "API Error: quota exceeded" {
			t.Errorf("%s: Text = %q", b, res.Text)
		}
		if res.HasToolCall() {
			t.Errorf("%s: error result must not carry a tool call", b)
		}
	}
}

func TestParseGarbageFails(t *testing.T) {
	if _, err := ParseResponse(BackendAnthropic, []byte("not json")); err == nil {
		t.Error("expected error for non-JSON body")
	}
	if _, err := ParseResponse(BackendOpenAI, []byte(`{"choices":[]}`)); err == nil {
		t.Error("expected error for empty choices")
	}
	if _, err := ParseResponse(BackendAnthropic, []byte(`{}`)); err == nil {
		t.Error("expected error for missing content array")
	}
}

func TestResultInputJSON(t *testing.T) {
	r := &Result{ToolInput: map[string]any{"pin": 4}}
	if got := r.InputJSON(); got != `{"pin":4}` {
		t.Errorf("InputJSON = %q", got)
	}
	empty := &Result{}
	if got := empty.InputJSON(); got != "{}" {
		t.Errorf("InputJSON = %q, want {}", got)
	}
}

func TestWireRoundTrip(t *testing.T) {
	// A tool call parsed from the structured-blocks format and stored
	// as a history turn must rebuild faithfully on the other wire
	// shape: the input object becomes a serialized arguments string.
	raw := []byte(`{"content":[{"type":"tool_use","id":"toolu_5","name":"memory_set","input":{"key":"u_color","value":"blue"}}]}`)
	res, err := ParseResponse(BackendAnthropic, raw)
	if err != nil {
		t.Fatal(err)
	}

	turns := []history.Turn{
		history.ToolUseTurn(res.ToolID, res.ToolName, res.InputJSON()),
		history.ToolResultTurn(res.ToolID, "OK"),
	}
	req, err := BuildRequest(BackendOpenAI, "m", "", turns, nil)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(req, &m); err != nil {
		t.Fatal(err)
	}
	msgs := m["messages"].([]any)
	call := msgs[0].(map[string]any)["tool_calls"].([]any)[0].(map[string]any)
	if call["id"] != "toolu_5" {
		t.Errorf("tool id lost in translation: %v", call["id"])
	}
	args := call["function"].(map[string]any)["arguments"].(string)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		t.Fatalf("arguments not valid JSON: %q", args)
	}
	if parsed["key"] != "u_color" || parsed["value"] != "blue" {
		t.Errorf("arguments = %v", parsed)
	}
	result := msgs[1].(map[string]any)
	if result["role"] != "tool" || result["tool_call_id"] != "toolu_5" {
		t.Errorf("tool result message = %v", result)
	}
}
