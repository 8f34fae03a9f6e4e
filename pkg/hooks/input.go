// Package hooks decodes the JSON payloads the host tool pipes to its hook
// commands on stdin.
package hooks

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultModel is reported when the payload carries no model.
const DefaultModel = "Claude"

// Usage is the token usage of the current context window.
type Usage struct {
	InputTokens              int `mapstructure:"input_tokens"`
	CacheCreationInputTokens int `mapstructure:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `mapstructure:"cache_read_input_tokens"`
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// ContextWindow describes how full the model's context is.
type ContextWindow struct {
	CurrentUsage *Usage `mapstructure:"current_usage"`
	Size         int    `mapstructure:"context_window_size"`
}

// Percent returns the used share of the window as a whole percentage, or -1
// when usage or size is missing. Reported usage of zero tokens is 0.
func (c ContextWindow) Percent() int {
	if c.CurrentUsage == nil || c.Size <= 0 {
		return -1
	}
	return c.CurrentUsage.Total() * 100 / c.Size
}

// Input is the decoded hook payload. Unknown fields are ignored.
type Input struct {
	SessionID     string        `mapstructure:"session_id"`
	Cwd           string        `mapstructure:"cwd"`
	StopReason    string        `mapstructure:"stop_reason"`
	ContextWindow ContextWindow `mapstructure:"context_window"`
	Model         string        `mapstructure:"-"`
}

// Read decodes a payload from r. Empty or malformed input yields a zero Input
// with the default model rather than an error.
func Read(r io.Reader) Input {
	if r == nil {
		return Input{Model: DefaultModel}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{Model: DefaultModel}
	}
	return Parse(data)
}

// Parse decodes a payload from raw bytes.
func Parse(data []byte) Input {
	in := Input{Model: DefaultModel}
	if len(strings.TrimSpace(string(data))) == 0 {
		return in
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return in
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &in,
	})
	if err != nil {
		return in
	}
	// A field of the wrong shape leaves the rest of the payload usable.
	_ = decoder.Decode(raw)

	if !hasUsage(raw["context_window"]) {
		in.ContextWindow.CurrentUsage = nil
	}
	in.Model = modelName(raw["model"])
	return in
}

// hasUsage reports whether the window carries a non-empty current_usage object.
func hasUsage(v interface{}) bool {
	window, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	usage, ok := window["current_usage"].(map[string]interface{})
	return ok && len(usage) > 0
}

// modelName accepts either {"display_name": "..."} or a bare string.
func modelName(v interface{}) string {
	switch m := v.(type) {
	case map[string]interface{}:
		if name, ok := m["display_name"].(string); ok && name != "" {
			return name
		}
	case string:
		if m != "" {
			return m
		}
	}
	return DefaultModel
}
