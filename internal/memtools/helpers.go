// Package memtools provides the MCP tool handlers for the memory store.
//
// Each tool follows the same pattern:
//   - A struct with its dependencies (journal, store) injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() validates arguments, calls the engine and returns JSON text
//
// Tools hold no business logic. Input and store failures come back as tool
// errors (IsError results), never as Go errors.
package memtools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/HendryAvila/lumen/internal/memory"
)

// MsgNoResults is returned by search when nothing matched.
const MsgNoResults = "没有找到相关记录"

// intArg extracts an optional positive integer argument. A missing key
// yields 0, which the engine reads as "use the default". JSON numbers
// arrive as float64; numeric strings are accepted too. A present value
// that is not a whole number >= 1 is an error.
func intArg(req mcp.CallToolRequest, key string) (int, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return 0, nil
	}
	notInt := fmt.Errorf("invalid %s: must be a whole number, got %v", key, v)
	switch x := v.(type) {
	case bool:
		return 0, notInt
	case float64:
		if x != math.Trunc(x) {
			return 0, notInt
		}
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, notInt
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1, got %d", key, n)
	}
	return n, nil
}

// floatArg extracts a float argument, returning defaultVal when absent.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return defaultVal
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return defaultVal
	}
	return f
}

// boolArg extracts a boolean argument from a tool request. "true"/"false"
// strings are accepted.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return defaultVal
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// optString returns a pointer to a string argument when the key is present,
// so that an explicit "" can be told apart from an omitted field.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

// optBool is optString for booleans.
func optBool(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil
	}
	return &b
}

// listArg reads a string list. Clients send arrays, but a single
// comma-separated string is accepted too.
func listArg(req mcp.CallToolRequest, key string) []string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	var raw []string
	if s, isString := v.(string); isString {
		raw = strings.Split(s, ",")
	} else {
		raw = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// jsonResult renders v as indented JSON text. Non-ASCII text is kept as is.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.TrimRight(buf.String(), "\n")), nil
}

// toolError turns an engine error into a tool error. Validation messages
// are passed through without the package prefix.
func toolError(action string, err error) *mcp.CallToolResult {
	var ve *memory.ValidationError
	switch {
	case errors.As(err, &ve):
		return mcp.NewToolResultError(fmt.Sprintf("invalid %s: %s", ve.Field, ve.Message))
	case errors.Is(err, memory.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: not found", action))
	case errors.Is(err, memory.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("%s: entry was modified by someone else, fetch it again", action))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
	}
}
