package tools

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParsedCall is a tool invocation extracted from free-form model text.
type ParsedCall struct {
	Name      string
	Arguments map[string]any
}

var (
	functionTagRe  = regexp.MustCompile(`(?s)<function=(\w+)>(.*?)</function>`)
	parameterTagRe = regexp.MustCompile(`(?s)<parameter=(\w+)>(.*?)</parameter>`)
	toolCallTagRe  = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)
	codeFenceRe    = regexp.MustCompile(`(?is)^\x60\x60\x60[a-z]*\s*|\s*\x60\x60\x60$`)
)

// ParseTextToolCalls extracts tool invocations that some models emit as
// plain text instead of the structured tool-call channel. Three encodings
// are recognized, in priority order:
//
//  1. <function=NAME> blocks with <parameter=KEY>VALUE</parameter> children
//  2. <tool_call>{JSON}</tool_call> blocks with "name" and "arguments"
//     (or "parameters" as fallback)
//  3. a bare JSON array of {"name": ...} objects, optionally inside a
//     code fence
//
// For the bare-array form, names must match registered tools — an array of
// arbitrary {name: ...} data records is not a tool call. Malformed JSON in
// one block skips that block only. Returns nil when nothing matches.
func ParseTextToolCalls(content string, isRegistered func(name string) bool) []ParsedCall {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if calls := parseFunctionTags(content); calls != nil {
		return calls
	}
	if calls := parseToolCallTags(content); calls != nil {
		return calls
	}
	return parseBareArray(content, isRegistered)
}

func parseFunctionTags(content string) []ParsedCall {
	matches := functionTagRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	calls := make([]ParsedCall, 0, len(matches))
	for _, m := range matches {
		args := make(map[string]any)
		for _, pm := range parameterTagRe.FindAllStringSubmatch(m[2], -1) {
			args[pm[1]] = strings.TrimSpace(pm[2])
		}
		calls = append(calls, ParsedCall{Name: m[1], Arguments: args})
	}
	return calls
}

func parseToolCallTags(content string) []ParsedCall {
	matches := toolCallTagRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	var calls []ParsedCall
	for _, m := range matches {
		var obj struct {
			Name       string         `json:"name"`
			Arguments  map[string]any `json:"arguments"`
			Parameters map[string]any `json:"parameters"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &obj); err != nil || obj.Name == "" {
			continue
		}
		args := obj.Arguments
		if args == nil {
			args = obj.Parameters
		}
		if args == nil {
			args = make(map[string]any)
		}
		calls = append(calls, ParsedCall{Name: obj.Name, Arguments: args})
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}

func parseBareArray(content string, isRegistered func(name string) bool) []ParsedCall {
	trimmed := codeFenceRe.ReplaceAllString(strings.TrimSpace(content), "")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "[") {
		return nil
	}

	var items []struct {
		Name       string         `json:"name"`
		Arguments  map[string]any `json:"arguments"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil
	}

	var calls []ParsedCall
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		// A bare array carries no tool-call wrapper; require the name to
		// be a registered tool so plain data records are not mistaken for
		// invocations.
		if isRegistered == nil || !isRegistered(item.Name) {
			continue
		}
		args := item.Arguments
		if args == nil {
			args = item.Parameters
		}
		if args == nil {
			args = make(map[string]any)
		}
		calls = append(calls, ParsedCall{Name: item.Name, Arguments: args})
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}
