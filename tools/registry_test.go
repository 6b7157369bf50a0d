package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/BaSui01/docchat/llm"
)

func staticTool(name string, enabled func(*ToolContext) bool, result any) *Tool {
	return &Tool{
		Schema: llm.ToolSchema{
			Name:       name,
			Parameters: json.RawMessage(`{"type": "object"}`),
		},
		Enabled: enabled,
		Handler: func(context.Context, map[string]any, *ToolContext, StatusFn) (any, error) {
			return result, nil
		},
	}
}

func TestRegistryRegisterAndSchemas(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(staticTool("alpha", nil, "a")))
	require.NoError(t, r.Register(staticTool("beta", func(tc *ToolContext) bool { return tc.HasDocuments }, "b")))

	assert.True(t, r.Has("alpha"))
	assert.False(t, r.Has("gamma"))
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())

	withDocs := r.Schemas(&ToolContext{HasDocuments: true})
	require.Len(t, withDocs, 2)
	assert.Equal(t, "alpha", withDocs[0].Name)
	assert.Equal(t, "beta", withDocs[1].Name)

	withoutDocs := r.Schemas(&ToolContext{HasDocuments: false})
	require.Len(t, withoutDocs, 1)
	assert.Equal(t, "alpha", withoutDocs[0].Name)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(staticTool("alpha", nil, "a")))
	assert.Error(t, r.Register(staticTool("alpha", nil, "a")))
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	got := r.Execute(context.Background(), "missing", nil, &ToolContext{}, nil)
	assert.Equal(t, "Unknown tool: missing", got)
}

func TestRegistryExecuteHandlerError(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(&Tool{
		Schema: llm.ToolSchema{Name: "boom"},
		Handler: func(context.Context, map[string]any, *ToolContext, StatusFn) (any, error) {
			return nil, errors.New("store unavailable")
		},
	}))

	got := r.Execute(context.Background(), "boom", nil, &ToolContext{}, nil)
	assert.Equal(t, "Error: store unavailable", got)
}

func TestRegistryExecuteRateLimited(t *testing.T) {
	t.Parallel()

	tool := staticTool("limited", nil, "ok")
	tool.Limit = rate.NewLimiter(rate.Limit(0), 1) // one call, never refills

	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(tool))

	first := r.Execute(context.Background(), "limited", nil, &ToolContext{}, nil)
	assert.Equal(t, "ok", first)

	second := r.Execute(context.Background(), "limited", nil, &ToolContext{}, nil)
	assert.Contains(t, second, "rate limited")
}

func TestRegistryExecutePassesArgs(t *testing.T) {
	t.Parallel()

	var gotArgs map[string]any
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(&Tool{
		Schema: llm.ToolSchema{Name: "echo"},
		Handler: func(_ context.Context, args map[string]any, _ *ToolContext, _ StatusFn) (any, error) {
			gotArgs = args
			return "done", nil
		},
	}))

	r.Execute(context.Background(), "echo", map[string]any{"query": "hi"}, &ToolContext{}, nil)
	assert.Equal(t, "hi", gotArgs["query"])
}
