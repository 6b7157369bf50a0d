package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/docchat/internal/metrics"
	"github.com/BaSui01/docchat/llm"
)

// Handler executes one tool call. The result is either a plain string or
// a structured value the orchestration loop knows how to route.
type Handler func(ctx context.Context, args map[string]any, tc *ToolContext, onStatus StatusFn) (any, error)

// Tool couples a schema with its handler and enablement predicate.
type Tool struct {
	Schema  llm.ToolSchema
	Handler Handler
	// Enabled decides per-request visibility; nil means always enabled.
	Enabled func(tc *ToolContext) bool
	// Limit optionally rate-limits executions of this tool.
	Limit *rate.Limiter
}

// Registry is the process-wide tool catalog. It is populated once at
// startup and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*Tool
	order     []string
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(collector *metrics.Collector, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:     make(map[string]*Tool),
		collector: collector,
		logger:    logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool to the catalog. Registering the same name twice
// is an error.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Schema.Name == "" {
		return fmt.Errorf("tool must carry a schema name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Schema.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Schema.Name)
	}
	r.tools[t.Schema.Name] = t
	r.order = append(r.order, t.Schema.Name)
	r.logger.Info("tool registered", zap.String("name", t.Schema.Name))
	return nil
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schemas returns the schemas of all tools enabled for this context, in
// registration order.
func (r *Registry) Schemas(tc *ToolContext) []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		if t.Enabled != nil && !t.Enabled(tc) {
			continue
		}
		out = append(out, t.Schema)
	}
	return out
}

// Execute dispatches to the named tool's handler. It never returns an
// error: unknown tools yield the literal "Unknown tool: <name>" sentinel
// and handler failures come back as "Error: ..." strings, so the
// orchestration loop can always feed something back to the model.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, tc *ToolContext, onStatus StatusFn) any {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("unknown tool requested", zap.String("name", name))
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	if t.Limit != nil && !t.Limit.Allow() {
		r.collector.RecordToolExecution(name, "rate_limited", 0)
		return fmt.Sprintf("Tool '%s' is rate limited right now. Try again shortly.", name)
	}

	start := time.Now()
	result, err := t.Handler(ctx, args, tc, onStatus)
	if err != nil {
		r.collector.RecordToolExecution(name, "error", time.Since(start))
		r.logger.Warn("tool execution failed",
			zap.String("name", name), zap.Error(err))
		return fmt.Sprintf("Error: %v", err)
	}

	r.collector.RecordToolExecution(name, "success", time.Since(start))
	r.logger.Debug("tool executed",
		zap.String("name", name), zap.Duration("elapsed", time.Since(start)))
	return result
}
