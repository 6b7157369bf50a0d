package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/docchat/internal/metrics"
	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/tokenizer"
	"github.com/BaSui01/docchat/tools"
)

// DefaultMaxToolRounds 是每个对话轮次允许的最大工具轮数。
const DefaultMaxToolRounds = 3

// Config 控制对话循环的模型与边界。
type Config struct {
	// Model 是主对话模型标识。
	Model string `yaml:"model" json:"model"`
	// MaxToolRounds 限制单个轮次内的工具往返次数,0 取默认值。
	MaxToolRounds int `yaml:"max_tool_rounds" json:"max_tool_rounds"`
	// Temperature 透传给模型,0 表示交由 Provider 决定。
	Temperature float32 `yaml:"temperature" json:"temperature"`
	// HistoryTokenBudget 限制进入提示词的历史 token 总量,0 表示不裁剪。
	HistoryTokenBudget int `yaml:"history_token_budget" json:"history_token_budget"`
}

// DefaultConfig 返回默认循环配置。
func DefaultConfig() Config {
	return Config{MaxToolRounds: DefaultMaxToolRounds}
}

// Orchestrator 驱动单个对话轮次:提供工具目录、执行调用、回灌结果,
// 直到产出最终回答。
type Orchestrator struct {
	provider  llm.Provider
	registry  *tools.Registry
	cfg       Config
	counter   tokenizer.Counter
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewOrchestrator 构造对话编排器。collector 可为 nil。
func NewOrchestrator(provider llm.Provider, registry *tools.Registry, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		provider:  provider,
		registry:  registry,
		cfg:       cfg,
		collector: collector,
		tracer:    otel.Tracer("docchat/chat"),
		logger:    logger.With(zap.String("component", "chat_orchestrator")),
	}
	if cfg.HistoryTokenBudget > 0 {
		o.counter = tokenizer.ForModel(cfg.Model, logger)
	}
	return o
}

// StreamChatCompletion 运行一个完整的对话轮次并返回事件通道。
// 通道在轮次结束(或 ctx 取消)后关闭;错误以 EventError 事件交付,
// 永不 panic。history 不含系统提示,由循环按工具可用性注入。
func (o *Orchestrator) StreamChatCompletion(ctx context.Context, tc *tools.ToolContext, history []llm.Message) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		o.run(ctx, tc, history, events)
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, tc *tools.ToolContext, history []llm.Message, events chan<- StreamEvent) {
	schemas := o.registry.Schemas(tc)

	ctx, span := o.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.Int("chat.tools_enabled", len(schemas)),
	))
	defer span.End()

	if o.counter != nil {
		history = trimHistory(o.counter, history, o.cfg.HistoryTokenBudget)
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.NewSystemMessage(systemPrompt(len(schemas) > 0)))
	messages = append(messages, history...)

	// 无可用工具:直接流式作答,终态。
	if len(schemas) == 0 {
		if o.streamFinal(ctx, messages, events) {
			o.collector.RecordChatTurn("direct", 0)
		} else {
			o.collector.RecordChatTurn("error", 0)
		}
		return
	}

	for round := 0; round < o.cfg.MaxToolRounds; round++ {
		resp, err := o.provider.Completion(ctx, &llm.ChatRequest{
			Model:       o.cfg.Model,
			Messages:    messages,
			Tools:       schemas,
			ToolChoice:  "auto",
			Temperature: o.cfg.Temperature,
		})
		if err != nil {
			o.logger.Warn("completion failed", zap.Int("round", round), zap.Error(err))
			o.emit(ctx, events, errorEvent(fmt.Errorf("chat completion: %w", err)))
			o.collector.RecordChatTurn("error", round)
			return
		}
		if len(resp.Choices) == 0 {
			o.emit(ctx, events, errorEvent(fmt.Errorf("chat completion: empty response")))
			o.collector.RecordChatTurn("error", round)
			return
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
			messages = o.executeStructured(ctx, msg.ToolCalls, tc, messages, events)
			continue
		}

		// 部分本地模型把工具语法当纯文本输出,先尝试文本解析兜底。
		if parsed := tools.ParseTextToolCalls(msg.Content, o.registry.Has); len(parsed) > 0 {
			messages = append(messages, msg)
			messages = o.executeParsed(ctx, parsed, tc, messages, events)
			continue
		}

		// 确认无工具调用:终态,输出本轮内容。
		if msg.Content != "" {
			o.emit(ctx, events, tokenEvent(msg.Content))
			o.collector.RecordChatTurn("answered", round)
			return
		}
		break
	}

	// 轮数用尽仍在请求工具:无条件发起最终流式调用保证有回答。
	if o.streamFinal(ctx, messages, events) {
		o.collector.RecordChatTurn("round_cap", o.cfg.MaxToolRounds)
	} else {
		o.collector.RecordChatTurn("error", o.cfg.MaxToolRounds)
	}
}

// executeStructured 顺序执行结构化工具调用,每个调用追加一条 tool 消息。
func (o *Orchestrator) executeStructured(ctx context.Context, calls []llm.ToolCall, tc *tools.ToolContext, messages []llm.Message, events chan<- StreamEvent) []llm.Message {
	for _, call := range calls {
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		args := decodeArgs(call.Arguments)
		content := o.execute(ctx, call.Name, args, tc, events)
		messages = append(messages, llm.NewToolMessage(id, call.Name, content))
	}
	return messages
}

// executeParsed 顺序执行文本解析出的调用;结果以 user 消息回灌,
// 因为这些调用没有可回填的 tool_call_id。
func (o *Orchestrator) executeParsed(ctx context.Context, calls []tools.ParsedCall, tc *tools.ToolContext, messages []llm.Message, events chan<- StreamEvent) []llm.Message {
	for _, call := range calls {
		content := o.execute(ctx, call.Name, call.Arguments, tc, events)
		messages = append(messages, llm.NewUserMessage(fmt.Sprintf("[Tool result for %s]: %s", call.Name, content)))
	}
	return messages
}

// execute 调度单个工具并把侧信道数据转为事件,返回回灌给模型的文本。
func (o *Orchestrator) execute(ctx context.Context, name string, args map[string]any, tc *tools.ToolContext, events chan<- StreamEvent) string {
	onStatus := func(status string) {
		o.emit(ctx, events, statusEvent(status))
	}
	result := o.registry.Execute(ctx, name, args, tc, onStatus)

	switch r := result.(type) {
	case *tools.RetrieveResult:
		o.emit(ctx, events, toolEvent(name, r.CitationSources))
		return r.FormattedText
	case *tools.WebSearchResult:
		o.emit(ctx, events, toolEvent(name, r))
		return r.Answer
	case string:
		return r
	default:
		encoded, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprintf("%v", r)
		}
		return string(encoded)
	}
}

// streamFinal 发起不带工具目录的流式调用并转发 token。
// 返回是否正常走完流。
func (o *Orchestrator) streamFinal(ctx context.Context, messages []llm.Message, events chan<- StreamEvent) bool {
	stream, err := o.provider.Stream(ctx, &llm.ChatRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		o.emit(ctx, events, errorEvent(fmt.Errorf("chat stream: %w", err)))
		return false
	}
	for chunk := range stream {
		if chunk.Err != nil {
			o.emit(ctx, events, errorEvent(chunk.Err))
			return false
		}
		if chunk.Delta.Content != "" {
			if !o.emit(ctx, events, tokenEvent(chunk.Delta.Content)) {
				return false
			}
		}
	}
	return true
}

// emit 投递一个事件;消费方断开(ctx 取消)时丢弃并返回 false。
func (o *Orchestrator) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func decodeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
