package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/tools"
)

// DefaultMaxSubAgentRounds 是子代理的最大分析轮数。
const DefaultMaxSubAgentRounds = 5

const subAgentSystemPrompt = "You are a thorough document analyst. Your job is to deeply analyze the user's " +
	"documents to answer their query comprehensively.\n\n" +
	"Strategy:\n" +
	"1. Start with a broad retrieval to understand what's available\n" +
	"2. Do follow-up retrievals with refined queries to fill gaps\n" +
	"3. Use metadata queries to understand document structure if needed\n" +
	"4. Synthesize all findings into a comprehensive answer\n\n" +
	"You have these tools:\n" +
	"- retrieve_documents(query) — search document content\n" +
	"- query_documents_metadata(question) — query document metadata\n\n" +
	"Do multiple rounds of retrieval with different queries to ensure thorough coverage. " +
	"When you have enough information, provide your final synthesis."

// statusMessages 是子代理逐轮上报的五个固定阶段标签。
var statusMessages = [...]string{
	"Analyzing documents...",
	"Retrieving more context...",
	"Deepening analysis...",
	"Gathering additional details...",
	"Synthesizing findings...",
}

// subAgentAllowed 是子代理的工具白名单。
var subAgentAllowed = map[string]struct{}{
	"retrieve_documents":       {},
	"query_documents_metadata": {},
}

// SubAgent 是受限的嵌套分析循环:只允许文档检索与元数据查询,
// 非流式,最多五轮,之后强制一次综合。
type SubAgent struct {
	provider  llm.Provider
	registry  *tools.Registry
	model     string
	maxRounds int
	logger    *zap.Logger
}

// NewSubAgent 构造子代理。
func NewSubAgent(provider llm.Provider, registry *tools.Registry, model string, logger *zap.Logger) *SubAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubAgent{
		provider:  provider,
		registry:  registry,
		model:     model,
		maxRounds: DefaultMaxSubAgentRounds,
		logger:    logger.With(zap.String("component", "sub_agent")),
	}
}

// Run 执行多轮文档分析并返回最终综合文本。签名与
// tools.SubAgentFn 对齐,可直接注册为 deep_analysis 的执行函数。
func (a *SubAgent) Run(ctx context.Context, query string, focusAreas []string, tc *tools.ToolContext, onStatus tools.StatusFn) (string, error) {
	userMsg := "Analyze the following query thoroughly: " + query
	if len(focusAreas) > 0 {
		userMsg += "\n\nFocus areas: " + strings.Join(focusAreas, ", ")
	}

	messages := []llm.Message{
		llm.NewSystemMessage(subAgentSystemPrompt),
		llm.NewUserMessage(userMsg),
	}

	report(onStatus, 0)

	// 只向模型提供白名单内的工具目录。
	catalog := make([]llm.ToolSchema, 0, len(subAgentAllowed))
	for _, schema := range a.registry.Schemas(tc) {
		if _, ok := subAgentAllowed[schema.Name]; ok {
			catalog = append(catalog, schema)
		}
	}

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.provider.Completion(ctx, &llm.ChatRequest{
			Model:      a.model,
			Messages:   messages,
			Tools:      catalog,
			ToolChoice: "auto",
		})
		if err != nil {
			return "", fmt.Errorf("sub-agent completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("sub-agent completion: empty response")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			// 文本格式的工具调用兜底,过滤到白名单。
			parsed := a.parseAllowed(msg.Content)
			if len(parsed) == 0 {
				return msg.Content, nil
			}
			messages = append(messages, llm.NewAssistantMessage(msg.Content))
			for _, call := range parsed {
				result := a.executeTool(ctx, call.Name, call.Arguments, tc)
				messages = append(messages, llm.NewUserMessage(
					fmt.Sprintf("[Tool result for %s]: %s", call.Name, result)))
			}
			report(onStatus, round+1)
			continue
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			if _, ok := subAgentAllowed[call.Name]; !ok {
				messages = append(messages, llm.NewToolMessage(call.ID, call.Name,
					fmt.Sprintf("Tool '%s' is not available.", call.Name)))
				continue
			}
			result := a.executeTool(ctx, call.Name, decodeArgs(call.Arguments), tc)
			messages = append(messages, llm.NewToolMessage(call.ID, call.Name, result))
		}
		report(onStatus, round+1)
	}

	// 轮数用尽,要求综合。
	messages = append(messages, llm.NewUserMessage(
		"Please synthesize all the information you've gathered into a comprehensive final answer."))
	final, err := a.provider.Completion(ctx, &llm.ChatRequest{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("sub-agent synthesis: %w", err)
	}
	return final.Text(), nil
}

// parseAllowed 解析文本内联工具调用并过滤到白名单。
func (a *SubAgent) parseAllowed(content string) []tools.ParsedCall {
	isAllowed := func(name string) bool {
		_, ok := subAgentAllowed[name]
		return ok
	}
	parsed := tools.ParseTextToolCalls(content, isAllowed)
	allowed := parsed[:0]
	for _, call := range parsed {
		if isAllowed(call.Name) {
			allowed = append(allowed, call)
		}
	}
	return allowed
}

// executeTool 调度白名单工具并把结构化结果压平为文本。
func (a *SubAgent) executeTool(ctx context.Context, name string, args map[string]any, tc *tools.ToolContext) string {
	result := a.registry.Execute(ctx, name, args, tc, nil)
	switch r := result.(type) {
	case *tools.RetrieveResult:
		return r.FormattedText
	case string:
		return r
	default:
		return fmt.Sprintf("%v", r)
	}
}

func report(onStatus tools.StatusFn, round int) {
	if onStatus == nil {
		return
	}
	idx := round
	if idx > len(statusMessages)-1 {
		idx = len(statusMessages) - 1
	}
	onStatus(statusMessages[idx])
}
