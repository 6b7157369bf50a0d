package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/docchat/llm"
)

const titlePrompt = "Generate a brief title (3-6 words) summarizing this conversation. " +
	"Return ONLY the title, no quotes, no other text."

// GenerateTitle 在首次问答完成后为会话生成一个简短标题。
// 失败时返回错误,由调用方决定回退标题。
func GenerateTitle(ctx context.Context, provider llm.Provider, model, userMessage, assistantMessage string) (string, error) {
	resp, err := provider.Completion(ctx, &llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			llm.NewSystemMessage(titlePrompt),
			llm.NewUserMessage(fmt.Sprintf("User: %s\n\nAssistant: %s", userMessage, assistantMessage)),
		},
		MaxTokens: 30,
	})
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Text()), `"'`))
	if title == "" {
		return "", fmt.Errorf("generate title: empty response")
	}
	return title, nil
}
