package chat

import (
	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/tokenizer"
)

// messageTokenOverhead 每条消息的结构开销估算
const messageTokenOverhead = 4

// trimHistory 从最旧的消息开始丢弃,使保留部分的 token 总量不超过
// budget。最新一条消息始终保留;保留窗口不以孤立的 tool 结果开头,
// 缺少对应 assistant 调用的 tool 消息会被一并丢弃。
func trimHistory(counter tokenizer.Counter, history []llm.Message, budget int) []llm.Message {
	if len(history) == 0 {
		return history
	}

	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := counter.CountTokens(history[i].Content) + messageTokenOverhead
		if total+cost > budget && start < len(history) {
			break
		}
		total += cost
		start = i
	}

	for start < len(history)-1 && history[start].Role == llm.RoleTool {
		start++
	}
	return history[start:]
}
