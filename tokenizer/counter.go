package tokenizer

import (
	"go.uber.org/zap"
)

// Counter 是最小的、不返回 error 的计数接口，供调用方直接使用。
type Counter interface {
	CountTokens(text string) int
}

// SafeCounter 包装一个 Tokenizer；底层出错时回退到字符估算并记录警告。
type SafeCounter struct {
	inner  Tokenizer
	logger *zap.Logger
}

// NewSafeCounter 创建带降级的计数器.
func NewSafeCounter(inner Tokenizer, logger *zap.Logger) *SafeCounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafeCounter{inner: inner, logger: logger}
}

// CountTokens 返回文本的 token 数，出错时回退到 len(text)/4 估算.
func (c *SafeCounter) CountTokens(text string) int {
	count, err := c.inner.CountTokens(text)
	if err != nil {
		c.logger.Warn("tokenizer CountTokens failed, falling back to estimate",
			zap.Error(err))
		return len(text) / 4
	}
	return count
}

// ForModel 返回模型对应的计数器：优先 tiktoken，失败则用估算器.
func ForModel(model string, logger *zap.Logger) Counter {
	tok, err := NewTiktokenTokenizer(model)
	if err != nil {
		return NewSafeCounter(NewEstimatorTokenizer(model, 0), logger)
	}
	return NewSafeCounter(tok, logger)
}
