package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector("docchat_test", prometheus.NewRegistry(), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	collector := newTestCollector(t)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.retrievalTotal)
	assert.NotNil(t, collector.retrievalDuration)
	assert.NotNil(t, collector.toolExecutionsTotal)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.llmRequestDuration)
	assert.NotNil(t, collector.llmTokensUsed)
}

func TestCollector_RecordRetrieval(t *testing.T) {
	collector := newTestCollector(t)

	// 记录检索
	collector.RecordRetrieval("hybrid", "success", 120*time.Millisecond)

	// 验证指标
	count := testutil.CollectAndCount(collector.retrievalTotal)
	assert.Greater(t, count, 0)

	// 再记录一次相同的检索
	collector.RecordRetrieval("hybrid", "success", 80*time.Millisecond)

	value := testutil.ToFloat64(collector.retrievalTotal.WithLabelValues("hybrid", "success"))
	assert.Equal(t, 2.0, value)
}

func TestCollector_RecordToolExecution(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordToolExecution("retrieve_documents", "success", 300*time.Millisecond)
	collector.RecordToolExecution("web_search", "error", 2*time.Second)

	okCount := testutil.ToFloat64(collector.toolExecutionsTotal.WithLabelValues("retrieve_documents", "success"))
	assert.Equal(t, 1.0, okCount)

	errCount := testutil.ToFloat64(collector.toolExecutionsTotal.WithLabelValues("web_search", "error"))
	assert.Equal(t, 1.0, errCount)
}

func TestCollector_RecordChatTurn(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordChatTurn("direct", 0)
	collector.RecordChatTurn("final", 2)
	collector.RecordChatTurn("round_cap", 3)

	directCount := testutil.ToFloat64(collector.chatTurnsTotal.WithLabelValues("direct"))
	assert.Equal(t, 1.0, directCount)

	rounds := testutil.ToFloat64(collector.chatRoundsTotal.WithLabelValues())
	assert.Equal(t, 5.0, rounds)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	collector := newTestCollector(t)

	// 记录 LLM 请求
	collector.RecordLLMRequest(
		"openai",
		"gpt-4o-mini",
		"success",
		500*time.Millisecond,
		100, // prompt tokens
		50,  // completion tokens
	)

	// 验证指标
	count := testutil.CollectAndCount(collector.llmRequestsTotal)
	assert.Greater(t, count, 0)

	promptTokens := testutil.ToFloat64(collector.llmTokensUsed.WithLabelValues("openai", "gpt-4o-mini", "prompt"))
	assert.Equal(t, 100.0, promptTokens)

	completionTokens := testutil.ToFloat64(collector.llmTokensUsed.WithLabelValues("openai", "gpt-4o-mini", "completion"))
	assert.Equal(t, 50.0, completionTokens)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	collector := newTestCollector(t)

	// 记录缓存命中
	collector.RecordCacheHit("embedding")

	// 记录缓存未命中
	collector.RecordCacheMiss("embedding")

	// 验证指标
	hitCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, hitCount, 0)

	missCount := testutil.CollectAndCount(collector.cacheMisses)
	assert.Greater(t, missCount, 0)
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector

	// nil 收集器上的记录不应 panic
	collector.RecordRetrieval("semantic", "success", time.Millisecond)
	collector.RecordToolExecution("retrieve_documents", "success", time.Millisecond)
	collector.RecordChatTurn("direct", 0)
	collector.RecordLLMRequest("openai", "gpt-4o-mini", "success", time.Millisecond, 1, 1)
	collector.RecordCacheHit("embedding")
	collector.RecordCacheMiss("embedding")
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := newTestCollector(t)

	// 并发记录多个指标
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordRetrieval("hybrid", "success", 100*time.Millisecond)
			collector.RecordLLMRequest("openai", "gpt-4o-mini", "success", 500*time.Millisecond, 100, 50)
			collector.RecordCacheHit("embedding")
			done <- true
		}()
	}

	// 等待所有 goroutine 完成
	for i := 0; i < 10; i++ {
		<-done
	}

	// 验证指标被正确记录
	retrievals := testutil.ToFloat64(collector.retrievalTotal.WithLabelValues("hybrid", "success"))
	assert.Equal(t, 10.0, retrievals)

	hits := testutil.ToFloat64(collector.cacheHits.WithLabelValues("embedding"))
	assert.Equal(t, 10.0, hits)
}
