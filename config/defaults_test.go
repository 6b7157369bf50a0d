// 默认配置测试。
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 检索默认值
	assert.Equal(t, "hybrid", cfg.Retrieval.SearchMode)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 20, cfg.Retrieval.CandidatesPerMethod)
	assert.Equal(t, 0.3, cfg.Retrieval.SimilarityFloor)
	assert.Equal(t, 60, cfg.Retrieval.RRFK)
	assert.False(t, cfg.Retrieval.FusionEnabled)
	assert.Equal(t, 3, cfg.Retrieval.FusionQueryCount)
	assert.True(t, cfg.Retrieval.RerankEnabled)

	// 对话循环默认值
	assert.Equal(t, 3, cfg.Chat.MaxToolRounds)
	assert.Equal(t, 0.7, cfg.Chat.Temperature)
	assert.True(t, cfg.Chat.SubAgentEnabled)

	// 图谱默认值
	assert.False(t, cfg.Graph.Enabled)
	assert.Equal(t, 5, cfg.Graph.GlobalTopN)
	assert.Equal(t, 3, cfg.Graph.CommunityMinSize)
	assert.Equal(t, 5, cfg.Graph.PathExcerptLimit)

	// 基础设施默认值
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Embedding.CacheTTL)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "docchat", cfg.Telemetry.ServiceName)
	assert.Equal(t, 0.1, cfg.Telemetry.SampleRate)

	// 默认配置必须通过自身校验
	assert.NoError(t, cfg.Validate())
}
