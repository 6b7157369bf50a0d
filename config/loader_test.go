// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- YAML 文件加载 ---

func TestLoaderFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  base_url: "https://llm.internal/v1"
  model: "qwen2.5-32b"
  timeout: 90s
retrieval:
  search_mode: "semantic"
  top_k: 8
  rerank_enabled: false
graph:
  enabled: true
  global_top_n: 7
web_search:
  enabled: true
  base_url: "https://api.perplexity.ai"
  model: "sonar-pro"
database:
  host: "db.internal"
  port: 5433
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://llm.internal/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "qwen2.5-32b", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "semantic", cfg.Retrieval.SearchMode)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.False(t, cfg.Retrieval.RerankEnabled)
	assert.True(t, cfg.Graph.Enabled)
	assert.Equal(t, 7, cfg.Graph.GlobalTopN)
	assert.True(t, cfg.WebSearch.Enabled)
	assert.Equal(t, "sonar-pro", cfg.WebSearch.Model)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)

	// 未覆盖的字段保留默认值
	assert.Equal(t, 20, cfg.Retrieval.CandidatesPerMethod)
	assert.Equal(t, 0.3, cfg.Retrieval.SimilarityFloor)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "hybrid", cfg.Retrieval.SearchMode)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoaderMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval: ["), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

// --- 环境变量覆盖 ---

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("DOCCHAT_RETRIEVAL_SEARCH_MODE", "keyword")
	t.Setenv("DOCCHAT_RETRIEVAL_TOP_K", "12")
	t.Setenv("DOCCHAT_RETRIEVAL_SIMILARITY_FLOOR", "0.45")
	t.Setenv("DOCCHAT_CHAT_SUB_AGENT_ENABLED", "false")
	t.Setenv("DOCCHAT_LLM_TIMEOUT", "45s")
	t.Setenv("DOCCHAT_LOG_OUTPUT_PATHS", "stdout, /var/log/docchat.log")
	t.Setenv("DOCCHAT_AUTH_JWT_SECRET", "s3cret")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "keyword", cfg.Retrieval.SearchMode)
	assert.Equal(t, 12, cfg.Retrieval.TopK)
	assert.Equal(t, 0.45, cfg.Retrieval.SimilarityFloor)
	assert.False(t, cfg.Chat.SubAgentEnabled)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"stdout", "/var/log/docchat.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoaderEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 8\n"), 0o600))

	t.Setenv("DOCCHAT_RETRIEVAL_TOP_K", "3")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestLoaderCustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_RETRIEVAL_TOP_K", "9")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestLoaderBadEnvValue(t *testing.T) {
	t.Setenv("DOCCHAT_RETRIEVAL_TOP_K", "many")

	_, err := NewLoader().Load()
	assert.ErrorContains(t, err, "DOCCHAT_RETRIEVAL_TOP_K")
}

// --- 验证器 ---

func TestLoaderValidator(t *testing.T) {
	t.Setenv("DOCCHAT_RETRIEVAL_SEARCH_MODE", "psychic")

	_, err := NewLoader().WithValidator(func(c *Config) error { return c.Validate() }).Load()
	assert.ErrorContains(t, err, "search_mode")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.Retrieval.TopK = 0
	bad.Chat.Temperature = 3
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_k")
	assert.Contains(t, err.Error(), "temperature")

	web := DefaultConfig()
	web.WebSearch.Enabled = true
	web.WebSearch.BaseURL = ""
	assert.ErrorContains(t, web.Validate(), "web_search")

	tel := DefaultConfig()
	tel.Telemetry.Enabled = true
	tel.Telemetry.OTLPEndpoint = ""
	assert.ErrorContains(t, tel.Validate(), "otlp_endpoint")

	rate := DefaultConfig()
	rate.Telemetry.SampleRate = 1.5
	assert.ErrorContains(t, rate.Validate(), "sample_rate")
}

func TestDatabaseDSN(t *testing.T) {
	d := DefaultDatabaseConfig()
	d.Password = "pw"
	assert.Equal(t,
		"host=localhost port=5432 user=docchat password=pw dbname=docchat sslmode=disable",
		d.DSN())
}
