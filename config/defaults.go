// =============================================================================
// 📦 DocChat 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:       DefaultLLMConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Retrieval: DefaultRetrievalConfig(),
		Graph:     DefaultGraphConfig(),
		Chat:      DefaultChatConfig(),
		WebSearch: DefaultWebSearchConfig(),
		Auth:      DefaultAuthConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL:      "http://localhost:8000/v1",
		APIKey:       "",
		Model:        "gpt-4o-mini",
		UtilityModel: "",
		Timeout:      2 * time.Minute,
	}
}

// DefaultEmbeddingConfig 返回默认向量化配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		BaseURL:      "",
		APIKey:       "",
		Model:        "text-embedding-3-small",
		Dimensions:   1536,
		CacheEnabled: true,
		CacheTTL:     24 * time.Hour,
	}
}

// DefaultRetrievalConfig 返回默认检索配置
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SearchMode:          "hybrid",
		TopK:                5,
		CandidatesPerMethod: 20,
		SimilarityFloor:     0.3,
		RRFK:                60,
		FusionEnabled:       false,
		FusionQueryCount:    3,
		RerankEnabled:       true,
	}
}

// DefaultGraphConfig 返回默认知识图谱配置
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Enabled:          false,
		GlobalTopN:       5,
		CommunityMinSize: 3,
		PathExcerptLimit: 5,
	}
}

// DefaultChatConfig 返回默认对话循环配置
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		MaxToolRounds:        3,
		Temperature:          0.7,
		SubAgentEnabled:      true,
		MetadataQueryEnabled: true,
	}
}

// DefaultWebSearchConfig 返回默认网络搜索配置
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		Enabled: false,
		BaseURL: "https://api.perplexity.ai",
		APIKey:  "",
		Model:   "sonar",
	}
}

// DefaultAuthConfig 返回默认鉴权配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: "",
		Audience:  "authenticated",
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "docchat",
		Password:        "",
		Name:            "docchat",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "docchat",
		SampleRate:   0.1,
	}
}
