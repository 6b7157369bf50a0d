// Copyright 2026 DocChat Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package docchat assembles the document-grounded chat system from its
// parts: the retrieval pipeline, the knowledge-graph service, the tool
// registry, and the chat orchestrator.
//
// Usage:
//
//	import "github.com/BaSui01/docchat"
//
//	cfg := config.MustLoad("config.yaml")
//	sys, err := docchat.New(cfg)
//	sys, err := docchat.New(cfg, docchat.WithLogger(logger), docchat.WithDB(db))
//
// The host application verifies the caller, builds a per-request tool
// context, and consumes the event stream:
//
//	identity, err := sys.Verifier.Verify(token)
//	tc := sys.NewToolContext(identity, true)
//	for ev := range sys.Orchestrator.StreamChatCompletion(ctx, tc, history) { ... }
package docchat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/docchat/auth"
	"github.com/BaSui01/docchat/chat"
	"github.com/BaSui01/docchat/config"
	"github.com/BaSui01/docchat/graph"
	"github.com/BaSui01/docchat/internal/database"
	"github.com/BaSui01/docchat/internal/metrics"
	"github.com/BaSui01/docchat/internal/telemetry"
	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/llm/embedding"
	"github.com/BaSui01/docchat/llm/openaicompat"
	"github.com/BaSui01/docchat/retrieval"
	"github.com/BaSui01/docchat/store"
	"github.com/BaSui01/docchat/tools"
	"github.com/BaSui01/docchat/types"
)

// System holds every wired component. Fields are exported so hosts can
// reach individual services (e.g. call the retriever directly, or expose
// the collector's registry on a metrics endpoint).
type System struct {
	Config       *config.Config
	Logger       *zap.Logger
	Provider     llm.Provider
	Embedder     embedding.Provider
	Store        *store.Postgres
	Retriever    *retrieval.Retriever
	Graph        *graph.Service
	Registry     *tools.Registry
	Orchestrator *chat.Orchestrator
	SubAgent     *chat.SubAgent
	Verifier     *auth.Verifier
	Collector    *metrics.Collector

	pool *database.PoolManager
	tel  *telemetry.Providers
}

// Option overrides one assembly default of [New].
type Option func(*options)

type options struct {
	logger   *zap.Logger
	db       *gorm.DB
	redis    *redis.Client
	provider llm.Provider
	embedder embedding.Provider
}

// WithLogger sets a custom zap logger. Without it one is built from the
// log section of the config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDB sets a pre-opened gorm connection, skipping the DSN dial.
func WithDB(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// WithRedis sets a pre-built redis client for the embedding cache.
func WithRedis(rdb *redis.Client) Option {
	return func(o *options) { o.redis = rdb }
}

// WithProvider sets a pre-built chat LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithEmbedder sets a pre-built embedding provider. Caching is the
// caller's concern when this option is used.
func WithEmbedder(p embedding.Provider) Option {
	return func(o *options) { o.embedder = p }
}

// New validates cfg and wires the full system.
func New(cfg *config.Config, opts ...Option) (*System, error) {
	if cfg == nil {
		return nil, fmt.Errorf("docchat: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("docchat: invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = buildLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("docchat: build logger: %w", err)
		}
	}

	tel, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("docchat: init telemetry: %w", err)
	}

	collector := metrics.NewCollector("docchat", nil, logger)

	provider := o.provider
	if provider == nil {
		provider = openaicompat.New(openaicompat.Config{
			Name:    "llm",
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	}
	utilityModel := cfg.LLM.UtilityModel
	if utilityModel == "" {
		utilityModel = cfg.LLM.Model
	}

	embedder := o.embedder
	if embedder == nil {
		embedder = buildEmbedder(cfg, o.redis, logger)
	}

	db := o.db
	if db == nil {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("docchat: connect database: %w", err)
		}
	}
	pool, err := database.NewPoolManager(db, database.PoolConfig{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("docchat: configure pool: %w", err)
	}
	pg := store.NewPostgres(pool.DB(), logger)

	semantic := retrieval.NewSemanticSearcher(embedder, pg, logger)
	keyword := retrieval.NewKeywordSearcher(pg, logger)
	expander := retrieval.NewExpander(provider, utilityModel, logger)
	reranker := retrieval.NewReranker(provider, utilityModel, logger)
	retriever := retrieval.NewRetriever(semantic, keyword, expander, reranker, collector, logger)

	graphSvc := graph.NewService(pg, pg, graph.Config{
		CommunityMinSize: cfg.Graph.CommunityMinSize,
		PathExcerptLimit: cfg.Graph.PathExcerptLimit,
	}, logger)

	sys := &System{
		Config:    cfg,
		Logger:    logger,
		Provider:  provider,
		Embedder:  embedder,
		Store:     pg,
		Retriever: retriever,
		Graph:     graphSvc,
		Collector: collector,
		pool:      pool,
		tel:       tel,
	}

	registry := tools.NewRegistry(collector, logger)
	toolset := []*tools.Tool{
		tools.NewRetrieveDocumentsTool(),
		tools.NewManageTagsTool(pg, pg, logger),
		tools.NewGraphSearchTool(graphSvc, tools.GraphSearchConfig{
			Enabled:    cfg.Graph.Enabled,
			GlobalTopN: cfg.Graph.GlobalTopN,
		}),
		tools.NewQueryMetadataTool(provider, pg, tools.QueryMetadataConfig{
			Enabled: cfg.Chat.MetadataQueryEnabled,
			Model:   utilityModel,
		}, logger),
	}
	if cfg.WebSearch.Enabled {
		search := openaicompat.New(openaicompat.Config{
			Name:    "websearch",
			BaseURL: cfg.WebSearch.BaseURL,
			APIKey:  cfg.WebSearch.APIKey,
			Model:   cfg.WebSearch.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		toolset = append(toolset, tools.NewWebSearchTool(search, tools.WebSearchConfig{
			Enabled: true,
			Model:   cfg.WebSearch.Model,
		}))
	}

	subAgent := chat.NewSubAgent(provider, registry, cfg.LLM.Model, logger)
	toolset = append(toolset, tools.NewDeepAnalysisTool(subAgent.Run, tools.DeepAnalysisConfig{
		Enabled: cfg.Chat.SubAgentEnabled,
	}))
	for _, t := range toolset {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("docchat: register tool: %w", err)
		}
	}

	orchestrator := chat.NewOrchestrator(provider, registry, chat.Config{
		Model:              cfg.LLM.Model,
		MaxToolRounds:      cfg.Chat.MaxToolRounds,
		Temperature:        float32(cfg.Chat.Temperature),
		HistoryTokenBudget: cfg.Chat.HistoryTokenBudget,
	}, collector, logger)

	sys.Registry = registry
	sys.SubAgent = subAgent
	sys.Orchestrator = orchestrator
	sys.Verifier = auth.NewVerifier(auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Audience: cfg.Auth.Audience,
	}, logger)

	return sys, nil
}

// NewToolContext builds the per-request tool context for a verified
// caller. hasDocuments gates the document-backed tools.
func (s *System) NewToolContext(identity *auth.Identity, hasDocuments bool) *tools.ToolContext {
	tc := &tools.ToolContext{
		HasDocuments: hasDocuments,
	}
	if identity != nil {
		tc.UserID = identity.ID
		tc.UserToken = identity.Token
		tc.RetrieveFn = s.RetrieveFn(identity.ID)
	}
	return tc
}

// RetrieveFn binds the retriever to one user with the configured
// pipeline defaults. Tools narrow individual knobs per call.
func (s *System) RetrieveFn(userID string) tools.RetrieveFn {
	base := s.retrievalOptions()
	return func(ctx context.Context, query string, p tools.RetrieveParams) ([]*types.RetrievalCandidate, error) {
		opts := base
		if p.TopK > 0 {
			opts.TopK = p.TopK
		}
		opts.DateFrom = p.DateFrom
		opts.DateTo = p.DateTo
		if p.RecencyWeight > 0 {
			opts.RecencyWeight = p.RecencyWeight
		}
		return s.Retriever.Retrieve(ctx, userID, query, opts)
	}
}

// GenerateTitle names a conversation from its opening exchange using the
// utility model.
func (s *System) GenerateTitle(ctx context.Context, userMessage, assistantMessage string) (string, error) {
	model := s.Config.LLM.UtilityModel
	if model == "" {
		model = s.Config.LLM.Model
	}
	return chat.GenerateTitle(ctx, s.Provider, model, userMessage, assistantMessage)
}

// Close flushes telemetry and releases the database pool. Safe to call
// once after the host is done with the system.
func (s *System) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if s.tel != nil {
		if err := s.tel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *System) retrievalOptions() retrieval.Options {
	r := s.Config.Retrieval
	return retrieval.Options{
		Mode:                retrieval.Mode(r.SearchMode),
		TopK:                r.TopK,
		CandidatesPerMethod: r.CandidatesPerMethod,
		SimilarityFloor:     r.SimilarityFloor,
		FusionK:             r.RRFK,
		ExpansionEnabled:    r.FusionEnabled,
		ExpansionCount:      r.FusionQueryCount,
		RerankEnabled:       r.RerankEnabled,
	}
}

func buildEmbedder(cfg *config.Config, rdb *redis.Client, logger *zap.Logger) embedding.Provider {
	baseURL := cfg.Embedding.BaseURL
	if baseURL == "" {
		baseURL = cfg.LLM.BaseURL
	}
	apiKey := cfg.Embedding.APIKey
	if apiKey == "" {
		apiKey = cfg.LLM.APIKey
	}
	var embedder embedding.Provider = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.LLM.Timeout,
	})
	if cfg.Embedding.CacheEnabled {
		if rdb == nil {
			rdb = redis.NewClient(&redis.Options{
				Addr:         cfg.Redis.Addr,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				MinIdleConns: cfg.Redis.MinIdleConns,
			})
		}
		cacheCfg := embedding.DefaultCacheConfig()
		if cfg.Embedding.CacheTTL > 0 {
			cacheCfg.TTL = cfg.Embedding.CacheTTL
		}
		embedder = embedding.NewCachedProvider(embedder, rdb, cacheCfg, logger)
	}
	return embedder
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	if cfg.Format == "console" {
		zc.Encoding = "console"
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	zc.DisableCaller = !cfg.EnableCaller
	return zc.Build()
}
