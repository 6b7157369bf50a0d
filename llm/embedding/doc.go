// 版权所有 2026 DocChat Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 embedding 提供统一的文本嵌入（Embedding）接口与实现，
用于将文本转换为向量表示以支持语义检索。

# 概述

不同嵌入服务商在 API 格式与认证方式上存在差异。本包通过 Provider
接口屏蔽这些差异，使检索层可以在不修改调用代码的前提下切换底层
嵌入服务。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed、EmbedQuery、EmbedDocuments 等方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - BaseProvider：公共基类，封装 HTTP 请求、错误映射与批量辅助方法。
  - CachedProvider：Redis 缓存装饰器，按内容哈希缓存向量，缓存故障自动降级。

# 使用方式

	cfg := embedding.DefaultOpenAIConfig()
	cfg.APIKey = "sk-..."
	provider := embedding.NewOpenAIProvider(cfg)

	vec, err := provider.EmbedQuery(ctx, "搜索关键词")
	vecs, err := provider.EmbedDocuments(ctx, []string{"文档1", "文档2"})
*/
package embedding
