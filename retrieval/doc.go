// Copyright 2026 DocChat Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package retrieval 实现文档问答的混合检索与排序管线。

该包覆盖检索管线的全部阶段：语义检索（向量相似度）、关键词检索
（全文排名）、RRF 结果融合、查询扩展、LLM 重排序，并通过 Retriever
编排器组合为单次调用。

# 核心接口/类型

  - Retriever — 检索编排器：模式选择、多查询并发扇出、融合、重排、截断
  - SemanticSearcher — 向量相似度检索（查询嵌入 + 存储近邻查找）
  - KeywordSearcher — 词法全文检索（存储端 ts_rank）
  - Expander — LLM 查询扩展器，失败时退化为仅原始查询
  - Reranker — LLM 相关性重排序器，失败时退化为原始顺序

# 主要能力

  - RRF 融合：纯函数，按 1/(k+rank+1) 累加跨列表分数（Fuse）
  - 检索模式：semantic / keyword / hybrid 三种模式
  - 优雅降级：扩展与重排失败都不会中断基础检索管线
*/
package retrieval
