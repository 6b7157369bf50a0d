// Copyright (c) DocChat Authors.
// Licensed under the MIT License.

/*
Package types 提供 docchat 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 llm、retrieval、tools、
chat 等上层模块提供统一的类型契约。所有跨包共享的结构体和枚举均定义
于此，以避免循环依赖。

# 核心类型

  - Message / Role / ToolCall — 对话消息与工具调用
  - Chunk                     — 文档分块（内容、embedding、token 数）
  - RetrievalCandidate        — 检索候选，携带各阶段评分与 Score() 优先级
  - DocumentMeta              — 文档级元数据（标题、主题、日期、标签）
  - CommunitySummary          — 知识图谱社区报告
  - GraphPath                 — 实体关系路径
*/
package types
