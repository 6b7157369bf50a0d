// 版权所有 2026 DocChat Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供统一的大语言模型接入层：Provider 抽象、请求/响应模型
与错误语义。

# 概述

本包屏蔽 OpenAI 兼容端点在鉴权、错误语义和流式协议上的差异，
对上层的检索、重排与对话循环暴露一致的请求与响应模型。

# 核心接口

  - [Provider]：LLM 提供者接口，提供 Completion / Stream / Name

# 核心类型

  - [ChatRequest] / [ChatResponse]：聊天请求与响应，支持工具目录、
    温度与结构化输出格式
  - [StreamChunk]：流式输出分片，最终分片可携带 usage 与错误
  - [ToolSchema]：暴露给模型的工具声明（JSON Schema 参数）
  - [Error]：统一错误模型，携带错误码、HTTP 状态与可重试标记

消息类型与构造函数（[Message]、[NewUserMessage] 等）从 types 包
re-export，保持管线各层共用一套消息模型。

# 子包

  - openaicompat：OpenAI 兼容聊天端点客户端（SSE 流式解析）
  - embedding：向量化 Provider 与 Redis 缓存装饰器
*/
package llm
