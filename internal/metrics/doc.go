// 版权所有 2026 DocChat Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
检索、工具、对话、LLM 与缓存五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
工厂注册到显式传入的 Registerer，按 namespace 隔离，支持多维度
label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等 Prometheus
    向量指标，按业务域分组管理。所有记录方法对 nil 接收者安全。

# 主要能力

  - 检索指标：检索总数与流水线耗时，按 mode/status 分组。
  - 工具指标：工具执行总数与耗时，按 tool/status 分组。
  - 对话指标：对话轮次计数与工具回合计数，按 outcome 分组。
  - LLM 指标：请求总数、请求耗时、Token 用量（prompt/completion），
    按 provider/model 分组。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
*/
package metrics
