// Copyright 2026 DocChat Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package chat 实现多轮工具编排的对话循环。

Orchestrator 驱动每个对话轮次的状态机:向模型提供启用的工具目录,
顺序执行模型请求的工具调用(结构化调用优先,文本解析兜底),把结果
回灌给模型,直到模型给出最终回答或轮数用尽。token、工具侧信道数据
与状态提示以带标签的事件从同一通道交付,由上层传输逐一路由。

SubAgent 是受限的嵌套循环:只允许文档检索与元数据查询两个工具,
非流式,最多五轮,通过状态回调上报进度,最终返回一段综合分析文本。
*/
package chat
