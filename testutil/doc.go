// Copyright 2026 DocChat Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package testutil 提供 DocChat 测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试提供统一的辅助能力,
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext,
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertMessagesEqual / AssertToolCallsEqual 等
  - 异步断言: AssertEventuallyTrue / AssertEventuallyEqual,
    支持超时轮询等待条件满足
  - 数据工具: MustJSON / MustParseJSON / CopyMessages
  - 流式辅助: CollectStreamChunks / CollectStreamContent /
    SendChunksToChannel,用于 LLM 流式响应测试

# 子包

  - testutil/mocks: Mock 实现,包括 MockProvider(LLM Provider)、
    MockEmbedder(向量化)、MockStore(文档库五个读写面),
    均支持 Builder 模式与错误注入
  - testutil/fixtures: 测试数据工厂,提供预置文档分块、检索候选、
    ChatResponse、流式块等样例

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithResponse("hello")
	resp, err := provider.Completion(ctx, req)
	require.NoError(t, err)
*/
package testutil
