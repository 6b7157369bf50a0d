package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
)

func newTestProvider(url string) *Provider {
	return New(Config{
		Name:    "test",
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "test-model",
	}, zap.NewNop())
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"model": "test-model",
			"choices": [{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello"}}],
			"usage": {"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}
		}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text())
	assert.Equal(t, 5, resp.Usage.TotalTokens)
	assert.Equal(t, "test", resp.Provider)
}

func TestCompletionToolCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Tool definitions go out under "parameters", not "arguments".
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "retrieve_documents", req.Tools[0].Function.Name)
		assert.JSONEq(t, `{"type":"object"}`, string(req.Tools[0].Function.Parameters))

		w.Write([]byte(`{
			"id": "cmpl-2",
			"model": "test-model",
			"choices": [{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant",
				"tool_calls":[{"id":"call_1","type":"function","function":{"name":"retrieve_documents","arguments":"{\"query\":\"budget\"}"}}]
			}}]
		}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
		Tools: []llm.ToolSchema{{
			Name:       "retrieve_documents",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	tc := resp.Choices[0].Message.ToolCalls[0]
	assert.Equal(t, "call_1", tc.ID)
	assert.Equal(t, "retrieve_documents", tc.Name)
	assert.JSONEq(t, `{"query":"budget"}`, string(tc.Arguments))
}

func TestCompletionErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode llm.ErrorCode
		wantMsg  string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, llm.ErrRateLimited, "slow down"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, llm.ErrUnauthorized, "bad key"},
		{"quota", http.StatusBadRequest, `{"error":{"message":"insufficient quota"}}`, llm.ErrQuotaExceeded, "insufficient quota"},
		{"server error", http.StatusInternalServerError, `boom`, llm.ErrUpstreamError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL)
			_, err := p.Completion(context.Background(), &llm.ChatRequest{})
			require.Error(t, err)

			var lerr *llm.Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.wantCode, lerr.Code)
			assert.Equal(t, tt.wantMsg, lerr.Message)
			assert.Equal(t, tt.status, lerr.HTTPStatus)
		})
	}
}

func TestStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	ch, err := p.Stream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	var got string
	var finish string
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		got += chunk.Delta.Content
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	assert.Equal(t, "Hello", got)
	assert.Equal(t, "stop", finish)
}

func TestStreamErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Stream(context.Background(), &llm.ChatRequest{})
	require.Error(t, err)

	var lerr *llm.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.ErrUpstreamError, lerr.Code)
	assert.True(t, lerr.Retryable)
}

// 统计 goroutine 数,不能与其他测试并行。
func TestStreamAbandonedConsumerReleasesProducer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		// 持续推送直到客户端断开,模拟不会自行结束的长流。
		for {
			if _, err := w.Write([]byte("data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"x\"}}]}\n\n")); err != nil {
				return
			}
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(time.Millisecond):
			}
		}
	}))
	defer srv.Close()

	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newTestProvider(srv.URL)
	ch, err := p.Stream(ctx, &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	chunk, ok := <-ch
	require.True(t, ok)
	require.Nil(t, chunk.Err)

	// 读到一个分片后放弃:取消 ctx 且不再从通道接收。
	// 生产者 goroutine 必须自行退出,而不是阻塞在下一次发送上。
	cancel()

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond,
		"stream producer goroutine should exit after the consumer walks away")
}
