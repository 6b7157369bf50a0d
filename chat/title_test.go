package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/docchat/llm"
)

func TestGenerateTitle(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("\"Budget Review Discussion\"\n")}}

	title, err := GenerateTitle(context.Background(), provider, "m", "what is our budget?", "Your budget is ...")
	require.NoError(t, err)
	assert.Equal(t, "Budget Review Discussion", title)

	req := provider.requests[0]
	assert.Contains(t, req.Messages[0].Content, "brief title (3-6 words)")
	assert.Contains(t, req.Messages[1].Content, "User: what is our budget?")
	assert.Contains(t, req.Messages[1].Content, "Assistant: Your budget is ...")
}

func TestGenerateTitleErrors(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{completionErr: errors.New("offline")}
	_, err := GenerateTitle(context.Background(), provider, "m", "u", "a")
	assert.ErrorContains(t, err, "offline")

	empty := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("  ")}}
	_, err = GenerateTitle(context.Background(), empty, "m", "u", "a")
	assert.ErrorContains(t, err, "empty")
}
