package tools

import (
	"context"
	"time"

	"github.com/BaSui01/docchat/types"
)

// RetrieveParams narrows the retrieval surface tools may adjust.
// Zero values fall back to the binder's defaults.
type RetrieveParams struct {
	TopK          int
	DateFrom      *time.Time
	DateTo        *time.Time
	RecencyWeight float64
}

// RetrieveFn runs one retrieval call on behalf of a tool, already bound
// to the requesting user.
type RetrieveFn func(ctx context.Context, query string, p RetrieveParams) ([]*types.RetrievalCandidate, error)

// StatusFn receives coarse progress labels from long-running tools.
type StatusFn func(status string)

// ToolContext carries per-request state into tool enablement predicates
// and handlers.
type ToolContext struct {
	RetrieveFn   RetrieveFn
	UserID       string
	UserToken    string
	HasDocuments bool
}

// Event is auxiliary tool output routed to the caller outside the text
// stream (web citations, retrieval source attributions).
type Event struct {
	ToolName string `json:"tool_name"`
	Data     any    `json:"data"`
}
