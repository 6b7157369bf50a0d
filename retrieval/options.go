package retrieval

import "time"

// Mode 检索模式
type Mode string

const (
	ModeSemantic Mode = "semantic" // Vector similarity only
	ModeKeyword  Mode = "keyword"  // Full-text ranking only
	ModeHybrid   Mode = "hybrid"   // Both, fused via RRF
)

// Options 单次检索调用的参数
type Options struct {
	Mode                Mode       `json:"mode"`
	TopK                int        `json:"top_k"`
	CandidatesPerMethod int        `json:"candidates_per_method"`
	SimilarityFloor     float64    `json:"similarity_floor"`
	DateFrom            *time.Time `json:"date_from,omitempty"`
	DateTo              *time.Time `json:"date_to,omitempty"`
	RecencyWeight       float64    `json:"recency_weight"`
	FusionK             int        `json:"fusion_k"`
	ExpansionEnabled    bool       `json:"expansion_enabled"`
	ExpansionCount      int        `json:"expansion_count"`
	RerankEnabled       bool       `json:"rerank_enabled"`
}

// DefaultOptions 返回默认检索参数
func DefaultOptions() Options {
	return Options{
		Mode:                ModeHybrid,
		TopK:                5,
		CandidatesPerMethod: 20,
		SimilarityFloor:     0.3,
		RecencyWeight:       0.0,
		FusionK:             60,
		ExpansionEnabled:    false,
		ExpansionCount:      3,
		RerankEnabled:       true,
	}
}

// normalize 填充零值字段为默认值
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if o.TopK <= 0 {
		o.TopK = def.TopK
	}
	if o.CandidatesPerMethod <= 0 {
		o.CandidatesPerMethod = def.CandidatesPerMethod
	}
	if o.FusionK <= 0 {
		o.FusionK = def.FusionK
	}
	if o.ExpansionCount <= 0 {
		o.ExpansionCount = def.ExpansionCount
	}
	return o
}
