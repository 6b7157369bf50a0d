package retrieval

import (
	"sort"

	"github.com/BaSui01/docchat/types"
)

// DefaultFusionK 是 RRF 的默认阻尼常数。k 越大，
// 排名靠前位置之间的分数差越平缓。
const DefaultFusionK = 60

// Fuse 使用 Reciprocal Rank Fusion 将多个有序候选列表合并为一个。
//
// 列表中排名为 r（从 0 开始）的候选贡献 1/(k+r+1) 分；同一 chunk
// 出现在多个列表时分数累加，因此同时被语义与关键词命中的 chunk
// 排名更高。合并输出使用该 chunk 首次出现的那份候选对象，后续
// 出现只贡献分数。输出按总分严格降序，分数相同时按 chunk ID 升序，
// 保证确定性排序。
func Fuse(lists [][]*types.RetrievalCandidate, k int) []*types.RetrievalCandidate {
	if k <= 0 {
		k = DefaultFusionK
	}

	scores := make(map[string]float64)
	first := make(map[string]*types.RetrievalCandidate)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, cand := range list {
			if cand == nil {
				continue
			}
			id := cand.ID
			if _, seen := first[id]; !seen {
				first[id] = cand
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(k+rank+1)
		}
	}

	merged := make([]*types.RetrievalCandidate, 0, len(order))
	for _, id := range order {
		cand := first[id]
		cand.RRFScore = scores[id]
		merged = append(merged, cand)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].RRFScore != merged[j].RRFScore {
			return merged[i].RRFScore > merged[j].RRFScore
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}
