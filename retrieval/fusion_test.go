package retrieval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/docchat/types"
)

func cand(id string) *types.RetrievalCandidate {
	return &types.RetrievalCandidate{Chunk: types.Chunk{ID: id}}
}

func ids(cands []*types.RetrievalCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func TestFuse_TwoListsExample(t *testing.T) {
	t.Parallel()

	listA := []*types.RetrievalCandidate{cand("a"), cand("b")}
	listB := []*types.RetrievalCandidate{cand("b"), cand("c")}

	merged := Fuse([][]*types.RetrievalCandidate{listA, listB}, 60)

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"b", "a", "c"}, ids(merged))

	assert.InDelta(t, 1.0/61.0+1.0/62.0, merged[0].RRFScore, 1e-12)
	assert.InDelta(t, 1.0/61.0, merged[1].RRFScore, 1e-12)
	assert.InDelta(t, 1.0/62.0, merged[2].RRFScore, 1e-12)
}

func TestFuse_FirstListRepresentationWins(t *testing.T) {
	t.Parallel()

	fromSemantic := cand("x")
	fromSemantic.Similarity = 0.92
	fromKeyword := cand("x")

	merged := Fuse([][]*types.RetrievalCandidate{
		{fromSemantic},
		{fromKeyword},
	}, 60)

	require.Len(t, merged, 1)
	assert.Same(t, fromSemantic, merged[0])
	assert.InDelta(t, 0.92, merged[0].Similarity, 1e-12)
	assert.InDelta(t, 2.0/61.0, merged[0].RRFScore, 1e-12)
}

func TestFuse_SingleListPreservesOrder(t *testing.T) {
	t.Parallel()

	list := []*types.RetrievalCandidate{cand("a"), cand("b"), cand("c")}
	merged := Fuse([][]*types.RetrievalCandidate{list}, 60)

	assert.Equal(t, []string{"a", "b", "c"}, ids(merged))
	for i := 1; i < len(merged); i++ {
		assert.Greater(t, merged[i-1].RRFScore, merged[i].RRFScore)
	}
}

func TestFuse_TieBreakByChunkID(t *testing.T) {
	t.Parallel()

	// 同一排名位置出现在不同列表中的不同 chunk 分数完全相等
	merged := Fuse([][]*types.RetrievalCandidate{
		{cand("zebra")},
		{cand("apple")},
	}, 60)

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"apple", "zebra"}, ids(merged))
	assert.Equal(t, merged[0].RRFScore, merged[1].RRFScore)
}

func TestFuse_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Fuse(nil, 60))
	assert.Empty(t, Fuse([][]*types.RetrievalCandidate{{}, {}}, 60))
}

func TestFuse_DefaultKOnInvalid(t *testing.T) {
	t.Parallel()

	merged := Fuse([][]*types.RetrievalCandidate{{cand("a")}}, 0)
	require.Len(t, merged, 1)
	assert.InDelta(t, 1.0/61.0, merged[0].RRFScore, 1e-12)
}

func TestFuse_ScoreSymmetry(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		idGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "e", "f"})
		listGen := rapid.SliceOfNDistinct(idGen, 0, 6, rapid.ID[string])

		listA := listGen.Draw(t, "listA")
		listB := listGen.Draw(t, "listB")

		build := func(list []string) []*types.RetrievalCandidate {
			out := make([]*types.RetrievalCandidate, len(list))
			for i, id := range list {
				out[i] = cand(id)
			}
			return out
		}

		forward := Fuse([][]*types.RetrievalCandidate{build(listA), build(listB)}, 60)
		reversed := Fuse([][]*types.RetrievalCandidate{build(listB), build(listA)}, 60)

		// 列表顺序不影响每个 chunk 的总分
		forwardScores := make(map[string]float64)
		for _, c := range forward {
			forwardScores[c.ID] = c.RRFScore
		}
		for _, c := range reversed {
			score, ok := forwardScores[c.ID]
			if !ok {
				t.Fatalf("chunk %q missing from forward fusion", c.ID)
			}
			if math.Abs(score-c.RRFScore) > 1e-12 {
				t.Fatalf("chunk %q score mismatch: %v vs %v", c.ID, score, c.RRFScore)
			}
		}
	})
}

func TestFuse_SelfFusionPreservesOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		list := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z]{1,4}`), 1, 8, rapid.ID[string],
		).Draw(t, "list")

		build := func() []*types.RetrievalCandidate {
			out := make([]*types.RetrievalCandidate, len(list))
			for i, id := range list {
				out[i] = cand(id)
			}
			return out
		}

		merged := Fuse([][]*types.RetrievalCandidate{build(), build()}, 60)

		if len(merged) != len(list) {
			t.Fatalf("expected %d results, got %d", len(list), len(merged))
		}
		for i, c := range merged {
			if c.ID != list[i] {
				t.Fatalf("order changed at %d: want %q got %q", i, list[i], c.ID)
			}
		}
	})
}
