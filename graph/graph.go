// Package graph implements knowledge-graph retrieval: entity-neighbour
// expansion of a chunk set, global community summaries, and relationship
// path search between two entities.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/store"
	"github.com/BaSui01/docchat/types"
)

// excerptLimit caps chunk content rendered into relationship answers.
const excerptLimit = 500

// Config holds graph retrieval settings.
type Config struct {
	// CommunityMinSize filters out communities with fewer entities.
	CommunityMinSize int
	// PathExcerptLimit is how many chunks to pull along a relationship path.
	PathExcerptLimit int
}

// DefaultConfig returns default graph retrieval settings.
func DefaultConfig() Config {
	return Config{
		CommunityMinSize: 3,
		PathExcerptLimit: 5,
	}
}

// Service answers graph-backed retrieval requests.
type Service struct {
	graph  store.GraphStore
	chunks store.ChunkStore
	cfg    Config
	logger *zap.Logger
}

// NewService creates a graph retrieval service.
func NewService(graph store.GraphStore, chunks store.ChunkStore, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommunityMinSize <= 0 {
		cfg.CommunityMinSize = DefaultConfig().CommunityMinSize
	}
	if cfg.PathExcerptLimit <= 0 {
		cfg.PathExcerptLimit = DefaultConfig().PathExcerptLimit
	}
	return &Service{
		graph:  graph,
		chunks: chunks,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "graph_retrieval")),
	}
}

// ExpandWithEntityNeighbors returns up to topK chunks that share entities
// with the given chunks, excluding IDs already retrieved. Returned
// candidates are tagged GraphExpanded. Expansion is a best-effort
// enhancement: every failure collapses to an empty result, never an error.
func (s *Service) ExpandWithEntityNeighbors(ctx context.Context, userID string, chunkIDs []string, exclude map[string]struct{}, topK int) []*types.RetrievalCandidate {
	if len(chunkIDs) == 0 || userID == "" {
		return nil
	}

	entityIDs, err := s.graph.EntitiesForChunks(ctx, userID, chunkIDs)
	if err != nil {
		s.logger.Warn("graph expansion failed", zap.Error(err))
		return nil
	}
	if len(entityIDs) == 0 {
		return nil
	}

	neighborIDs, err := s.graph.EntityNeighborChunks(ctx, userID, entityIDs, topK+len(exclude))
	if err != nil {
		s.logger.Warn("graph expansion failed", zap.Error(err))
		return nil
	}

	fresh := make([]string, 0, topK)
	for _, id := range neighborIDs {
		if _, dup := exclude[id]; dup {
			continue
		}
		fresh = append(fresh, id)
		if len(fresh) == topK {
			break
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	rows, err := s.chunks.FetchChunks(ctx, userID, fresh)
	if err != nil {
		s.logger.Warn("graph expansion failed", zap.Error(err))
		return nil
	}

	docIDs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.DocumentID]; dup {
			continue
		}
		seen[row.DocumentID] = struct{}{}
		docIDs = append(docIDs, row.DocumentID)
	}
	docMap := make(map[string]types.DocumentMeta, len(docIDs))
	if len(docIDs) > 0 {
		docs, err := s.chunks.FetchDocumentMeta(ctx, userID, docIDs)
		if err != nil {
			s.logger.Warn("graph expansion failed", zap.Error(err))
			return nil
		}
		for _, d := range docs {
			docMap[d.ID] = d
		}
	}

	extra := make([]*types.RetrievalCandidate, 0, len(rows))
	for _, row := range rows {
		doc := docMap[row.DocumentID]
		extra = append(extra, &types.RetrievalCandidate{
			Chunk:         row,
			GraphExpanded: true,
			DocTitle:      doc.Title,
			DocDate:       doc.DocDate,
			DocTopics:     doc.Topics,
		})
	}

	s.logger.Debug("graph expansion added neighbours", zap.Int("count", len(extra)))
	return extra
}

// GlobalSearch renders a markdown summary of the user's top knowledge-graph
// communities for global/thematic questions.
func (s *Service) GlobalSearch(ctx context.Context, userID string, topN int) string {
	if userID == "" {
		return "No user context available."
	}

	communities, err := s.graph.UserCommunities(ctx, userID, s.cfg.CommunityMinSize)
	if err != nil {
		s.logger.Warn("global graph search failed", zap.Error(err))
		return fmt.Sprintf("Graph search encountered an error: %v", err)
	}

	if topN > 0 && len(communities) > topN {
		communities = communities[:topN]
	}
	if len(communities) == 0 {
		return "No communities found. The knowledge graph may still be building."
	}

	lines := []string{"## Knowledge Graph Communities\n"}
	for i, c := range communities {
		lines = append(lines, fmt.Sprintf("### %d. %s (%d entities)", i+1, c.Title, c.Size))
		lines = append(lines, c.Summary)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// RelationshipSearch finds and describes the path between two entities,
// with representative excerpts from chunks along the path.
func (s *Service) RelationshipSearch(ctx context.Context, userID, entityA, entityB string) string {
	if userID == "" {
		return "No user context available."
	}

	nodes, err := s.graph.EntityPath(ctx, userID,
		strings.ToLower(strings.TrimSpace(entityA)),
		strings.ToLower(strings.TrimSpace(entityB)))
	if err != nil {
		s.logger.Warn("relationship graph search failed", zap.Error(err))
		return fmt.Sprintf("Graph relationship search encountered an error: %v", err)
	}
	if len(nodes) == 0 {
		return fmt.Sprintf("No relationship path found between '%s' and '%s' in the knowledge graph (within 4 hops).", entityA, entityB)
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Hop < nodes[j].Hop })

	names := make([]string, len(nodes))
	entityIDs := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.EntityName
		entityIDs[i] = n.EntityID
	}
	pathStr := strings.Join(names, " → ")

	lines := []string{fmt.Sprintf("## Relationship Path: %s\n", pathStr)}

	chunkIDs, err := s.graph.EntityNeighborChunks(ctx, userID, entityIDs, s.cfg.PathExcerptLimit)
	if err != nil {
		s.logger.Warn("relationship graph search failed", zap.Error(err))
		return fmt.Sprintf("Graph relationship search encountered an error: %v", err)
	}
	if len(chunkIDs) > 0 {
		rows, err := s.chunks.FetchChunks(ctx, userID, chunkIDs)
		if err != nil {
			s.logger.Warn("relationship graph search failed", zap.Error(err))
			return fmt.Sprintf("Graph relationship search encountered an error: %v", err)
		}
		if len(rows) > 0 {
			lines = append(lines, "### Relevant Excerpts\n")
			for i, row := range rows {
				content := row.Content
				if runes := []rune(content); len(runes) > excerptLimit {
					content = string(runes[:excerptLimit])
				}
				lines = append(lines, fmt.Sprintf("**Excerpt %d:**\n%s\n", i+1, content))
			}
		}
	}

	return strings.Join(lines, "\n")
}
