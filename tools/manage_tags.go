package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/store"
)

const (
	// tagPreviewTopK caps retrieval for dry-run samples.
	tagPreviewTopK = 10
	// tagExecuteTopK is effectively unlimited for execute.
	tagExecuteTopK = 10000
	// tagSampleMaxShow caps titles listed in a preview.
	tagSampleMaxShow = 5
)

// NewManageTagsTool finds-and-tags, deletes, or merges tags across the
// user's documents. Destructive operations default to a dry-run preview.
func NewManageTagsTool(tags store.TagStore, chunks store.ChunkStore, logger *zap.Logger) *Tool {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "manage_tags"))

	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "manage_tags",
			Description: "Find documents by semantic+keyword search and apply a tag, delete a tag from all documents that have it, or rename/merge a tag across all documents. ALWAYS call with dry_run=true first to show the user a preview of what will change, then ask for confirmation before calling with dry_run=false to execute.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"operation": {"type": "string", "enum": ["find_and_tag", "delete_tag", "merge_tags"], "description": "The tag operation to perform."},
					"dry_run": {"type": "boolean", "description": "true = preview only (no changes), false = execute. Default: true."},
					"query": {"type": "string", "description": "[find_and_tag] Semantic+keyword search query to find documents."},
					"tag_to_apply": {"type": "string", "description": "[find_and_tag] Tag to apply to all matching documents."},
					"tag_to_delete": {"type": "string", "description": "[delete_tag] Tag to remove from all documents that have it."},
					"tag_from": {"type": "string", "description": "[merge_tags] Existing tag to rename."},
					"tag_to": {"type": "string", "description": "[merge_tags] New tag name to replace tag_from."}
				},
				"required": ["operation"]
			}`),
		},
		// available regardless of whether docs exist
		Handler: func(ctx context.Context, args map[string]any, tc *ToolContext, _ StatusFn) (any, error) {
			// the tool is always listed, so the handler carries the nil guard
			if tc == nil {
				return nil, fmt.Errorf("manage_tags: missing tool context")
			}
			operation := strings.TrimSpace(stringArg(args, "operation"))
			h := &tagHandler{tags: tags, chunks: chunks, logger: logger}

			var out string
			var err error
			switch operation {
			case "find_and_tag":
				out, err = h.findAndTag(ctx, args, tc)
			case "delete_tag":
				out, err = h.deleteTag(ctx, args, tc)
			case "merge_tags":
				out, err = h.mergeTags(ctx, args, tc)
			default:
				return fmt.Sprintf("Unknown operation '%s'. Valid operations: find_and_tag, delete_tag, merge_tags", operation), nil
			}
			if err != nil {
				logger.Warn("tag operation failed", zap.String("operation", operation), zap.Error(err))
				return fmt.Sprintf("Tag operation failed. No changes were made. (%v)", err), nil
			}
			return out, nil
		},
	}
}

type tagHandler struct {
	tags   store.TagStore
	chunks store.ChunkStore
	logger *zap.Logger
}

func (h *tagHandler) findAndTag(ctx context.Context, args map[string]any, tc *ToolContext) (string, error) {
	query := strings.TrimSpace(stringArg(args, "query"))
	tag := strings.TrimSpace(stringArg(args, "tag_to_apply"))
	dryRun := boolArg(args, "dry_run", true)

	if query == "" {
		return "Missing required parameter: query", nil
	}
	if tag == "" {
		return "Missing required parameter: tag_to_apply", nil
	}
	if tc == nil || tc.RetrieveFn == nil {
		return "", fmt.Errorf("retrieval is not available")
	}

	topK := tagExecuteTopK
	if dryRun {
		topK = tagPreviewTopK
	}
	chunks, err := tc.RetrieveFn(ctx, query, RetrieveParams{TopK: topK})
	if err != nil {
		return "", err
	}

	docIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, c := range chunks {
		if _, dup := seen[c.DocumentID]; dup {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		docIDs = append(docIDs, c.DocumentID)
	}
	if len(docIDs) == 0 {
		return fmt.Sprintf("No documents found matching '%s'. Try a broader search term.", query), nil
	}

	if dryRun {
		sample, err := h.titleSample(ctx, tc.UserID, docIDs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Found %d document(s) matching '%s':\n%s\n\nWould apply tag '%s' to all matching documents. Shall I proceed?",
			len(docIDs), query, sample, tag), nil
	}

	affected, err := h.tags.AddTag(ctx, tc.UserID, docIDs, tag)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf("Tagged %d document(s) with '%s'.", affected, tag)
	if skipped := len(docIDs) - affected; skipped > 0 {
		msg += fmt.Sprintf(" (%d already had this tag.)", skipped)
	}
	return msg, nil
}

func (h *tagHandler) deleteTag(ctx context.Context, args map[string]any, tc *ToolContext) (string, error) {
	tag := strings.TrimSpace(stringArg(args, "tag_to_delete"))
	dryRun := boolArg(args, "dry_run", true)

	if tag == "" {
		return "Missing required parameter: tag_to_delete", nil
	}

	docIDs, err := h.tags.DocumentsWithTag(ctx, tc.UserID, tag)
	if err != nil {
		return "", err
	}
	if len(docIDs) == 0 {
		return fmt.Sprintf("No documents have the tag '%s'.", tag), nil
	}

	if dryRun {
		sample, err := h.titleSample(ctx, tc.UserID, docIDs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Tag '%s' appears on %d document(s):\n%s\n\nWould remove it from all. Shall I proceed?",
			tag, len(docIDs), sample), nil
	}

	affected, err := h.tags.RemoveTag(ctx, tc.UserID, tag)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed tag '%s' from %d document(s).", tag, affected), nil
}

func (h *tagHandler) mergeTags(ctx context.Context, args map[string]any, tc *ToolContext) (string, error) {
	tagFrom := strings.TrimSpace(stringArg(args, "tag_from"))
	tagTo := strings.TrimSpace(stringArg(args, "tag_to"))
	dryRun := boolArg(args, "dry_run", true)

	if tagFrom == "" {
		return "Missing required parameter: tag_from", nil
	}
	if tagTo == "" {
		return "Missing required parameter: tag_to", nil
	}
	if tagFrom == tagTo {
		return "Source and target tags are identical.", nil
	}

	docIDs, err := h.tags.DocumentsWithTag(ctx, tc.UserID, tagFrom)
	if err != nil {
		return "", err
	}
	if len(docIDs) == 0 {
		return fmt.Sprintf("No documents have the tag '%s'.", tagFrom), nil
	}

	if dryRun {
		sample, err := h.titleSample(ctx, tc.UserID, docIDs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Would rename '%s' → '%s' on %d document(s):\n%s\n\nShall I proceed?",
			tagFrom, tagTo, len(docIDs), sample), nil
	}

	affected, err := h.tags.RenameTag(ctx, tc.UserID, tagFrom, tagTo)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed tag '%s' → '%s' on %d document(s).", tagFrom, tagTo, affected), nil
}

// titleSample renders a bulleted preview of document titles.
func (h *tagHandler) titleSample(ctx context.Context, userID string, docIDs []string) (string, error) {
	docs, err := h.chunks.FetchDocumentMeta(ctx, userID, docIDs)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, titleOrUntitled(d.Title))
	}

	shown := names
	if len(shown) > tagSampleMaxShow {
		shown = shown[:tagSampleMaxShow]
	}
	lines := make([]string, 0, len(shown))
	for _, name := range shown {
		lines = append(lines, "  • "+name)
	}
	out := strings.Join(lines, "\n")
	if extra := len(names) - tagSampleMaxShow; extra > 0 {
		out += fmt.Sprintf("\n  … and %d more", extra)
	}
	return out, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
