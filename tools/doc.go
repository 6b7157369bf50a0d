// Copyright 2026 DocChat Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package tools provides the tool catalog exposed to the chat model: the
registry (definitions, enablement predicates, dispatch), the text
tool-call parser for models that emit tool syntax as plain text, and
the tool set itself (retrieve_documents, web_search, graph_search,
deep_analysis, manage_tags, query_documents_metadata).

The registry is populated once at startup and read-only afterwards.
Tool handlers never panic out of Execute: unknown tools and handler
failures come back as result strings the model can react to.
*/
package tools
