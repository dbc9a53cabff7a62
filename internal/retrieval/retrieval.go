// Package retrieval defines the knowledge-retrieval boundary. The
// production system answers these queries from a vector index; that
// implementation lives outside this module. Callers must treat empty
// results as normal and retrieval failure as degradable.
package retrieval

import "context"

// Filters scopes a search to one course and topic.
type Filters struct {
	CourseID string
	TopicID  string
}

// Snippet is one ranked piece of source material.
type Snippet struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Retriever returns ranked snippets for a query. Implementations never
// report an error for an empty result set.
type Retriever interface {
	Search(ctx context.Context, query string, f Filters, limit int) ([]Snippet, error)
}
