package retrieval

import "context"

// Static is an in-memory Retriever keyed by topic ID. Used in tests and
// by the stateless preview command.
type Static struct {
	// ByTopic maps topic ID to the snippets returned for it.
	ByTopic map[string][]Snippet

	// Err, when set, is returned by every Search call.
	Err error
}

func (s *Static) Search(_ context.Context, _ string, f Filters, limit int) ([]Snippet, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	hits := s.ByTopic[f.TopicID]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
