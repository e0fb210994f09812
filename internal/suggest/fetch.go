package suggest

import (
	"context"
	"log"

	"folio/internal/search"
)

// Fetch runs req against s. A failed search resolves to no candidates so
// the session stays open on the empty state.
func Fetch(ctx context.Context, s search.Searcher, req Request) Resolution {
	items, err := s.Search(ctx, req.Query)
	if err != nil {
		log.Printf("suggest: search %q: %v", req.Query, err)
		items = nil
	}
	if len(items) > search.ResultLimit {
		items = items[:search.ResultLimit]
	}
	return Resolution{Request: req, Items: items}
}
