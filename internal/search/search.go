package search

import (
	"context"
	"errors"
	"time"
)

// ResultLimit caps the number of candidates any search returns.
const ResultLimit = 10

// ErrNotFound is returned when an article does not exist or is not
// published.
var ErrNotFound = errors.New("search: article not found")

// Candidate is the read-only projection of a published article that can be
// referenced by a mention.
type Candidate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
}

// Article is a candidate plus the fields eligibility and ordering depend on.
type Article struct {
	Candidate
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

// Source provides published articles. ListPublishedArticles returns them
// newest first; GetPublishedArticle returns ErrNotFound for unknown or
// unpublished ids.
type Source interface {
	ListPublishedArticles(ctx context.Context) ([]Article, error)
	GetPublishedArticle(ctx context.Context, id string) (Article, error)
}

// Searcher is the candidate search contract used by the suggestion machine
// and the HTTP and MCP surfaces.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	GetByID(ctx context.Context, id string) (Candidate, error)
}

func candidates(articles []Article) []Candidate {
	out := make([]Candidate, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Candidate)
	}
	return out
}

func nonNil(c []Candidate) []Candidate {
	if c == nil {
		return []Candidate{}
	}
	return c
}
