package search

import (
	"context"
	"log"
	"sort"
)

// Service is the facade that asks Meilisearch for a candidate pool first
// and falls back to fuzzy matching over the source. Either way the final
// ranking comes from the fuzzy matcher.
type Service struct {
	meili   *Meili
	fuzzy   *Fuzzy
	matcher Matcher
}

var _ Searcher = (*Service)(nil)

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, source Source) *Service {
	return &Service{meili: meili, fuzzy: NewFuzzy(source), matcher: DefaultMatcher}
}

// Search returns at most ResultLimit published candidates, best first.
// Failures degrade to an empty list.
func (s *Service) Search(ctx context.Context, query string) ([]Candidate, error) {
	if query == "" {
		return []Candidate{}, nil
	}
	if s.meili != nil && s.meili.Healthy() {
		articles, err := s.meili.SearchArticles(query)
		if err == nil {
			return s.topUp(ctx, query, s.rerank(query, articles)), nil
		}
		log.Printf("search: meilisearch error, falling back to fuzzy: %v", err)
	}

	results, err := s.fuzzy.Search(ctx, query)
	if err != nil {
		log.Printf("search: fuzzy error: %v", err)
		return []Candidate{}, nil
	}
	return nonNil(results), nil
}

// rerank orders a Meilisearch pool newest first, so ties break the same
// way as the in-process path, and ranks it with the fuzzy matcher.
func (s *Service) rerank(query string, articles []Article) []Candidate {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
	matches := s.matcher.Rank(query, articles)
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Article.Candidate)
	}
	return out
}

// topUp fills a short Meilisearch ranking from the fuzzy matcher, which
// also finds matches inside words that the index tokenizes away.
func (s *Service) topUp(ctx context.Context, query string, ranked []Candidate) []Candidate {
	if len(ranked) >= ResultLimit {
		return ranked[:ResultLimit]
	}
	extra, err := s.fuzzy.Search(ctx, query)
	if err != nil {
		log.Printf("search: fuzzy top-up error: %v", err)
		return ranked
	}
	seen := make(map[string]bool, len(ranked))
	for _, c := range ranked {
		seen[c.ID] = true
	}
	for _, c := range extra {
		if len(ranked) == ResultLimit {
			break
		}
		if !seen[c.ID] {
			seen[c.ID] = true
			ranked = append(ranked, c)
		}
	}
	return ranked
}

// GetByID resolves a published article by id from the source.
func (s *Service) GetByID(ctx context.Context, id string) (Candidate, error) {
	return s.fuzzy.GetByID(ctx, id)
}

// IndexArticle indexes an article (fire-and-forget to Meilisearch).
func (s *Service) IndexArticle(a Article) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexArticle(RecordFor(a)); err != nil {
			log.Printf("search: index article %s: %v", a.ID, err)
		}
	}()
}

// DeleteArticle removes an article from the search index (fire-and-forget).
func (s *Service) DeleteArticle(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteArticle(id); err != nil {
			log.Printf("search: delete article %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes every published article from the source to
// Meilisearch. It returns how many records were sent.
func (s *Service) ReindexAll(ctx context.Context) int {
	if s.meili == nil || !s.meili.Healthy() {
		return 0
	}
	articles, err := s.fuzzy.source.ListPublishedArticles(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return 0
	}
	records := make([]ArticleRecord, 0, len(articles))
	for _, a := range articles {
		records = append(records, RecordFor(a))
	}
	if err := s.meili.IndexArticles(records); err != nil {
		log.Printf("search: reindex articles: %v", err)
		return 0
	}
	return len(records)
}
