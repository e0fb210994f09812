package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	articles []Article
	err      error
	lists    int
}

func (f *fakeSource) ListPublishedArticles(context.Context) ([]Article, error) {
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	var out []Article
	for _, a := range f.articles {
		if a.Published {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSource) GetPublishedArticle(_ context.Context, id string) (Article, error) {
	for _, a := range f.articles {
		if a.ID == id && a.Published {
			return a, nil
		}
	}
	return Article{}, ErrNotFound
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// article builds a published article; pass age to order by recency.
func article(id, title string, age int) Article {
	return Article{
		Candidate: Candidate{ID: id, Title: title, Slug: id, Category: "general"},
		Published: true,
		CreatedAt: base.Add(-time.Duration(age) * time.Hour),
	}
}

func ids(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestScore(t *testing.T) {
	m := DefaultMatcher

	score, ok := m.Score("go", "Go")
	require.True(t, ok)
	assert.Equal(t, 0.0, score)

	score, ok = m.Score("dns", "Fixing DNS issues")
	require.True(t, ok)
	assert.InDelta(t, 0.07, score, 1e-9)

	score, ok = m.Score("fixng", "Fixing DNS")
	require.True(t, ok)
	assert.InDelta(t, 0.2, score, 1e-9)

	score, ok = m.Score("fix", "Fixing DNS")
	require.True(t, ok)
	assert.InDelta(t, 0.001, score, 1e-9)

	_, ok = m.Score("zzz", "Fixing DNS")
	assert.False(t, ok)

	_, ok = m.Score("", "Fixing DNS")
	assert.False(t, ok)

	// Far from the start the proximity penalty alone exceeds the threshold.
	_, ok = m.Score("needle", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa needle")
	assert.False(t, ok)
}

func TestFieldNorm(t *testing.T) {
	assert.Equal(t, 1.0, fieldNorm("Go"))
	assert.Equal(t, 0.707, fieldNorm("Go tips"))
	assert.Equal(t, 0.577, fieldNorm("Fixing  DNS issues"))
	assert.Equal(t, 0.5, fieldNorm("a b c d"))
}

func TestRankOrdering(t *testing.T) {
	articles := []Article{
		article("learning", "Learning Go", 0),
		article("tips", "Go tips", 1),
		article("exact", "Go", 2),
		article("other", "Rust ownership", 3),
	}
	matches := DefaultMatcher.Rank("go", articles)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Article.ID)
	assert.Equal(t, "tips", matches[1].Article.ID)
	assert.Equal(t, "learning", matches[2].Article.ID)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRankTieBreaksByInputOrder(t *testing.T) {
	articles := []Article{
		article("newest", "Go tips", 0),
		article("middle", "Go tips", 1),
		article("oldest", "Go tips", 2),
	}
	matches := DefaultMatcher.Rank("tips", articles)
	require.Len(t, matches, 3)
	assert.Equal(t, "newest", matches[0].Article.ID)
	assert.Equal(t, "middle", matches[1].Article.ID)
	assert.Equal(t, "oldest", matches[2].Article.ID)
}

func TestRankSkipsUnpublished(t *testing.T) {
	hidden := article("hidden", "Go", 0)
	hidden.Published = false
	matches := DefaultMatcher.Rank("go", []Article{hidden, article("shown", "Go tips", 1)})
	require.Len(t, matches, 1)
	assert.Equal(t, "shown", matches[0].Article.ID)
}

func TestRankInvariants(t *testing.T) {
	var articles []Article
	titles := []string{"Post", "Posting guide", "Postgres tuning", "A post about posts", "Compost", "Pots and pans", "Ghost"}
	for i := 0; i < 30; i++ {
		articles = append(articles, article(fmt.Sprintf("a%02d", i), titles[i%len(titles)], i))
	}
	matches := DefaultMatcher.Rank("post", articles)
	assert.LessOrEqual(t, len(matches), ResultLimit)
	assert.NotEmpty(t, matches)
	for _, m := range matches {
		raw, ok := DefaultMatcher.Score("post", m.Article.Title)
		require.True(t, ok)
		assert.LessOrEqual(t, raw, DefaultMatcher.Threshold)
	}
}

func TestFuzzySearch(t *testing.T) {
	src := &fakeSource{articles: []Article{
		article("a", "Fixing DNS issues", 0),
		article("b", "Thoughts on DNS", 1),
		article("c", "Gardening", 2),
	}}
	hidden := article("d", "DNS", 3)
	hidden.Published = false
	src.articles = append(src.articles, hidden)

	f := NewFuzzy(src)
	got, err := f.Search(context.Background(), "dns")
	require.NoError(t, err)
	assert.NotContains(t, ids(got), "d")
	assert.NotContains(t, ids(got), "c")
	assert.ElementsMatch(t, []string{"a", "b"}, ids(got))

	src.lists = 0
	got, err = f.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, src.lists)

	c, err := f.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Fixing DNS issues", c.Title)
	_, err = f.GetByID(context.Background(), "d")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestServiceDegradesToEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	s := NewService(nil, src)
	got, err := s.Search(context.Background(), "dns")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestServiceRerank(t *testing.T) {
	s := NewService(nil, &fakeSource{})
	pool := []Article{
		article("old", "Go", 5),
		article("new", "Go", 0),
		article("other", "Gardening notes", 1),
	}
	got := s.rerank("go", pool)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []string{"new", "old"}, ids(got)[:2])
}

func TestServiceTopUpFromFuzzy(t *testing.T) {
	src := &fakeSource{articles: []Article{
		article("pg", "Tuning PostgreSQL", 0),
		article("sql", "SQL basics", 1),
		article("go", "Gardening", 2),
	}}
	s := NewService(nil, src)

	got := s.topUp(context.Background(), "sql", []Candidate{{ID: "sql", Title: "SQL basics"}})
	assert.Equal(t, "sql", got[0].ID)
	assert.Contains(t, ids(got), "pg")
	assert.NotContains(t, ids(got), "go")
	assert.Len(t, got, 2)

	full := make([]Candidate, 0, ResultLimit+1)
	for i := 0; i <= ResultLimit; i++ {
		full = append(full, Candidate{ID: fmt.Sprint(i)})
	}
	src.lists = 0
	assert.Len(t, s.topUp(context.Background(), "sql", full), ResultLimit)
	assert.Equal(t, 0, src.lists)
}

type mapCache struct {
	data  map[string][]byte
	saves int
	err   error
}

func (c *mapCache) Load(_ context.Context, key string, dst any) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Save(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.saves++
	c.data[key] = raw
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestCachedSource(t *testing.T) {
	src := &fakeSource{articles: []Article{article("a", "Go", 0)}}
	cache := &mapCache{data: map[string][]byte{}}
	cs := NewCachedSource(src, cache, 0)
	ctx := context.Background()

	first, err := cs.ListPublishedArticles(ctx)
	require.NoError(t, err)
	second, err := cs.ListPublishedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Candidate, second[0].Candidate)
	assert.True(t, first[0].CreatedAt.Equal(second[0].CreatedAt))

	cs.Invalidate(ctx)
	_, err = cs.ListPublishedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.lists)

	cache.err = errors.New("redis down")
	_, err = cs.ListPublishedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.lists)
}

func TestRecordFor(t *testing.T) {
	a := article("x", "Title", 0)
	r := RecordFor(a)
	assert.Equal(t, base.UnixMilli(), r.CreatedAt)
	assert.True(t, r.Published)
	assert.Equal(t, "x", r.Slug)
}
