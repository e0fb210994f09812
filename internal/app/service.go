package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"folio/internal/codec"
	"folio/internal/config"
	"folio/internal/media"
	"folio/internal/mention"
	"folio/internal/render"
	"folio/internal/search"
	"folio/internal/store"
)

// PostStore is the persistence the service needs.
type PostStore interface {
	CreatePost(ctx context.Context, in store.PostInput) (store.Post, error)
	UpdatePost(ctx context.Context, id string, in store.PostInput) (store.Post, error)
	DeletePost(ctx context.Context, id string) error
	TogglePublished(ctx context.Context, id string) (store.Post, error)
	GetPost(ctx context.Context, id string) (store.Post, error)
	GetPublishedPostBySlug(ctx context.Context, slug string) (store.Post, error)
	ListPosts(ctx context.Context, f store.PostFilter) ([]store.Post, error)
	Ping(ctx context.Context) error
}

// Candidates is candidate search plus index maintenance.
type Candidates interface {
	search.Searcher
	IndexArticle(a search.Article)
	DeleteArticle(id string)
}

// Invalidator drops a cached published snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type PostPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Published bool      `json:"published"`
	Excerpt   *string   `json:"excerpt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PostDetail struct {
	PostPayload
	Content json.RawMessage `json:"content"`
	HTML    string          `json:"html"`
}

// PostBody is the write payload of the admin routes. Content may be any
// persisted shape.
type PostBody struct {
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Content   json.RawMessage `json:"content"`
	Published bool            `json:"published"`
}

type Service struct {
	cfg        config.Config
	store      PostStore
	candidates Candidates
	snapshot   Invalidator
	media      media.Store
	codec      *codec.Codec
}

func New(cfg config.Config, posts PostStore, candidates Candidates) *Service {
	return &Service{
		cfg:        cfg,
		store:      posts,
		candidates: candidates,
		codec:      codec.New(mention.MustSchema()),
	}
}

// WithSnapshot sets the cache invalidated after every post write.
func (s *Service) WithSnapshot(inv Invalidator) *Service {
	s.snapshot = inv
	return s
}

// WithMedia enables image uploads.
func (s *Service) WithMedia(m media.Store) *Service {
	s.media = m
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AdminToken() string {
	return s.cfg.AdminToken
}

func payloadFor(p store.Post) PostPayload {
	out := PostPayload{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Category:  p.Category,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if excerpt, ok := codec.DeriveExcerpt(p.Content); ok {
		out.Excerpt = &excerpt
	}
	return out
}

func payloads(posts []store.Post) []PostPayload {
	out := make([]PostPayload, 0, len(posts))
	for _, p := range posts {
		out = append(out, payloadFor(p))
	}
	return out
}

func checkCategory(category string) error {
	if category != "" && !store.ValidCategory(category) {
		return validationError("category must be one of "+strings.Join(store.Categories, ", "), map[string]any{"allowed": store.Categories})
	}
	return nil
}

// ListPublished returns published posts newest first.
func (s *Service) ListPublished(ctx context.Context, category string) ([]PostPayload, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	posts, err := s.store.ListPosts(ctx, store.PostFilter{Category: category, Status: store.StatusPublished})
	if err != nil {
		return nil, err
	}
	return payloads(posts), nil
}

// ListAll returns every post for the owner.
func (s *Service) ListAll(ctx context.Context, category, status string) ([]PostPayload, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	switch status {
	case store.StatusAll, store.StatusPublished, store.StatusDraft:
	default:
		return nil, validationError("status must be published or draft", nil)
	}
	posts, err := s.store.ListPosts(ctx, store.PostFilter{Category: category, Status: status})
	if err != nil {
		return nil, err
	}
	return payloads(posts), nil
}

func (s *Service) detail(p store.Post) PostDetail {
	doc, _ := s.codec.Deserialize(p.Content)
	return PostDetail{
		PostPayload: payloadFor(p),
		Content:     p.Content,
		HTML:        string(render.Body(doc)),
	}
}

// GetPublished returns a published post with its reader markup.
func (s *Service) GetPublished(ctx context.Context, slug string) (PostDetail, error) {
	p, err := s.store.GetPublishedPostBySlug(ctx, slug)
	if err != nil {
		return PostDetail{}, err
	}
	return s.detail(p), nil
}

// GetPost returns any post, drafts included.
func (s *Service) GetPost(ctx context.Context, id string) (PostDetail, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return PostDetail{}, err
	}
	return s.detail(p), nil
}

// ReaderPage renders the public page of a published post.
func (s *Service) ReaderPage(ctx context.Context, slug string) (string, error) {
	p, err := s.store.GetPublishedPostBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	doc, _ := s.codec.Deserialize(p.Content)
	page, err := render.Page(render.PostView{
		SiteName:  s.cfg.SiteName,
		Title:     p.Title,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
		Doc:       doc,
	})
	if err != nil {
		return "", fmt.Errorf("render post %s: %w", p.ID, err)
	}
	return page, nil
}

func (s *Service) input(body PostBody) (store.PostInput, error) {
	raw, shape, err := s.codec.Normalize(body.Content)
	if err != nil {
		return store.PostInput{}, err
	}
	if shape == codec.ShapeRaw {
		log.Printf("app: content in unknown shape stored as a raw dump")
	}
	return store.PostInput{
		Title:     body.Title,
		Category:  body.Category,
		Content:   raw,
		Published: body.Published,
	}, nil
}

func (s *Service) CreatePost(ctx context.Context, body PostBody) (PostDetail, error) {
	in, err := s.input(body)
	if err != nil {
		return PostDetail{}, err
	}
	p, err := s.store.CreatePost(ctx, in)
	if err != nil {
		return PostDetail{}, err
	}
	s.afterWrite(ctx, p)
	return s.detail(p), nil
}

func (s *Service) UpdatePost(ctx context.Context, id string, body PostBody) (PostDetail, error) {
	in, err := s.input(body)
	if err != nil {
		return PostDetail{}, err
	}
	p, err := s.store.UpdatePost(ctx, id, in)
	if err != nil {
		return PostDetail{}, err
	}
	s.afterWrite(ctx, p)
	return s.detail(p), nil
}

func (s *Service) TogglePublished(ctx context.Context, id string) (PostPayload, error) {
	p, err := s.store.TogglePublished(ctx, id)
	if err != nil {
		return PostPayload{}, err
	}
	s.afterWrite(ctx, p)
	return payloadFor(p), nil
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.candidates.DeleteArticle(id)
	s.invalidate(ctx)
	return nil
}

// afterWrite keeps the candidate index and snapshot in step with a post.
// Drafts are removed from the index.
func (s *Service) afterWrite(ctx context.Context, p store.Post) {
	if p.Published {
		s.candidates.IndexArticle(search.Article{
			Candidate: search.Candidate{ID: p.ID, Title: p.Title, Slug: p.Slug, Category: p.Category},
			Published: true,
			CreatedAt: p.CreatedAt,
		})
	} else {
		s.candidates.DeleteArticle(p.ID)
	}
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.snapshot != nil {
		s.snapshot.Invalidate(ctx)
	}
}

// SearchMentions returns mention candidates for q; failures degrade to an
// empty list.
func (s *Service) SearchMentions(ctx context.Context, q string) []search.Candidate {
	items, err := s.candidates.Search(ctx, q)
	if err != nil {
		log.Printf("app: mention search %q: %v", q, err)
		return []search.Candidate{}
	}
	if items == nil {
		return []search.Candidate{}
	}
	return items
}

func (s *Service) GetMention(ctx context.Context, id string) (search.Candidate, error) {
	return s.candidates.GetByID(ctx, id)
}

func (s *Service) UploadImage(ctx context.Context, u media.Upload) (media.Stored, error) {
	if s.media == nil {
		return media.Stored{}, domainError(http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Image storage is not configured", nil)
	}
	return s.media.Upload(ctx, u)
}
