package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/search"
	"folio/internal/util"
)

// SQLStore persists posts in Postgres or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ search.Source = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const postColumns = `id, title, slug, category, content, published, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var content []byte
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Category, &content, &p.Published, &created, &updated); err != nil {
		return Post{}, err
	}
	p.Content = content
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

func (s *SQLStore) query(q string) string {
	return s.dialect.rebind(q)
}

func (s *SQLStore) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	if err := validateInput(&in); err != nil {
		return Post{}, err
	}
	slug, err := s.uniqueSlug(ctx, Slugify(in.Title), "")
	if err != nil {
		return Post{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	p := Post{
		ID:        util.NewID(""),
		Title:     in.Title,
		Slug:      slug,
		Category:  in.Category,
		Content:   in.Content,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, s.query(`
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Title, p.Slug, p.Category, string(p.Content), p.Published, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// UpdatePost replaces the writable fields of a post. The slug follows the
// title when the title changes.
func (s *SQLStore) UpdatePost(ctx context.Context, id string, in PostInput) (Post, error) {
	if err := validateInput(&in); err != nil {
		return Post{}, err
	}
	current, err := s.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	slug := current.Slug
	if in.Title != current.Title {
		if slug, err = s.uniqueSlug(ctx, Slugify(in.Title), id); err != nil {
			return Post{}, err
		}
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	_, err = s.db.ExecContext(ctx, s.query(`
		UPDATE posts
		SET title = ?, slug = ?, category = ?, content = ?, published = ?, updated_at = ?
		WHERE id = ?
	`), in.Title, slug, in.Category, string(in.Content), in.Published, now.UnixMilli(), id)
	if err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	current.Title = in.Title
	current.Slug = slug
	current.Category = in.Category
	current.Content = in.Content
	current.Published = in.Published
	current.UpdatedAt = now
	return current, nil
}

func (s *SQLStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.query(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the published flag and returns the updated post.
func (s *SQLStore) TogglePublished(ctx context.Context, id string) (Post, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	_, err = s.db.ExecContext(ctx, s.query(`UPDATE posts SET published = ?, updated_at = ? WHERE id = ?`), !p.Published, now.UnixMilli(), id)
	if err != nil {
		return Post{}, fmt.Errorf("toggle published: %w", err)
	}
	p.Published = !p.Published
	p.UpdatedAt = now
	return p, nil
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, s.query(`SELECT `+postColumns+` FROM posts WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// GetPublishedPostBySlug resolves the reader route; drafts are not found.
func (s *SQLStore) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, s.query(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = ?`), slug, true))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post by slug: %w", err)
	}
	return p, nil
}

// ListPosts returns posts newest first.
func (s *SQLStore) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	switch f.Status {
	case StatusPublished:
		where = append(where, "published = ?")
		args = append(args, true)
	case StatusDraft:
		where = append(where, "published = ?")
		args = append(args, false)
	}
	q := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.query(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPublishedArticles implements search.Source, newest first.
func (s *SQLStore) ListPublishedArticles(ctx context.Context) ([]search.Article, error) {
	rows, err := s.db.QueryContext(ctx, s.query(`
		SELECT id, title, slug, category, published, created_at
		FROM posts
		WHERE published = ?
		ORDER BY created_at DESC, id DESC
	`), true)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	defer rows.Close()

	var out []search.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetPublishedArticle implements search.Source. Drafts resolve to
// search.ErrNotFound like missing ids.
func (s *SQLStore) GetPublishedArticle(ctx context.Context, id string) (search.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, s.query(`
		SELECT id, title, slug, category, published, created_at
		FROM posts
		WHERE id = ? AND published = ?
	`), id, true))
	if errors.Is(err, sql.ErrNoRows) {
		return search.Article{}, fmt.Errorf("article %s: %w", id, search.ErrNotFound)
	}
	if err != nil {
		return search.Article{}, fmt.Errorf("get published article: %w", err)
	}
	return a, nil
}

func scanArticle(row rowScanner) (search.Article, error) {
	var a search.Article
	var created int64
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Category, &a.Published, &created); err != nil {
		return search.Article{}, err
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	return a, nil
}

// uniqueSlug returns base, or base with the lowest numeric suffix not used
// by another post.
func (s *SQLStore) uniqueSlug(ctx context.Context, base, exceptID string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		var id string
		err := s.db.QueryRowContext(ctx, s.query(`SELECT id FROM posts WHERE slug = ?`), candidate).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && id == exceptID) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func validateInput(in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.Category == "" {
		in.Category = "general"
	}
	if !ValidCategory(in.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	if len(in.Content) == 0 {
		in.Content = []byte(`{}`)
	}
	return nil
}
