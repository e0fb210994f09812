package store

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrTitleRequired   = errors.New("title is required")
)

// Categories are the post classifications, in display order.
var Categories = []string{"fixes", "thoughts", "general"}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Post struct {
	ID        string
	Title     string
	Slug      string
	Category  string
	Content   json.RawMessage
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostInput carries the writable fields of a post. Content must already be
// in the persisted wrapped shape.
type PostInput struct {
	Title     string
	Category  string
	Content   json.RawMessage
	Published bool
}

// Post statuses accepted by PostFilter.
const (
	StatusAll       = ""
	StatusPublished = "published"
	StatusDraft     = "draft"
)

type PostFilter struct {
	Category string
	Status   string
	Limit    int
}

const maxSlugLen = 80

// Slugify derives a URL slug from a title: lowercase letters and digits,
// words joined by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.', r == '/':
			hyphen = true
		default:
			// Skip other characters
		}
	}

	result := b.String()
	if len(result) > maxSlugLen {
		result = strings.TrimRight(result[:maxSlugLen], "-")
	}

	if result == "" {
		result = "post"
	}

	return result
}
