package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		ct      string
		size    int64
		wantExt string
		wantErr error
	}{
		{"png", "shot.PNG", "image/png", 10, "png", nil},
		{"jpg alias", "a.jpg", "image/jpg", 10, "jpg", nil},
		{"no extension", "blob", "image/webp", 10, "png", nil},
		{"empty", "a.png", "image/png", 0, "", ErrEmpty},
		{"too large", "a.png", "image/png", MaxImageSize + 1, "", ErrTooLarge},
		{"limit", "a.gif", "image/gif", MaxImageSize, "gif", nil},
		{"svg", "a.svg", "image/svg+xml", 10, "", ErrUnsupportedType},
		{"extension mismatch", "a.exe", "image/png", 10, "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Validate(tt.file, tt.ct, tt.size)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(time.Date(2025, 3, 7, 23, 0, 0, 0, time.UTC), "webp")
	assert.Regexp(t, regexp.MustCompile(`^2025/03/07/[0-9a-z]{26}\.webp$`), key)
}

type fakeS3 struct {
	mu      sync.Mutex
	paths   []string
	headers []http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func TestMinioStoreUpload(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewMinioStore(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Region:    "us-east-1",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	body := []byte("\x89PNG fake image")
	got, err := s.Upload(context.Background(), Upload{Name: "a.png", ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Path, "2025/03/01/"))
	assert.Equal(t, "https://cdn.example.com/blog-images/"+got.Path, got.URL)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.paths)
	last := len(fake.paths) - 1
	assert.Equal(t, "PUT /blog-images/"+got.Path, fake.paths[last])
	assert.Equal(t, "max-age=3600", fake.headers[last].Get("Cache-Control"))
}

func TestMinioStoreRejectsBeforeUpload(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewMinioStore(Config{Endpoint: strings.TrimPrefix(srv.URL, "http://"), Region: "us-east-1"})
	require.NoError(t, err)
	_, err = s.Upload(context.Background(), Upload{Name: "a.txt", ContentType: "text/plain", Size: 3, Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, fake.paths)
}
