// Package media stores uploaded post images in an S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"folio/internal/util"
)

const (
	MaxImageSize  = 10 << 20
	DefaultBucket = "blog-images"
	cacheControl  = "max-age=3600"
)

var (
	ErrEmpty           = errors.New("no file provided")
	ErrTooLarge        = errors.New("file size too large, maximum allowed size is 10MB")
	ErrUnsupportedType = errors.New("invalid file type, only JPEG, PNG, GIF and WebP images are allowed")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// Upload is an image received from a client.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored locates an uploaded object.
type Stored struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Store accepts validated image uploads.
type Store interface {
	Upload(ctx context.Context, u Upload) (Stored, error)
}

// Validate checks an upload's size, declared type and file extension and
// returns the normalized extension.
func Validate(name, contentType string, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmpty
	}
	if size > MaxImageSize {
		return "", ErrTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	if !allowedTypes[ct] {
		return "", ErrUnsupportedType
	}
	ext := "png"
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		ext = strings.ToLower(name[i+1:])
	}
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension .%s", ErrUnsupportedType, ext)
	}
	return ext, nil
}

// ObjectKey places an object under a yyyy/mm/dd folder with a unique name.
func ObjectKey(now time.Time, ext string) string {
	return path.Join(now.UTC().Format("2006/01/02"), util.NewID("")+"."+ext)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicURL is the base that object URLs are built from; defaults to
	// the endpoint.
	PublicURL string
}

// MinioStore implements Store on MinIO or any S3-compatible service.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

var _ Store = (*MinioStore)(nil)

func NewMinioStore(cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint
	}
	return &MinioStore{client: client, bucket: bucket, publicURL: public, now: time.Now}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload validates u and stores it under a fresh key.
func (s *MinioStore) Upload(ctx context.Context, u Upload) (Stored, error) {
	ext, err := Validate(u.Name, u.ContentType, u.Size)
	if err != nil {
		return Stored{}, err
	}
	ct := strings.ToLower(u.ContentType)
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	key := ObjectKey(s.now(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, u.Body, u.Size, minio.PutObjectOptions{
		ContentType:  ct,
		CacheControl: cacheControl,
	})
	if err != nil {
		return Stored{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return Stored{URL: s.publicURL + "/" + s.bucket + "/" + key, Path: key}, nil
}
