package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string
	DatabaseDriver string
	DatabaseURL    string
	CORSOrigin     string
	AdminToken     string
	SiteName       string
	MeiliURL       string
	MeiliMasterKey string
	// Redis holds the published candidate snapshot; empty keeps it in memory.
	RedisURL     string
	CandidateTTL time.Duration
	// MinIO / S3 image storage; uploads are disabled without an endpoint.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	MentionTrigger rune
}

// Load reads the configuration from the environment. When FOLIO_CONFIG names
// a YAML file of KEY: value pairs, those values replace the built-in
// defaults and the environment still wins over them.
func Load() (Config, error) {
	l := loader{}
	if path := os.Getenv("FOLIO_CONFIG"); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		l.file = file
	}

	trigger, err := l.rune("FOLIO_MENTION_TRIGGER", '@')
	if err != nil {
		return Config{}, err
	}
	return Config{
		Addr:           l.getenv("API_ADDR", ":8787"),
		DatabaseDriver: l.getenv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    l.getenv("DATABASE_URL", "file:folio.db"),
		CORSOrigin:     l.getenv("FOLIO_CORS_ORIGIN", "*"),
		AdminToken:     l.getenv("FOLIO_ADMIN_TOKEN", ""),
		SiteName:       l.getenv("FOLIO_SITE_NAME", "Folio"),
		MeiliURL:       l.getenv("MEILI_URL", ""),
		MeiliMasterKey: l.getenv("MEILI_MASTER_KEY", ""),
		RedisURL:       l.getenv("REDIS_URL", ""),
		CandidateTTL:   time.Duration(l.getenvInt("FOLIO_CANDIDATE_CACHE_TTL_SECONDS", 60)) * time.Second,
		MinioEndpoint:  l.getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: l.getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: l.getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    l.getenv("MINIO_BUCKET", "blog-images"),
		MinioUseSSL:    l.getenvBool("MINIO_USE_SSL", false),
		MinioPublicURL: l.getenv("MINIO_PUBLIC_URL", ""),
		MentionTrigger: trigger,
	}, nil
}

type loader struct {
	file map[string]string
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func (l loader) getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	if value, ok := l.file[key]; ok && value != "" {
		return value
	}
	return fallback
}

func (l loader) getenvInt(key string, fallback int) int {
	value := l.getenv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (l loader) getenvBool(key string, fallback bool) bool {
	value := l.getenv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (l loader) rune(key string, fallback rune) (rune, error) {
	value := l.getenv(key, "")
	if value == "" {
		return fallback, nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", key, value)
	}
	return runes[0], nil
}
