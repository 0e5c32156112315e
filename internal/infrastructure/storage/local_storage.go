package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStorage writes attachments under a directory served by the HTTP server.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

func NewLocalStorage(basePath, baseURL string, log zerolog.Logger) (*LocalStorage, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("local storage path is empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	logger := log.With().Str("component", "local-storage").Logger()
	logger.Info().Str("path", basePath).Str("base_url", baseURL).Msg("local storage initialized")
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		log:      logger,
	}, nil
}

// Root is the directory mounted by the static file route.
func (l *LocalStorage) Root() string {
	return l.basePath
}

func (l *LocalStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	fullPath := filepath.Join(l.basePath, cleaned)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	l.log.Debug().Str("key", key).Int64("bytes", written).Msg("attachment stored")
	return publicURL(l.baseURL, filepath.ToSlash(strings.TrimPrefix(cleaned, string(filepath.Separator)))), nil
}
