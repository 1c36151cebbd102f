package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalResolver implements AssetResolver for local filesystem assets.
type LocalResolver struct {
	basePath string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// NewLocalResolver creates a new filesystem-backed asset resolver.
func NewLocalResolver(cfg LocalConfig) (*LocalResolver, error) {
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &LocalResolver{basePath: absPath}, nil
}

// fullPath returns the full filesystem path for a key, rejecting keys
// that would escape the base path.
func (s *LocalResolver) fullPath(key string) string {
	cleanKey := filepath.Clean(key)
	if cleanKey == ".." || strings.HasPrefix(cleanKey, ".."+string(os.PathSeparator)) {
		cleanKey = ""
	}
	return filepath.Join(s.basePath, cleanKey)
}

// Exists checks whether the asset file exists.
func (s *LocalResolver) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetURL returns the file path; local storage has no presigning.
func (s *LocalResolver) GetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	path := s.fullPath(key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("asset not found: %s", key)
		}
		return "", err
	}
	return path, nil
}
