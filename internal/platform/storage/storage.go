// Package storage archives rendered export files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Supported drivers.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// ErrInvalidKey is returned for keys escaping the archive root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store persists objects under slash separated keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Driver() string
}

// Config selects and configures a Store.
type Config struct {
	Driver       string
	Dir          string
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// New builds the Store selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFS:
		return NewFileStore(cfg.Dir)
	case DriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// CleanKey normalises a key and rejects absolute or parent relative paths.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
