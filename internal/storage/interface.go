package storage

import (
	"context"
	"time"
)

// AssetResolver is the file collaborator surface the chat core
// consumes: attachments reference uploaded asset ids inside message
// bodies, and only retrieval references are needed here.
type AssetResolver interface {
	// Exists checks whether an asset with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a retrievable URL for the asset.
	// For local storage this is a path; for S3 a presigned URL valid
	// for the given duration.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Config selects and configures the storage backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "s3", "local"
	S3     S3Config    `mapstructure:"s3"`
	Local  LocalConfig `mapstructure:"local"`
}
