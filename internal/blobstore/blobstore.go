// Package blobstore defines the object storage used for uploaded
// images. The MinIO implementation works with any S3-compatible
// provider (MinIO, AWS S3).
package blobstore

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the interface for storing and retrieving image blobs.
type Store interface {
	// Put stores data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the stored bytes and their content type.
	Get(ctx context.Context, key string) ([]byte, string, error)
	// List returns all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Delete removes the object identified by key.
	Delete(ctx context.Context, key string) error
}
