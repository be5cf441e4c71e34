package objectstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrNotSupported = errors.New("operation not supported by store")
)

type Object struct {
	Path        string
	ContentType string
	Data        []byte
}

// Store guarda los archivos de documentos médicos.
type Store interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
	Get(ctx context.Context, path string) (Object, error)
	Delete(ctx context.Context, path string) error

	// SignedURL devuelve una URL temporal; ErrNotSupported si el store no firma.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
