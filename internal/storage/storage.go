package storage

import (
	"context"
	"io"
)

// Service stores uploaded avatar images and returns their location.
type Service interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
