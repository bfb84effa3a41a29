package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalService stores avatars on the local filesystem under a configured folder.
type LocalService struct {
	dir string
}

func NewLocalService(dir string) (*LocalService, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalService{dir: dir}, nil
}

// Dir returns the folder avatars are written to.
func (s *LocalService) Dir() string {
	return s.dir
}

func (s *LocalService) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// keys are generated server side, but never follow path separators
	name := filepath.Base(filepath.Clean(key))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	dest := filepath.Join(s.dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", dest, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write file %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file %s: %w", dest, err)
	}
	return dest, nil
}
