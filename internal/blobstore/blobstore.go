package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores check photos as files in a directory on disk and hands
// out "/uploads/<name>" references. The router serves the directory
// statically, so a reference is directly resolvable by the client.
type Local struct {
	Dir string
}

// NewLocal creates the upload directory if it does not exist yet.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// Save writes the image bytes under a fresh uuid filename and returns
// the public reference path.
func (l *Local) Save(data []byte, ext string) (string, error) {
	if ext == "" || !strings.HasPrefix(ext, ".") {
		ext = ".jpg"
	}
	name := uuid.New().String() + ext
	path := filepath.Join(l.Dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return "/uploads/" + name, nil
}

// IsRef reports whether s is a reference this store handed out, as
// opposed to an inline image payload.
func (l *Local) IsRef(s string) bool {
	return strings.HasPrefix(s, "/uploads/")
}
