// Package filestore is the file storage collaborator: it takes raw bytes and
// hands back an opaque reference. Records store only references, never bytes.
package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists file contents and returns an opaque reference.
type Store interface {
	Put(ctx context.Context, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Local stores files under a directory, one file per reference.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Put(_ context.Context, r io.Reader) (string, error) {
	ref := uuid.NewString()
	f, err := os.OpenFile(filepath.Join(l.dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return ref, nil
}

func (l *Local) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	// references are uuids we issued; reject anything path-like
	if ref == "" || strings.ContainsAny(ref, "/\\.") {
		return nil, errors.New("invalid file reference")
	}
	return os.Open(filepath.Join(l.dir, ref))
}
