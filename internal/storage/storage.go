// Package storage defines the object-storage contract used by the
// avatar path. The production deployment points this at a CDN bucket;
// the bundled implementation writes to local disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores named blobs and returns a URL serving them.
type Uploader interface {
	Upload(data []byte, name string) (string, error)
	Delete(url string) error
}

// DiskUploader stores blobs under a local directory, served at /uploads.
type DiskUploader struct {
	dir string
}

// NewDiskUploader creates an uploader rooted at dir, creating it if needed.
func NewDiskUploader(dir string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskUploader{dir: dir}, nil
}

// Upload writes the blob and returns its serving path.
func (u *DiskUploader) Upload(data []byte, name string) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(u.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return "/uploads/" + name, nil
}

// Delete removes a previously uploaded blob. Unknown URLs are ignored.
func (u *DiskUploader) Delete(url string) error {
	name, ok := strings.CutPrefix(url, "/uploads/")
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(u.dir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}
