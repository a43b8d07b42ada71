package bill

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImageStore holds the uploaded bill photo for each session, keyed by
// the filename the service chose when the bill was analyzed.
type ImageStore interface {
	// Save persists an image and returns the name it can be fetched by
	Save(filename string, data []byte) (string, error)

	// Get returns the image bytes for a previously saved name
	Get(filename string) ([]byte, error)

	// Delete removes a stored image
	Delete(filename string) error
}

// LocalImageStore keeps bill images as flat files in a single directory.
type LocalImageStore struct {
	dir string
}

// NewLocalImageStore creates the image directory if needed.
func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	return &LocalImageStore{
		dir: dir,
	}, nil
}

// Save writes a bill image under the store directory. Any path
// components in the name are stripped so images never land outside it.
func (l *LocalImageStore) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing bill image: %w", err)
	}
	return name, nil
}

// Get reads a bill image back from the store directory.
func (l *LocalImageStore) Get(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("reading bill image: %w", err)
	}
	return data, nil
}

// Delete removes a bill image from the store directory.
func (l *LocalImageStore) Delete(filename string) error {
	if err := os.Remove(filepath.Join(l.dir, filepath.Base(filename))); err != nil {
		return fmt.Errorf("deleting bill image: %w", err)
	}
	return nil
}
