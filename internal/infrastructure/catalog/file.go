package catalog

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the catalog from a local YAML file
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed catalog source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Fingerprint combines size and modification time
func (s *FileSource) Fingerprint(ctx context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
