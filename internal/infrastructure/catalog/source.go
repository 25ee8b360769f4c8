package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tilelens/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Source provides the raw catalog document
type Source interface {
	// Fingerprint changes whenever the document changes (mod time, ETag...)
	Fingerprint(ctx context.Context) (string, error)
	// Load returns the parsed catalog entries
	Load(ctx context.Context) ([]Entry, error)
	// Name identifies the source in logs
	Name() string
}

// Entry is one product row: its catalog fields plus the image files that show it
type Entry struct {
	domain.ProductInfo `yaml:",inline"`
	Images             ImageList `yaml:"images"`
}

// document is the top-level YAML layout
type document struct {
	Products []Entry `yaml:"products"`
}

// ImageList accepts either a YAML sequence or a comma-separated string
type ImageList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (l *ImageList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = splitImages(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		var out ImageList
		for _, item := range items {
			out = append(out, splitImages(item)...)
		}
		*l = out
		return nil
	}
	return fmt.Errorf("images: expected string or list, got %v", value.Tag)
}

func splitImages(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Parse decodes a YAML catalog document
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return doc.Products, nil
}

// buildIndex maps lower-cased image basenames to their product.
// Later rows win when an image is listed twice.
func buildIndex(entries []Entry) map[string]domain.ProductInfo {
	index := make(map[string]domain.ProductInfo)
	for _, entry := range entries {
		info := domain.ProductInfo{
			Title:    strings.TrimSpace(entry.Title),
			Slug:     strings.TrimSpace(entry.Slug),
			Sizes:    strings.TrimSpace(entry.Sizes),
			Category: strings.TrimSpace(entry.Category),
		}
		for _, image := range entry.Images {
			index[imageKey(image)] = info
		}
	}
	return index
}

func imageKey(name string) string {
	return strings.ToLower(path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")))
}
