package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

// FSProvider reads the same JSON files from a local content directory.
// Useful for offline use and for tests.
type FSProvider struct {
	basePath string
}

// NewFSProvider creates a provider rooted at basePath.
func NewFSProvider(basePath string) *FSProvider {
	return &FSProvider{basePath: basePath}
}

// Catalog reads levels.json from the content directory.
func (p *FSProvider) Catalog(_ context.Context) ([]domain.Level, error) {
	data, err := os.ReadFile(filepath.Join(p.basePath, catalogPath))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(data)
}

// LessonContent reads one lesson file relative to the content directory.
func (p *FSProvider) LessonContent(_ context.Context, ref string) (*domain.LessonContent, error) {
	data, err := os.ReadFile(filepath.Join(p.basePath, filepath.FromSlash(ref)))
	if err != nil {
		return nil, fmt.Errorf("read lesson %s: %w", ref, err)
	}
	return parseLessonContent(data)
}
