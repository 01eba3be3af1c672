package upload

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"neurowave-gateway/internal/models"
)

// PreviewStore holds preview resources for selected files
type PreviewStore interface {
	Create(file models.ImageFile) (string, error)
	Open(uri string) (models.ImageFile, bool)
	Release(uri string)
}

// MemoryPreviews keeps previews in process memory under blob: URIs
type MemoryPreviews struct {
	mu    sync.RWMutex
	blobs map[string]models.ImageFile
}

// NewMemoryPreviews creates an empty preview store
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{blobs: make(map[string]models.ImageFile)}
}

func (p *MemoryPreviews) Create(file models.ImageFile) (string, error) {
	if len(file.Data) == 0 {
		return "", errors.New("cannot preview an empty file")
	}

	uri := "blob:" + uuid.NewString()
	p.mu.Lock()
	p.blobs[uri] = file
	p.mu.Unlock()
	return uri, nil
}

func (p *MemoryPreviews) Open(uri string) (models.ImageFile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	file, ok := p.blobs[uri]
	return file, ok
}

// Release drops the preview; unknown URIs are ignored
func (p *MemoryPreviews) Release(uri string) {
	p.mu.Lock()
	delete(p.blobs, uri)
	p.mu.Unlock()
}

// Len returns the number of live previews
func (p *MemoryPreviews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blobs)
}
