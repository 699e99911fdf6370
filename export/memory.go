package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goliatone/go-resume/resume"
)

// MemoryStore stores artifacts in memory (test/dev only).
type MemoryStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data []byte
	meta ArtifactMeta
}

// NewMemoryStore creates an in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{BaseURL: "/api/artifacts", objects: make(map[string]memoryObject)}
}

// Put stores an artifact.
func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error) {
	_ = ctx
	if key == "" {
		return ArtifactRef{}, NewError(KindValidation, "artifact key is required", nil)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ArtifactRef{}, err
	}
	meta.Size = int64(len(data))
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, meta: meta}
	s.mu.Unlock()

	return ArtifactRef{Key: key, Meta: meta}, nil
}

// Open retrieves an artifact.
func (s *MemoryStore) Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error) {
	_ = ctx
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ArtifactMeta{}, NewError(KindNotFound, fmt.Sprintf("artifact %q not found", key), nil)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.meta, nil
}

// Exists reports whether an artifact is stored under key.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	return ok, nil
}

// Delete removes an artifact.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// URL returns the retrieval URL of an artifact.
func (s *MemoryStore) URL(key string) string {
	return s.BaseURL + "/" + key
}

// MemoryRepository stores resumes in memory (test/dev only).
type MemoryRepository struct {
	mu      sync.RWMutex
	resumes map[string]resume.Resume
}

// NewMemoryRepository creates an in-memory resume repository.
func NewMemoryRepository(resumes ...resume.Resume) *MemoryRepository {
	repo := &MemoryRepository{resumes: make(map[string]resume.Resume)}
	for _, r := range resumes {
		repo.resumes[r.ID] = r
	}
	return repo
}

// Save creates or replaces a resume.
func (m *MemoryRepository) Save(ctx context.Context, r resume.Resume) error {
	_ = ctx
	if r.ID == "" {
		return NewError(KindValidation, "resume id is required", nil)
	}
	m.mu.Lock()
	m.resumes[r.ID] = r
	m.mu.Unlock()
	return nil
}

// Get returns a resume by id.
func (m *MemoryRepository) Get(ctx context.Context, id string) (resume.Resume, error) {
	_ = ctx
	m.mu.RLock()
	r, ok := m.resumes[id]
	m.mu.RUnlock()
	if !ok {
		return resume.Resume{}, NewError(KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
	}
	return r, nil
}

// MarkExported records a completed export of the given resume version.
func (m *MemoryRepository) MarkExported(ctx context.Context, id string, key string, version, at time.Time) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok {
		return NewError(KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
	}
	if !r.UpdatedAt.Equal(version) {
		return ErrExportStale
	}
	r.ExportKey = key
	r.LastExportedAt = at
	m.resumes[id] = r
	return nil
}

// Delete removes a resume.
func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resumes[id]; !ok {
		return NewError(KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
	}
	delete(m.resumes, id)
	return nil
}
