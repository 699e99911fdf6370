// Package storefs stores exported resume PDFs on the local filesystem.
package storefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-resume/export"
)

const metaSuffix = ".meta.json"

// Store writes artifacts below Root. Writes go through a temp file and a
// rename so readers never see a partial PDF. Metadata lives in a sidecar
// file next to each artifact.
type Store struct {
	Root    string
	BaseURL string
	Now     func() time.Time
}

var _ export.ArtifactStore = (*Store)(nil)

// NewStore creates a filesystem store serving artifacts under baseURL.
func NewStore(root, baseURL string) *Store {
	return &Store{Root: root, BaseURL: baseURL, Now: time.Now}
}

// Put stores an artifact, replacing any previous artifact under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, meta export.ArtifactMeta) (export.ArtifactRef, error) {
	target, err := s.target(key)
	if err != nil {
		return export.ArtifactRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return export.ArtifactRef{}, err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return export.ArtifactRef{}, err
	}

	meta.Size, err = writeAtomic(dir, target, ".pdf-*", func(w io.Writer) (int64, error) {
		return io.Copy(w, r)
	})
	if err != nil {
		return export.ArtifactRef{}, err
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now()
	}
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(target))
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return export.ArtifactRef{}, err
	}
	_, err = writeAtomic(dir, target+metaSuffix, ".meta-*", func(w io.Writer) (int64, error) {
		n, err := w.Write(payload)
		return int64(n), err
	})
	if err != nil {
		return export.ArtifactRef{}, err
	}

	return export.ArtifactRef{Key: key, Meta: meta}, nil
}

// Open streams an artifact.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, export.ArtifactMeta, error) {
	_ = ctx
	target, err := s.target(key)
	if err != nil {
		return nil, export.ArtifactMeta{}, err
	}

	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, export.ArtifactMeta{}, export.NewError(export.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, export.ArtifactMeta{}, err
	}

	meta := readMeta(target)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(target))
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = info.ModTime()
			}
		}
	}
	return file, meta, nil
}

// Exists reports whether an artifact is stored under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	target, err := s.target(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes an artifact and its metadata. Missing artifacts are not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	target, err := s.target(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(target + metaSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the download URL of an artifact.
func (s *Store) URL(key string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	segments := strings.Split(strings.TrimPrefix(path.Clean("/"+key), "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return base + "/" + strings.Join(segments, "/")
}

// target maps a key to a path below the root, rejecting keys that escape it
// or address metadata sidecars.
func (s *Store) target(key string) (string, error) {
	if s == nil {
		return "", export.NewError(export.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return "", export.NewError(export.KindNotImpl, "store root is required", nil)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", export.NewError(export.KindValidation, "artifact key is required", nil)
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", export.NewError(export.KindValidation, "invalid artifact key", nil)
	}
	// parent segments are rejected before cleaning folds them away
	for _, segment := range strings.Split(filepath.ToSlash(key), "/") {
		if segment == ".." {
			return "", export.NewError(export.KindValidation, "artifact key escapes root", nil)
		}
	}
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	if rel == "" || rel == "." {
		return "", export.NewError(export.KindValidation, "invalid artifact key", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", export.NewError(export.KindValidation, "artifact key escapes root", nil)
	}
	return target, nil
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func writeAtomic(dir, target, pattern string, write func(io.Writer) (int64, error)) (int64, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	n, err := write(tmp)
	if err != nil {
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, err
	}
	return n, nil
}

func readMeta(target string) export.ArtifactMeta {
	data, err := os.ReadFile(target + metaSuffix)
	if err != nil {
		return export.ArtifactMeta{}
	}
	var meta export.ArtifactMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return export.ArtifactMeta{}
	}
	return meta
}
