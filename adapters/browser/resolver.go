// Package browser locates the Chromium binary used for layout and printing.
package browser

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/goliatone/go-resume/export"
	"golang.org/x/sync/singleflight"
)

// ErrBrowserUnavailable reports that no Chromium binary could be found or
// downloaded.
var ErrBrowserUnavailable = errors.New("chromium binary unavailable")

// LookPathFunc finds an installed browser.
type LookPathFunc func() (string, bool)

// FetchFunc downloads a browser and returns its binary path.
type FetchFunc func(ctx context.Context) (string, error)

// Resolver resolves the browser binary once per process. The configured path
// wins, then an installed browser, then a downloaded one. Concurrent callers
// share a single resolution. A successful path is cached; a failure is not.
type Resolver struct {
	Path     string
	Download bool
	LookPath LookPathFunc
	Fetch    FetchFunc
	Logger   export.Logger

	group singleflight.Group
	mu    sync.RWMutex
	path  string
}

// NewResolver creates a resolver backed by the rod launcher.
func NewResolver(path string, download bool) *Resolver {
	return &Resolver{
		Path:     strings.TrimSpace(path),
		Download: download,
		LookPath: launcher.LookPath,
		Fetch:    fetchBrowser,
	}
}

// Resolve returns the browser binary path.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r == nil {
		return "", export.NewError(export.KindNotImpl, "browser resolver not configured", nil)
	}
	if path := r.cached(); path != "" {
		return path, nil
	}

	ch := r.group.DoChan("browser", func() (any, error) {
		// A cancelled caller must not fail the shared resolution.
		path, err := r.resolve(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.path = path
		r.mu.Unlock()
		return path, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached path so the next call resolves again.
func (r *Resolver) Invalidate() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.path = ""
	r.mu.Unlock()
}

func (r *Resolver) cached() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

func (r *Resolver) resolve(ctx context.Context) (string, error) {
	logger := r.logger()

	if r.Path != "" {
		if _, err := os.Stat(r.Path); err != nil {
			return "", export.NewError(export.KindNotImpl, "configured chromium binary not found", errors.Join(ErrBrowserUnavailable, err))
		}
		logger.Debugf("using configured chromium at %s", r.Path)
		return r.Path, nil
	}

	if r.LookPath != nil {
		if path, ok := r.LookPath(); ok && path != "" {
			logger.Debugf("using installed chromium at %s", path)
			return path, nil
		}
	}

	if !r.Download || r.Fetch == nil {
		return "", export.NewError(export.KindNotImpl, "chromium not installed and download disabled", ErrBrowserUnavailable)
	}

	logger.Infof("chromium not installed, downloading")
	path, err := r.Fetch(ctx)
	if err != nil {
		return "", export.NewError(export.KindInternal, "chromium download failed", errors.Join(ErrBrowserUnavailable, err))
	}
	if path == "" {
		return "", export.NewError(export.KindInternal, "chromium download returned no binary", ErrBrowserUnavailable)
	}
	logger.Infof("chromium downloaded to %s", path)
	return path, nil
}

func (r *Resolver) logger() export.Logger {
	if r.Logger == nil {
		return export.NopLogger{}
	}
	return r.Logger
}

func fetchBrowser(ctx context.Context) (string, error) {
	b := launcher.NewBrowser()
	b.Context = ctx
	return b.Get()
}
