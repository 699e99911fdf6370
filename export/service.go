package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Service exports resumes to paginated PDFs.
type Service interface {
	// Export returns the current PDF for a resume, reusing the stored artifact
	// when the resume has not changed since its last export.
	Export(ctx context.Context, resumeID string) (Result, error)
	// Open streams a stored artifact.
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error)
}

// ServiceConfig supplies dependencies for Service.
type ServiceConfig struct {
	Resumes   ResumeRepository
	Templates HTMLRenderer
	Engine    Engine
	Store     ArtifactStore
	Logger    Logger
	Now       func() time.Time
}

type service struct {
	resumes   ResumeRepository
	templates HTMLRenderer
	engine    Engine
	store     ArtifactStore
	logger    Logger
	now       func() time.Time
}

// NewService creates a Service with the provided configuration.
func NewService(cfg ServiceConfig) Service {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &service{
		resumes:   cfg.Resumes,
		templates: cfg.Templates,
		engine:    cfg.Engine,
		store:     cfg.Store,
		logger:    logger,
		now:       nowFn,
	}
}

func (s *service) Export(ctx context.Context, resumeID string) (Result, error) {
	if s == nil {
		return Result{}, NewError(KindInternal, "service is nil", nil)
	}
	id, err := ValidateResumeID(resumeID)
	if err != nil {
		return Result{}, err
	}
	if err := s.validate(); err != nil {
		return Result{}, err
	}

	r, err := s.resumes.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if cached, ok := s.cached(ctx, id, r.ExportKey, r.Exported()); ok {
		cached.Filename = Filename(r)
		cached.ExportedAt = r.LastExportedAt
		s.logger.Debugf("resume %s unchanged since %s, reusing %s", id, r.LastExportedAt.Format(time.RFC3339), cached.Key)
		return cached, nil
	}

	started := s.now()
	markup, err := s.templates.Render(ctx, r)
	if err != nil {
		return Result{}, wrapKind(err, "render resume template failed")
	}
	printed, err := s.engine.RenderPDF(ctx, markup)
	if err != nil {
		s.logger.Errorf("resume %s pdf render failed: %v", id, err)
		return Result{}, wrapKind(err, "render resume pdf failed")
	}

	key := ArtifactKey(id)
	filename := Filename(r)
	ref, err := s.store.Put(ctx, key, bytes.NewReader(printed.PDF), ArtifactMeta{
		ContentType: ContentTypePDF,
		Filename:    filename,
	})
	if err != nil {
		return Result{}, wrapKind(err, "store resume pdf failed")
	}

	exportedAt := s.now()
	err = s.resumes.MarkExported(ctx, id, ref.Key, r.UpdatedAt, exportedAt)
	switch {
	case errors.Is(err, ErrExportStale):
		// the next export renders the newer version
		s.logger.Infof("resume %s changed during export, artifact not recorded as current", id)
	case err != nil:
		// an artifact the resume does not point at would be served as stale cache
		if delErr := s.store.Delete(ctx, ref.Key); delErr != nil {
			s.logger.Errorf("resume %s artifact cleanup failed: %v", id, delErr)
		}
		return Result{}, wrapKind(err, "record resume export failed")
	}

	s.logger.Infof("resume %s exported: %d page(s), %d bytes in %s", id, len(printed.Pages), ref.Meta.Size, s.now().Sub(started))
	return Result{
		ResumeID:   id,
		Key:        ref.Key,
		URL:        s.store.URL(ref.Key),
		Filename:   filename,
		Pages:      len(printed.Pages),
		Bytes:      ref.Meta.Size,
		ExportedAt: exportedAt,
	}, nil
}

func (s *service) Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error) {
	if s == nil || s.store == nil {
		return nil, ArtifactMeta{}, NewError(KindNotImpl, "artifact store not configured", nil)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ArtifactMeta{}, NewError(KindValidation, "artifact key is required", nil)
	}
	return s.store.Open(ctx, key)
}

// cached reports a reusable artifact. A missing artifact or a failed lookup
// falls through to a fresh render.
func (s *service) cached(ctx context.Context, id, key string, current bool) (Result, bool) {
	if !current {
		return Result{}, false
	}
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.Errorf("resume %s artifact lookup failed: %v", id, err)
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	return Result{
		ResumeID: id,
		Key:      key,
		URL:      s.store.URL(key),
		Cached:   true,
	}, true
}

func (s *service) validate() error {
	switch {
	case s.resumes == nil:
		return NewError(KindNotImpl, "resume repository not configured", nil)
	case s.templates == nil:
		return NewError(KindNotImpl, "template renderer not configured", nil)
	case s.engine == nil:
		return NewError(KindNotImpl, "pdf engine not configured", nil)
	case s.store == nil:
		return NewError(KindNotImpl, "artifact store not configured", nil)
	}
	return nil
}

// wrapKind keeps an existing classification and marks anything else internal.
func wrapKind(err error, msg string) error {
	if err == nil {
		return nil
	}
	if kind := KindFromError(err); kind != KindInternal {
		return err
	}
	var kindErr *Error
	if errors.As(err, &kindErr) {
		return err
	}
	return NewError(KindInternal, msg, err)
}
