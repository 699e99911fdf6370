package preview

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-resume/document"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/resume"
)

// Page is the preview of a resume split into pages.
type Page struct {
	ResumeID    string                 `json:"id"`
	Fingerprint string                 `json:"fingerprint"`
	Cached      bool                   `json:"cached"`
	Pages       []document.PageSummary `json:"pages"`
	HTML        []byte                 `json:"-"`
}

// Config supplies dependencies for Service.
type Config struct {
	Resumes   export.ResumeRepository
	Templates export.HTMLRenderer
	Engine    export.Engine
	Sessions  *Manager
	Logger    export.Logger
}

// Service renders paginated previews through the same engine used for PDF
// export.
type Service struct {
	resumes   export.ResumeRepository
	templates export.HTMLRenderer
	engine    export.Engine
	sessions  *Manager
	logger    export.Logger
}

// NewService creates a preview service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewManager()
	}
	return &Service{
		resumes:   cfg.Resumes,
		templates: cfg.Templates,
		engine:    cfg.Engine,
		sessions:  sessions,
		logger:    logger,
	}
}

// Preview returns the paginated preview of a resume, reusing the session
// partition while the resume fingerprint is unchanged.
func (s *Service) Preview(ctx context.Context, resumeID string) (Page, error) {
	id, err := export.ValidateResumeID(resumeID)
	if err != nil {
		return Page{}, err
	}
	if s.resumes == nil || s.templates == nil || s.engine == nil {
		return Page{}, export.NewError(export.KindNotImpl, "preview service not configured", nil)
	}

	r, err := s.resumes.Get(ctx, id)
	if err != nil {
		if export.KindFromError(err) == export.KindNotFound {
			s.sessions.Forget(id)
		}
		return Page{}, err
	}
	fingerprint := resume.Fingerprint(r)

	result, cached, err := s.sessions.Session(id).Result(ctx, fingerprint, func(ctx context.Context) (export.Paginated, error) {
		started := time.Now()
		markup, err := s.templates.Render(ctx, r)
		if err != nil {
			return export.Paginated{}, err
		}
		paged, err := s.engine.Paginate(ctx, markup)
		if err != nil {
			return export.Paginated{}, err
		}
		s.logger.Debugf("resume %s measured: %d page(s) in %s", id, len(paged.Pages), time.Since(started))
		return paged, nil
	})
	if err != nil {
		s.logger.Errorf("resume %s preview failed: %v", id, err)
		return Page{}, wrapInternal(err, "resume preview failed")
	}

	return Page{
		ResumeID:    id,
		Fingerprint: fingerprint,
		Cached:      cached,
		Pages:       result.Pages,
		HTML:        result.HTML,
	}, nil
}

// Remount discards the measured partition of a resume so the next Preview
// measures again. Invalid ids are ignored.
func (s *Service) Remount(resumeID string) {
	id, err := export.ValidateResumeID(resumeID)
	if err != nil {
		return
	}
	s.sessions.Remount(id)
}

func wrapInternal(err error, msg string) error {
	if export.KindFromError(err) != export.KindInternal {
		return err
	}
	var kindErr *export.Error
	if errors.As(err, &kindErr) {
		return err
	}
	return export.NewError(export.KindInternal, msg, err)
}
