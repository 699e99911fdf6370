package preview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-resume/document"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/resume"
)

const testResumeID = "3b1f2c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"

type stubTemplates struct {
	calls int
}

func (s *stubTemplates) Render(ctx context.Context, r resume.Resume) ([]byte, error) {
	_ = ctx
	s.calls++
	return []byte(`<main id="resume-root"><section><h2>` + r.Title + `</h2></section></main>`), nil
}

type stubEngine struct {
	calls int
	err   error
}

func (e *stubEngine) Paginate(ctx context.Context, html []byte) (export.Paginated, error) {
	_ = ctx
	e.calls++
	if e.err != nil {
		return export.Paginated{}, e.err
	}
	return export.Paginated{
		HTML:  html,
		Pages: []document.PageSummary{{Number: 1, Items: []string{"s0"}, Height: 120}},
	}, nil
}

func (e *stubEngine) RenderPDF(ctx context.Context, html []byte) (export.PDFResult, error) {
	return export.PDFResult{}, errors.New("not used")
}

func newTestService(r resume.Resume) (*Service, *export.MemoryRepository, *stubTemplates, *stubEngine) {
	repo := export.NewMemoryRepository(r)
	templates := &stubTemplates{}
	engine := &stubEngine{}
	svc := NewService(Config{Resumes: repo, Templates: templates, Engine: engine})
	return svc, repo, templates, engine
}

func TestService_PreviewReusesPartition(t *testing.T) {
	ctx := context.Background()
	r := resume.Resume{ID: testResumeID, Title: "Platform", UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc, repo, templates, engine := newTestService(r)

	first, err := svc.Preview(ctx, testResumeID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if first.Cached || len(first.Pages) != 1 || first.ResumeID != testResumeID {
		t.Fatalf("unexpected first preview %+v", first)
	}

	second, err := svc.Preview(ctx, testResumeID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !second.Cached || engine.calls != 1 || templates.calls != 1 {
		t.Fatalf("expected reuse, cached=%v engine=%d templates=%d", second.Cached, engine.calls, templates.calls)
	}

	r.Experience = append(r.Experience, resume.Experience{ID: "x1", Company: "Acme"})
	if err := repo.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	third, err := svc.Preview(ctx, testResumeID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if third.Cached || engine.calls != 2 || third.Fingerprint == first.Fingerprint {
		t.Fatalf("expected recompute after content change, cached=%v engine=%d", third.Cached, engine.calls)
	}

	svc.Remount(testResumeID)
	if _, err := svc.Preview(ctx, testResumeID); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if engine.calls != 3 {
		t.Fatalf("expected recompute after remount, engine=%d", engine.calls)
	}
}

func TestService_PreviewErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _, engine := newTestService(resume.Resume{ID: testResumeID})

	if _, err := svc.Preview(ctx, "nope"); export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Preview(ctx, "00000000-0000-4000-8000-000000000001"); export.KindFromError(err) != export.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	engine.err = errors.New("chromium exited")
	_, err := svc.Preview(ctx, testResumeID)
	if export.KindFromError(err) != export.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}

	engine.err = nil
	if _, err := svc.Preview(ctx, testResumeID); err != nil {
		t.Fatalf("expected recovery after failure, got %v", err)
	}

	empty := NewService(Config{})
	if _, err := empty.Preview(ctx, testResumeID); export.KindFromError(err) != export.KindNotImpl {
		t.Fatalf("expected not implemented, got %v", err)
	}
}

func TestService_PreviewForgetsDeletedResume(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestService(resume.Resume{ID: testResumeID, Title: "Platform"})

	if _, err := svc.Preview(ctx, testResumeID); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if svc.sessions.Len() != 1 {
		t.Fatalf("expected one session, got %d", svc.sessions.Len())
	}

	if err := repo.Delete(ctx, testResumeID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Preview(ctx, testResumeID); export.KindFromError(err) != export.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if svc.sessions.Len() != 0 {
		t.Fatalf("expected the session to be dropped, got %d", svc.sessions.Len())
	}
}

func TestService_RemountNormalizesID(t *testing.T) {
	ctx := context.Background()
	svc, _, _, engine := newTestService(resume.Resume{ID: testResumeID, Title: "Platform"})

	if _, err := svc.Preview(ctx, testResumeID); err != nil {
		t.Fatalf("preview: %v", err)
	}
	svc.Remount(" " + strings.ToUpper(testResumeID) + " ")
	page, err := svc.Preview(ctx, testResumeID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if page.Cached || engine.calls != 2 {
		t.Fatalf("expected remeasure after remount, cached=%v engine=%d", page.Cached, engine.calls)
	}

	svc.Remount("../nope")
	if svc.sessions.Len() != 1 {
		t.Fatalf("expected invalid ids to be ignored, got %d sessions", svc.sessions.Len())
	}
}
