package export

import (
	"context"
	"io"
	"time"

	"github.com/goliatone/go-resume/document"
	"github.com/goliatone/go-resume/resume"
)

// ContentTypePDF is the content type of exported artifacts.
const ContentTypePDF = "application/pdf"

// ResumeRepository loads resumes and records completed exports.
type ResumeRepository interface {
	Get(ctx context.Context, id string) (resume.Resume, error)
	// MarkExported records key as the export of the resume version whose
	// UpdatedAt equals version. It returns ErrExportStale when the resume was
	// saved after that version was read.
	MarkExported(ctx context.Context, id string, key string, version, at time.Time) error
}

// HTMLRenderer renders a resume into a full HTML document containing the
// pagination container.
type HTMLRenderer interface {
	Render(ctx context.Context, r resume.Resume) ([]byte, error)
}

// Paginated is a document split into pages and materialized as HTML.
type Paginated struct {
	HTML  []byte
	Pages []document.PageSummary
}

// PDFResult is a printed document.
type PDFResult struct {
	PDF   []byte
	Pages []document.PageSummary
}

// Engine lays out documents in a browser, paginates them and prints them.
type Engine interface {
	Paginate(ctx context.Context, html []byte) (Paginated, error)
	RenderPDF(ctx context.Context, html []byte) (PDFResult, error)
}

// ArtifactMeta captures stored artifact metadata.
type ArtifactMeta struct {
	ContentType string
	Size        int64
	Filename    string
	CreatedAt   time.Time
}

// ArtifactRef references a stored artifact.
type ArtifactRef struct {
	Key  string
	Meta ArtifactMeta
}

// ArtifactStore stores exported PDFs.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Result describes a completed or reused export.
type Result struct {
	ResumeID   string    `json:"id"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Cached     bool      `json:"cached"`
	Pages      int       `json:"pages,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
