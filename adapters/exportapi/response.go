package exportapi

import (
	"io"
	"time"

	"github.com/goliatone/go-resume/document"
)

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	DelHeader(name string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
	Writer() (io.Writer, bool)
}

// ExportResponse describes a completed or reused export.
type ExportResponse struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename,omitempty"`
	Cached     bool      `json:"cached"`
	Pages      int       `json:"pages"`
	ExportedAt time.Time `json:"exported_at"`
}

// PagesResponse describes the preview partition of a resume.
type PagesResponse struct {
	ID          string                 `json:"id"`
	Fingerprint string                 `json:"fingerprint"`
	Cached      bool                   `json:"cached"`
	PageCount   int                    `json:"page_count"`
	Pages       []document.PageSummary `json:"pages"`
}

// ErrorResponse describes JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
