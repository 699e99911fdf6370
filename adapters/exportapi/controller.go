package exportapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	errorslib "github.com/goliatone/go-errors"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/preview"
)

const (
	// DefaultBasePath prefixes resume routes.
	DefaultBasePath = "/api/resumes"
	// DefaultArtifactPath prefixes artifact downloads.
	DefaultArtifactPath = "/api/artifacts"
	// DefaultMaxBufferBytes is the fallback buffer limit when streaming is unavailable.
	DefaultMaxBufferBytes int64 = 16 * 1024 * 1024
)

// PreviewService renders paginated previews.
type PreviewService interface {
	Preview(ctx context.Context, resumeID string) (preview.Page, error)
	// Remount drops the measured partition so the next Preview measures again.
	Remount(resumeID string)
}

// Config configures the shared resume API controller.
type Config struct {
	Exports        export.Service
	Previews       PreviewService
	BasePath       string
	ArtifactPath   string
	Logger         export.Logger
	MaxBufferBytes int64
}

// Controller exposes resume export handlers for multiple transports.
type Controller struct {
	exports        export.Service
	previews       PreviewService
	basePath       string
	artifactPath   string
	logger         export.Logger
	maxBufferBytes int64
}

// NewController creates a shared resume API controller.
func NewController(cfg Config) *Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = DefaultBasePath
	}
	artifactPath := strings.TrimRight(cfg.ArtifactPath, "/")
	if artifactPath == "" {
		artifactPath = DefaultArtifactPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	maxBuffer := cfg.MaxBufferBytes
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBufferBytes
	}
	return &Controller{
		exports:        cfg.Exports,
		previews:       cfg.Previews,
		basePath:       basePath,
		artifactPath:   artifactPath,
		logger:         logger,
		maxBufferBytes: maxBuffer,
	}
}

// BasePath returns the resume route prefix.
func (c *Controller) BasePath() string {
	if c == nil {
		return ""
	}
	return c.basePath
}

// ArtifactPath returns the artifact route prefix.
func (c *Controller) ArtifactPath() string {
	if c == nil {
		return ""
	}
	return c.artifactPath
}

// Serve routes resume endpoints:
//
//	POST {base}/{id}/export
//	GET  {base}/{id}/preview[?refresh=1]
//	GET  {base}/{id}/pages[?refresh=1]
//	GET  {artifacts}/{key...}
//
// refresh remeasures the preview even when the resume is unchanged, e.g.
// after fonts or template assets were replaced.
func (c *Controller) Serve(req Request, res Response) {
	if res == nil {
		return
	}
	if c == nil {
		WriteError(res, export.NewError(export.KindInternal, "handler is nil", nil))
		return
	}
	if req == nil {
		WriteError(res, export.NewError(export.KindInternal, "request is nil", nil))
		return
	}

	if key, ok := trimPrefix(req.Path(), c.artifactPath); ok {
		if req.Method() != http.MethodGet {
			res.SetHeader("Allow", "GET")
			res.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c.handleArtifact(req, res, key)
		return
	}

	suffix, ok := trimPrefix(req.Path(), c.basePath)
	if !ok {
		writeNotFound(res)
		return
	}
	parts := strings.Split(suffix, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeNotFound(res)
		return
	}
	id, action := parts[0], parts[1]

	switch {
	case action == "export" && req.Method() == http.MethodPost:
		c.handleExport(req, res, id)
	case action == "preview" && req.Method() == http.MethodGet:
		c.handlePreview(req, res, id)
	case action == "pages" && req.Method() == http.MethodGet:
		c.handlePages(req, res, id)
	case action == "export":
		res.SetHeader("Allow", "POST")
		res.WriteHeader(http.StatusMethodNotAllowed)
	case action == "preview" || action == "pages":
		res.SetHeader("Allow", "GET")
		res.WriteHeader(http.StatusMethodNotAllowed)
	default:
		writeNotFound(res)
	}
}

func (c *Controller) handleExport(req Request, res Response, resumeID string) {
	if c.exports == nil {
		WriteError(res, export.NewError(export.KindNotImpl, "export service not configured", nil))
		return
	}
	result, err := c.exports.Export(req.Context(), resumeID)
	if err != nil {
		c.logger.Errorf("export %s failed: %v", resumeID, err)
		WriteError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, ExportResponse{
		ID:         result.ResumeID,
		URL:        result.URL,
		Filename:   result.Filename,
		Cached:     result.Cached,
		Pages:      result.Pages,
		ExportedAt: result.ExportedAt,
	})
}

func (c *Controller) handlePreview(req Request, res Response, resumeID string) {
	page, ok := c.preview(req, res, resumeID)
	if !ok {
		return
	}
	res.SetHeader("Content-Type", "text/html; charset=utf-8")
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("X-Resume-Pages", fmt.Sprintf("%d", len(page.Pages)))
	res.SetHeader("X-Resume-Fingerprint", page.Fingerprint)
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(page.HTML); err != nil {
		c.logger.Errorf("preview write failed: %v", err)
	}
}

func (c *Controller) handlePages(req Request, res Response, resumeID string) {
	page, ok := c.preview(req, res, resumeID)
	if !ok {
		return
	}
	writeJSON(res, http.StatusOK, PagesResponse{
		ID:          page.ResumeID,
		Fingerprint: page.Fingerprint,
		Cached:      page.Cached,
		PageCount:   len(page.Pages),
		Pages:       page.Pages,
	})
}

func (c *Controller) preview(req Request, res Response, resumeID string) (preview.Page, bool) {
	if c.previews == nil {
		WriteError(res, export.NewError(export.KindNotImpl, "preview service not configured", nil))
		return preview.Page{}, false
	}
	if refresh(req.Query("refresh")) {
		c.previews.Remount(resumeID)
	}
	page, err := c.previews.Preview(req.Context(), resumeID)
	if err != nil {
		WriteError(res, err)
		return preview.Page{}, false
	}
	return page, true
}

func (c *Controller) handleArtifact(req Request, res Response, key string) {
	if c.exports == nil {
		WriteError(res, export.NewError(export.KindNotImpl, "export service not configured", nil))
		return
	}
	reader, meta, err := c.exports.Open(req.Context(), key)
	if err != nil {
		WriteError(res, err)
		return
	}
	defer reader.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res.SetHeader("Content-Type", contentType)
	if filename := sanitizeFilename(meta.Filename); filename != "" {
		res.SetHeader("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	}
	if meta.Size > 0 {
		res.SetHeader("Content-Length", fmt.Sprintf("%d", meta.Size))
	}

	if writer, ok := res.Writer(); ok {
		res.WriteHeader(http.StatusOK)
		if _, err := io.Copy(writer, reader); err != nil {
			c.logger.Errorf("artifact copy failed: %v", err)
		}
		return
	}

	buffer := newLimitedBuffer(c.maxBufferBytes)
	if _, err := io.Copy(buffer, reader); err != nil {
		res.DelHeader("Content-Disposition")
		res.DelHeader("Content-Length")
		WriteError(res, err)
		return
	}
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(buffer.Bytes()); err != nil {
		c.logger.Errorf("artifact buffer write failed: %v", err)
	}
}

func refresh(value string) bool {
	ok, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && ok
}

func trimPrefix(path, prefix string) (string, bool) {
	if path != prefix && !strings.HasPrefix(path, prefix+"/") {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(path, prefix), "/"), true
}

func writeNotFound(res Response) {
	WriteError(res, export.NewError(export.KindNotFound, "route not found", nil))
}

// WriteError writes a JSON error response.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	ge := export.AsGoError(err)
	status := statusForError(ge)
	payload := ErrorResponse{
		Error: ErrorBody{
			Message: ge.Message,
			Code:    ge.TextCode,
		},
	}
	writeJSON(res, status, payload)
}

func writeJSON(res Response, status int, payload any) {
	_ = res.WriteJSON(status, payload)
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.TextCode == "not_implemented" {
		return http.StatusNotImplemented
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		if err.TextCode == "canceled" {
			return http.StatusConflict
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sanitizeFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.maxSize > 0 && int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, export.NewError(export.KindValidation, "artifact exceeds max buffer bytes", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
