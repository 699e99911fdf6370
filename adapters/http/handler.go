package exporthttp

import (
	"net/http"

	"github.com/goliatone/go-resume/adapters/exportapi"
	"github.com/goliatone/go-resume/export"
)

// Config configures the HTTP adapter.
type Config = exportapi.Config

// Handler exposes resume export, preview and artifact endpoints on net/http.
type Handler struct {
	controller *exportapi.Controller
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: exportapi.NewController(cfg)}
}

// RegisterRoutes registers handlers on a compatible router.
func (h *Handler) RegisterRoutes(router any) {
	prefixes := []string{h.basePath() + "/", h.artifactPath() + "/"}
	switch r := router.(type) {
	case interface{ Handle(string, http.Handler) }:
		for _, prefix := range prefixes {
			r.Handle(prefix, h)
		}
	case interface {
		HandleFunc(string, func(http.ResponseWriter, *http.Request))
	}:
		for _, prefix := range prefixes {
			r.HandleFunc(prefix, h.ServeHTTP)
		}
	}
}

// ServeHTTP routes resume endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	if h == nil || h.controller == nil {
		exportapi.WriteError(httpResponse{w: w}, export.NewError(export.KindInternal, "handler is nil", nil))
		return
	}
	h.controller.Serve(httpRequest{r: r}, httpResponse{w: w})
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil || h.controller.BasePath() == "" {
		return exportapi.DefaultBasePath
	}
	return h.controller.BasePath()
}

func (h *Handler) artifactPath() string {
	if h == nil || h.controller == nil || h.controller.ArtifactPath() == "" {
		return exportapi.DefaultArtifactPath
	}
	return h.controller.ArtifactPath()
}
