package exportrouter

import (
	"github.com/goliatone/go-resume/adapters/exportapi"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-router"
)

// Config configures the go-router adapter.
type Config = exportapi.Config

// Handler exposes resume routes for go-router.
type Handler struct {
	controller *exportapi.Controller
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: exportapi.NewController(cfg)}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	base := h.basePath()
	artifacts := h.artifactPath()

	r.Post(base+"/:id/export", h.Handle)
	r.Get(base+"/:id/preview", h.Handle)
	r.Get(base+"/:id/pages", h.Handle)
	r.Get(artifacts+"/*", h.Handle)
}

// Handle executes the shared resume workflow.
func (h *Handler) Handle(c router.Context) error {
	if c == nil {
		return nil
	}
	if h == nil || h.controller == nil {
		exportapi.WriteError(routerResponse{ctx: c}, export.NewError(export.KindInternal, "handler is nil", nil))
		return nil
	}
	h.controller.Serve(routerRequest{ctx: c}, routerResponse{ctx: c})
	return nil
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

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
