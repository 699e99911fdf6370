package exportrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-resume/adapters/exportapi"
	exporthttp "github.com/goliatone/go-resume/adapters/http"
	"github.com/goliatone/go-resume/document"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/preview"
	"github.com/goliatone/go-resume/resume"
	"github.com/goliatone/go-router"
)

const testResumeID = "0d6f8a62-1d2b-4f43-8f3e-6c1c7a2b9e51"

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, r resume.Resume) ([]byte, error) {
	_ = ctx
	return []byte(`<main id="resume-root"><section><h1>` + r.Profile.FullName + `</h1></section></main>`), nil
}

type stubEngine struct{}

func (stubEngine) Paginate(ctx context.Context, html []byte) (export.Paginated, error) {
	_ = ctx
	return export.Paginated{
		HTML:  append([]byte(`<div class="pages">`), append(html, []byte(`</div>`)...)...),
		Pages: []document.PageSummary{{Number: 1, Items: []string{"s0"}, Height: 120}},
	}, nil
}

func (stubEngine) RenderPDF(ctx context.Context, html []byte) (export.PDFResult, error) {
	_ = ctx
	_ = html
	return export.PDFResult{
		PDF:   []byte("%PDF-1.7 router"),
		Pages: []document.PageSummary{{Number: 1}},
	}, nil
}

func newTestConfig(t *testing.T) exportapi.Config {
	t.Helper()
	repo := export.NewMemoryRepository(resume.Resume{
		ID:        testResumeID,
		Template:  "classic",
		Profile:   resume.Profile{FullName: "Grace Hopper"},
		UpdatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	exports := export.NewService(export.ServiceConfig{
		Resumes:   repo,
		Templates: stubRenderer{},
		Engine:    stubEngine{},
		Store:     export.NewMemoryStore(),
		Now:       func() time.Time { return now },
	})
	previews := preview.NewService(preview.Config{
		Resumes:   repo,
		Templates: stubRenderer{},
		Engine:    stubEngine{},
	})
	return exportapi.Config{Exports: exports, Previews: previews}
}

func serveBoth(t *testing.T, cfg exportapi.Config, method, path string) (*httptest.ResponseRecorder, *testHTTPContext) {
	t.Helper()
	rec := httptest.NewRecorder()
	exporthttp.NewHandler(cfg).ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	routerCtx := newTestHTTPContext(method, path, nil, nil, nil)
	if err := NewHandler(cfg).Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}
	return rec, routerCtx
}

func assertErrorParity(t *testing.T, rec *httptest.ResponseRecorder, routerRec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != routerRec.Code {
		t.Fatalf("status mismatch: http=%d router=%d", rec.Code, routerRec.Code)
	}
	if rec.Header().Get("Content-Type") != routerRec.Header().Get("Content-Type") {
		t.Fatalf("content-type mismatch: http=%q router=%q", rec.Header().Get("Content-Type"), routerRec.Header().Get("Content-Type"))
	}
	var httpPayload exportapi.ErrorResponse
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&httpPayload); err != nil {
		t.Fatalf("decode http response: %v", err)
	}
	var routerPayload exportapi.ErrorResponse
	if err := json.NewDecoder(bytes.NewReader(routerRec.Body.Bytes())).Decode(&routerPayload); err != nil {
		t.Fatalf("decode router response: %v", err)
	}
	if httpPayload != routerPayload {
		t.Fatalf("payload mismatch: http=%+v router=%+v", httpPayload, routerPayload)
	}
}

func TestTransportParity_Export(t *testing.T) {
	cfg := newTestConfig(t)
	rec, routerCtx := serveBoth(t, cfg, http.MethodPost, "/api/resumes/"+testResumeID+"/export")

	if rec.Code != http.StatusOK || routerCtx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	var httpPayload, routerPayload exportapi.ExportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &httpPayload); err != nil {
		t.Fatalf("decode http response: %v", err)
	}
	if err := json.Unmarshal(routerCtx.recorder.Body.Bytes(), &routerPayload); err != nil {
		t.Fatalf("decode router response: %v", err)
	}
	if httpPayload.URL != routerPayload.URL || httpPayload.ID != routerPayload.ID {
		t.Fatalf("payload mismatch: http=%+v router=%+v", httpPayload, routerPayload)
	}
	if httpPayload.Cached {
		t.Fatalf("expected first export to render")
	}
	// The router request runs second against the same repository.
	if !routerPayload.Cached {
		t.Fatalf("expected second export to reuse the artifact")
	}
}

func TestTransportParity_Errors(t *testing.T) {
	cfg := newTestConfig(t)

	t.Run("invalid id", func(t *testing.T) {
		rec, routerCtx := serveBoth(t, cfg, http.MethodPost, "/api/resumes/not-a-uuid/export")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorParity(t, rec, routerCtx.recorder)
	})

	t.Run("not found", func(t *testing.T) {
		rec, routerCtx := serveBoth(t, cfg, http.MethodGet, "/api/resumes/9a4f1d5e-0000-4000-8000-000000000000/preview")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorParity(t, rec, routerCtx.recorder)
	})

	t.Run("missing artifact", func(t *testing.T) {
		rec, routerCtx := serveBoth(t, cfg, http.MethodGet, "/api/artifacts/resumes/missing.pdf")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorParity(t, rec, routerCtx.recorder)
	})
}

func TestTransportParity_Preview(t *testing.T) {
	cfg := newTestConfig(t)
	rec, routerCtx := serveBoth(t, cfg, http.MethodGet, "/api/resumes/"+testResumeID+"/preview")

	if rec.Code != http.StatusOK || routerCtx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	if rec.Header().Get("Content-Type") != routerCtx.recorder.Header().Get("Content-Type") {
		t.Fatalf("content-type mismatch: http=%q router=%q", rec.Header().Get("Content-Type"), routerCtx.recorder.Header().Get("Content-Type"))
	}
	if rec.Body.String() != routerCtx.recorder.Body.String() {
		t.Fatalf("body mismatch: http=%q router=%q", rec.Body.String(), routerCtx.recorder.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Grace Hopper") {
		t.Fatalf("expected preview markup, got %q", rec.Body.String())
	}
}

func TestTransportParity_Artifact(t *testing.T) {
	cfg := newTestConfig(t)
	ctx := context.Background()
	result, err := cfg.Exports.Export(ctx, testResumeID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rec, routerCtx := serveBoth(t, cfg, http.MethodGet, result.URL)
	if rec.Code != http.StatusOK || routerCtx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	if rec.Header().Get("Content-Disposition") != routerCtx.recorder.Header().Get("Content-Disposition") {
		t.Fatalf("content-disposition mismatch: http=%q router=%q", rec.Header().Get("Content-Disposition"), routerCtx.recorder.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "%PDF-1.7 router" || routerCtx.recorder.Body.String() != rec.Body.String() {
		t.Fatalf("body mismatch: http=%q router=%q", rec.Body.String(), routerCtx.recorder.Body.String())
	}
	if routerCtx.sendCalled {
		t.Fatalf("expected streaming response, got buffered send")
	}
}

func TestRouterPagesRefresh(t *testing.T) {
	cfg := newTestConfig(t)
	handler := NewHandler(cfg)
	path := "/api/resumes/" + testResumeID + "/pages"

	cachedFor := func(query map[string]string) bool {
		t.Helper()
		ctx := newTestContext(http.MethodGet, path, nil, nil, query)
		if err := handler.Handle(ctx); err != nil {
			t.Fatalf("router handle: %v", err)
		}
		if ctx.recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", ctx.recorder.Code)
		}
		var payload exportapi.PagesResponse
		if err := json.Unmarshal(ctx.recorder.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return payload.Cached
	}

	if cachedFor(nil) {
		t.Fatalf("expected first request to measure")
	}
	if !cachedFor(nil) {
		t.Fatalf("expected unchanged resume to reuse the partition")
	}
	if cachedFor(map[string]string{"refresh": "1"}) {
		t.Fatalf("expected refresh to remeasure")
	}
	if !cachedFor(nil) {
		t.Fatalf("expected the refreshed partition to be reused")
	}
}

func TestRouterBufferedFallback(t *testing.T) {
	cfg := newTestConfig(t)
	result, err := cfg.Exports.Export(context.Background(), testResumeID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	handler := NewHandler(cfg)
	ctx := newTestContext(http.MethodGet, result.URL, nil, nil, nil)
	if err := handler.Handle(ctx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if ctx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.recorder.Code)
	}
	if !ctx.sendCalled {
		t.Fatalf("expected buffered send when HTTPContext is unavailable")
	}
	if ctx.recorder.Body.String() != "%PDF-1.7 router" {
		t.Fatalf("unexpected body %q", ctx.recorder.Body.String())
	}

	cfg.MaxBufferBytes = 4
	small := newTestContext(http.MethodGet, result.URL, nil, nil, nil)
	if err := NewHandler(cfg).Handle(small); err != nil {
		t.Fatalf("router handle: %v", err)
	}
	if small.recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected buffer limit error, got %d", small.recorder.Code)
	}
}

type testContext struct {
	method        string
	path          string
	body          []byte
	query         map[string]string
	headers       map[string]string
	params        map[string]string
	locals        map[any]any
	ctx           context.Context
	recorder      *httptest.ResponseRecorder
	statusWritten bool
	status        int
	sendCalled    bool
}

func newTestContext(method, path string, body []byte, headers map[string]string, query map[string]string) *testContext {
	if headers == nil {
		headers = make(map[string]string)
	}
	if query == nil {
		query = make(map[string]string)
	}
	return &testContext{
		method:   method,
		path:     path,
		body:     body,
		query:    query,
		headers:  headers,
		params:   make(map[string]string),
		locals:   make(map[any]any),
		ctx:      context.Background(),
		recorder: httptest.NewRecorder(),
	}
}

func (c *testContext) Bind(v any) error {
	if len(c.body) == 0 {
		return nil
	}
	return json.Unmarshal(c.body, v)
}

func (c *testContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *testContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

func (c *testContext) Next() error { return nil }

func (c *testContext) RouteName() string { return "" }

func (c *testContext) RouteParams() map[string]string { return c.params }

func (c *testContext) Method() string { return c.method }

func (c *testContext) Path() string { return c.path }

func (c *testContext) Param(name string, defaultValue ...string) string {
	if val, ok := c.params[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) ParamsInt(key string, defaultValue int) int {
	val := c.Param(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Query(name string, defaultValue ...string) string {
	if val, ok := c.query[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) QueryValues(name string) []string {
	if val, ok := c.query[name]; ok {
		return []string{val}
	}
	return nil
}

func (c *testContext) QueryInt(name string, defaultValue int) int {
	val := c.Query(name)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Queries() map[string]string { return c.query }

func (c *testContext) Body() []byte { return c.body }

func (c *testContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return value[0]
	}
	return c.locals[key]
}

func (c *testContext) LocalsMerge(key any, value map[string]any) map[string]any {
	merged, _ := c.locals[key].(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range value {
		merged[k] = v
	}
	c.locals[key] = merged
	return merged
}

func (c *testContext) Render(name string, bind any, layouts ...string) error {
	return nil
}

func (c *testContext) Cookie(cookie *router.Cookie) {}

func (c *testContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) CookieParser(out any) error { return nil }

func (c *testContext) Redirect(location string, status ...int) error {
	code := http.StatusFound
	if len(status) > 0 {
		code = status[0]
	}
	c.SetHeader("Location", location)
	c.writeHeader(code)
	return nil
}

func (c *testContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	return nil
}

func (c *testContext) RedirectBack(fallback string, status ...int) error {
	return nil
}

func (c *testContext) Header(name string) string {
	return c.headers[name]
}

func (c *testContext) Referer() string { return "" }

func (c *testContext) OriginalURL() string { return c.path }

func (c *testContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, nil
}

func (c *testContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) IP() string { return "127.0.0.1" }

func (c *testContext) Status(code int) router.Context {
	c.writeHeader(code)
	return c
}

func (c *testContext) Send(body []byte) error {
	c.sendCalled = true
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := c.recorder.Write(body)
	return err
}

func (c *testContext) SendString(body string) error {
	return c.Send([]byte(body))
}

func (c *testContext) SendStatus(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) JSON(code int, v any) error {
	c.recorder.Header().Set("Content-Type", "application/json")
	c.writeHeader(code)
	return json.NewEncoder(c.recorder).Encode(v)
}

func (c *testContext) SendStream(r io.Reader) error {
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := io.Copy(c.recorder, r)
	return err
}

func (c *testContext) NoContent(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) SetHeader(key, val string) router.Context {
	c.recorder.Header().Set(key, val)
	return c
}

func (c *testContext) Set(key string, value any) {
	c.locals[key] = value
}

func (c *testContext) Get(key string, def any) any {
	if val, ok := c.locals[key]; ok {
		return val
	}
	return def
}

func (c *testContext) GetString(key string, def string) string {
	if val, ok := c.locals[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return def
}

func (c *testContext) GetInt(key string, def int) int {
	if val, ok := c.locals[key]; ok {
		if num, ok := val.(int); ok {
			return num
		}
	}
	return def
}

func (c *testContext) GetBool(key string, def bool) bool {
	if val, ok := c.locals[key]; ok {
		if flag, ok := val.(bool); ok {
			return flag
		}
	}
	return def
}

func (c *testContext) writeHeader(code int) {
	if c.statusWritten {
		c.status = code
		return
	}
	c.statusWritten = true
	c.status = code
	c.recorder.WriteHeader(code)
}

type testHTTPContext struct {
	*testContext
	req *http.Request
}

func newTestHTTPContext(method, path string, body []byte, headers map[string]string, query map[string]string) *testHTTPContext {
	base := newTestContext(method, path, body, headers, query)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
		base.headers[key] = value
	}
	base.ctx = req.Context()
	return &testHTTPContext{testContext: base, req: req}
}

func (c *testHTTPContext) Request() *http.Request { return c.req }

func (c *testHTTPContext) Response() http.ResponseWriter { return c.recorder }

var _ router.Context = (*testContext)(nil)
var _ router.Context = (*testHTTPContext)(nil)
var _ router.HTTPContext = (*testHTTPContext)(nil)
