package exportpdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/goliatone/go-resume/document"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/pagination"
)

// DefaultMaxHTMLBytes guards in-memory HTML buffering before layout.
const DefaultMaxHTMLBytes int64 = 8 * 1024 * 1024

// PathResolver locates the browser binary.
type PathResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// invalidator is implemented by resolvers that cache the located binary.
type invalidator interface {
	Invalidate()
}

// measureScript reads the footprint of every tagged node in one pass with no
// writes in between. Hidden nodes report zero.
const measureScript = `(async () => {
	if (document.fonts && document.fonts.ready) {
		await document.fonts.ready;
	}
	const out = {};
	document.querySelectorAll('[` + document.AttrNodeID + `]').forEach((el) => {
		const id = el.getAttribute('` + document.AttrNodeID + `');
		const style = window.getComputedStyle(el);
		if (style.display === 'none') {
			out[id] = 0;
			return;
		}
		const margins = (parseFloat(style.marginTop) || 0) + (parseFloat(style.marginBottom) || 0);
		out[id] = el.getBoundingClientRect().height + margins;
	});
	return out;
})()`

// ChromiumEngine paginates and prints documents with a headless Chromium
// process started for each call.
type ChromiumEngine struct {
	BrowserPath  string
	Resolver     PathResolver
	Headless     bool
	Timeout      time.Duration
	Args         []string
	Layout       pagination.Layout
	PDF          PrintOptions
	BlockRemote  bool
	MaxHTMLBytes int64
	Logger       export.Logger
}

var _ export.Engine = (*ChromiumEngine)(nil)

// Paginate measures the document, packs it and returns the paged HTML.
func (e *ChromiumEngine) Paginate(ctx context.Context, markup []byte) (export.Paginated, error) {
	var out export.Paginated
	err := e.run(ctx, markup, func(_ context.Context, paged []byte, pages []document.PageSummary) error {
		out = export.Paginated{HTML: paged, Pages: pages}
		return nil
	})
	if err != nil {
		return export.Paginated{}, err
	}
	return out, nil
}

// RenderPDF paginates the document and prints the pages.
func (e *ChromiumEngine) RenderPDF(ctx context.Context, markup []byte) (export.PDFResult, error) {
	if e == nil {
		return export.PDFResult{}, export.NewError(export.KindInternal, "chromium engine is nil", nil)
	}
	options := mergePrintOptions(DefaultPrintOptions(), e.PDF)
	params, err := buildPrintToPDFParams(options)
	if err != nil {
		return export.PDFResult{}, err
	}

	var out export.PDFResult
	err = e.run(ctx, markup, func(ctx context.Context, paged []byte, pages []document.PageSummary) error {
		var pdf []byte
		err := chromedp.Run(ctx,
			setDocumentContent(injectBaseURL(paged, options.BaseURL)),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				var err error
				pdf, _, err = params.Do(ctx)
				return err
			}),
		)
		if err != nil {
			return export.NewError(export.KindInternal, "chromium pdf render failed", err)
		}
		out = export.PDFResult{PDF: pdf, Pages: pages}
		return nil
	})
	if err != nil {
		return export.PDFResult{}, err
	}
	return out, nil
}

type pagedFunc func(ctx context.Context, paged []byte, pages []document.PageSummary) error

func (e *ChromiumEngine) run(ctx context.Context, markup []byte, next pagedFunc) error {
	if e == nil {
		return export.NewError(export.KindInternal, "chromium engine is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := e.logger()

	limit := e.MaxHTMLBytes
	if limit <= 0 {
		limit = DefaultMaxHTMLBytes
	}
	if int64(len(markup)) > limit {
		return export.NewError(export.KindValidation, "resume html exceeds max bytes", nil)
	}
	layout := e.layout()
	if err := layout.Validate(); err != nil {
		return export.NewError(export.KindValidation, "invalid page layout", err)
	}

	doc, err := document.ParseBytes(markup)
	if err != nil {
		return export.NewError(export.KindValidation, "resume html could not be parsed", err)
	}
	if !doc.Mounted() {
		return export.NewError(export.KindValidation, "resume container not found", document.ErrNotMounted)
	}
	var measureHTML bytes.Buffer
	if err := doc.RenderForMeasure(&measureHTML, layout); err != nil {
		return export.NewError(export.KindInternal, "prepare measurement document failed", err)
	}

	execPath, err := e.browserPath(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := e.newBrowser(ctx, execPath)
	defer cancel()

	started := time.Now()
	heights, err := e.measure(runCtx, measureHTML.Bytes(), layout)
	if err != nil {
		e.forgetMissingBrowser(execPath)
		return export.NewError(export.KindInternal, "chromium layout failed", err)
	}
	if ids := doc.IDs(); len(heights) < len(ids) {
		logger.Debugf("measured %d of %d nodes, missing nodes count as zero height", len(heights), len(ids))
	}

	pages, err := doc.Paginate(heights, layout)
	if err != nil {
		return export.NewError(export.KindValidation, "resume container not found", err)
	}
	paged, err := document.RenderPagesBytes(doc, pages, layout)
	if err != nil {
		return export.NewError(export.KindInternal, "materialize pages failed", err)
	}
	summaries := document.Summarize(pages, layout)
	logger.Debugf("laid out %d node(s) on %d page(s) in %s", len(heights), len(pages), time.Since(started))

	if next == nil {
		return nil
	}
	return next(runCtx, paged, summaries)
}

func (e *ChromiumEngine) measure(ctx context.Context, markup []byte, layout pagination.Layout) (pagination.Heights, error) {
	heights := pagination.Heights{}
	actions := []chromedp.Action{}
	if e.BlockRemote {
		actions = append(actions,
			network.Enable(),
			network.SetBlockedURLs([]string{"http://*", "https://*"}),
		)
	}
	actions = append(actions,
		emulation.SetDeviceMetricsOverride(int64(math.Ceil(layout.PageWidth)), int64(math.Ceil(layout.PageHeight)), 1, false),
		chromedp.Navigate("about:blank"),
		setDocumentContent(markup),
		chromedp.WaitReady("#"+document.RootID, chromedp.ByQuery),
		chromedp.Evaluate(measureScript, &heights, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}
	return heights, nil
}

func (e *ChromiumEngine) newBrowser(ctx context.Context, execPath string) (context.Context, context.CancelFunc) {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if execPath != "" {
		options = append(options, chromedp.ExecPath(execPath))
	}
	options = append(options, chromedp.Flag("headless", e.Headless))
	options = append(options, allocatorOptionsFromArgs(e.Args)...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, options...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	runCtx, timeoutCancel := browserCtx, context.CancelFunc(func() {})
	if e.Timeout > 0 {
		runCtx, timeoutCancel = context.WithTimeout(browserCtx, e.Timeout)
	}
	return runCtx, func() {
		timeoutCancel()
		browserCancel()
		allocCancel()
	}
}

func (e *ChromiumEngine) browserPath(ctx context.Context) (string, error) {
	if e.BrowserPath != "" || e.Resolver == nil {
		return e.BrowserPath, nil
	}
	path, err := e.Resolver.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve chromium: %w", err)
	}
	return path, nil
}

// forgetMissingBrowser drops a resolved binary that no longer exists on disk
// so the next run resolves (and if allowed downloads) it again.
func (e *ChromiumEngine) forgetMissingBrowser(execPath string) {
	if e.BrowserPath != "" || e.Resolver == nil || execPath == "" {
		return
	}
	if _, err := os.Stat(execPath); !errors.Is(err, fs.ErrNotExist) {
		return
	}
	resolver, ok := e.Resolver.(invalidator)
	if !ok {
		return
	}
	resolver.Invalidate()
	e.logger().Infof("chromium binary %s is gone, resolving again on next run", execPath)
}

func (e *ChromiumEngine) layout() pagination.Layout {
	if e.Layout == (pagination.Layout{}) {
		return pagination.A4
	}
	return e.Layout
}

func (e *ChromiumEngine) logger() export.Logger {
	if e.Logger == nil {
		return export.NopLogger{}
	}
	return e.Logger
}

func setDocumentContent(markup []byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, string(markup)).Do(ctx)
	})
}
