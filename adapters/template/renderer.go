package resumetemplate

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/resume"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultTemplate is used when a resume names no template.
const DefaultTemplate = "classic"

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders resumes with the embedded templates.
type Renderer struct {
	defaultName string
	templates   map[string]*pongo2.Template
	markdown    goldmark.Markdown
}

var _ export.HTMLRenderer = (*Renderer)(nil)

// New compiles the embedded templates. defaultName falls back to
// DefaultTemplate when empty.
func New(defaultName string) (*Renderer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	templates := make(map[string]*pongo2.Template, len(entries))
	for _, entry := range entries {
		data, err := templateFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		tpl, err := pongo2.FromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("compile template %s: %w", entry.Name(), err)
		}
		templates[strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))] = tpl
	}

	defaultName = strings.ToLower(strings.TrimSpace(defaultName))
	if defaultName == "" {
		defaultName = DefaultTemplate
	}
	if _, ok := templates[defaultName]; !ok {
		return nil, export.NewError(export.KindValidation, fmt.Sprintf("unknown default template %q", defaultName), nil)
	}

	return &Renderer{
		defaultName: defaultName,
		templates:   templates,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

// Names lists the available templates.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders the resume with the template it names.
func (r *Renderer) Render(ctx context.Context, res resume.Resume) ([]byte, error) {
	if r == nil || len(r.templates) == 0 {
		return nil, export.NewError(export.KindNotImpl, "template renderer not configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(res.Template))
	if name == "" {
		name = r.defaultName
	}
	tpl, ok := r.templates[name]
	if !ok {
		return nil, export.NewError(export.KindValidation, fmt.Sprintf("unknown resume template %q", res.Template), nil)
	}

	profile, sections, err := buildView(res, r.toHTML)
	if err != nil {
		return nil, export.NewError(export.KindInternal, "render resume markdown failed", err)
	}

	title := res.Title
	if title == "" {
		title = profile.FullName
	}

	var buf bytes.Buffer
	err = tpl.ExecuteWriter(pongo2.Context{
		"title":    title,
		"template": name,
		"profile":  profile,
		"sections": sections,
	}, &buf)
	if err != nil {
		return nil, export.NewError(export.KindInternal, fmt.Sprintf("execute template %s failed", name), err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) toHTML(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
