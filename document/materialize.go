package document

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-resume/pagination"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageClass is the class of every materialized page container.
const PageClass = "page"

// Materialize builds a paged copy of the document. Each page becomes a fixed
// size container holding clones of its items, wrapped in a copy of the
// pagination container so template styles keep applying. Blocks of a section
// split across pages are wrapped in a margin-less copy of their section.
// Nothing is measured here; the partition is used as given.
func Materialize(d *Document, pages []pagination.Page[*html.Node], layout pagination.Layout) (*html.Node, error) {
	if !d.Mounted() {
		return nil, ErrNotMounted
	}

	root := cloneNode(d.root)
	body := findElement(root, atom.Body)
	if body == nil {
		return nil, fmt.Errorf("materialize: document has no body")
	}
	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		body.RemoveChild(c)
		c = next
	}

	sectionNodes := make(map[*html.Node]bool, len(d.sections))
	for _, section := range d.sections {
		sectionNodes[section.Node] = true
	}

	set := element(atom.Div, html.Attribute{Key: "class", Val: "pages"})
	for i, page := range pages {
		pageEl := element(atom.Div,
			html.Attribute{Key: "class", Val: PageClass},
			html.Attribute{Key: "data-page", Val: strconv.Itoa(i + 1)},
		)
		content := shallowClone(d.container)
		removeAttr(content, "id")
		setAttr(content, "class", strings.TrimSpace(attr(d.container, "class")+" page-content"))
		var part, partOf *html.Node
		for _, item := range page.Items {
			parent := item.Parent
			if sectionNodes[item] || !sectionNodes[parent] {
				content.AppendChild(cloneNode(item))
				part = nil
				continue
			}
			if part == nil || partOf != parent {
				part = sectionPart(parent)
				partOf = parent
				content.AppendChild(part)
			}
			part.AppendChild(cloneNode(item))
		}
		pageEl.AppendChild(content)
		set.AppendChild(pageEl)
	}
	body.AppendChild(set)

	appendStyle(root, PageCSS(layout))
	return root, nil
}

// RenderPages writes the materialized document.
func RenderPages(w io.Writer, d *Document, pages []pagination.Page[*html.Node], layout pagination.Layout) error {
	root, err := Materialize(d, pages, layout)
	if err != nil {
		return err
	}
	return html.Render(w, root)
}

// RenderPagesBytes is RenderPages into a byte slice.
func RenderPagesBytes(d *Document, pages []pagination.Page[*html.Node], layout pagination.Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPages(&buf, d, pages, layout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PageCSS sizes page containers for screen and print. Page padding replaces
// printer margins, and every page but the last forces a page break.
func PageCSS(layout pagination.Layout) string {
	var b strings.Builder
	b.WriteString("@page{size:A4;margin:0;}")
	b.WriteString("html,body{margin:0;padding:0;}")
	fmt.Fprintf(&b, ".%s{box-sizing:border-box;width:%gpx;height:%gpx;padding:%gpx;overflow:visible;position:relative;page-break-after:always;break-after:page;}",
		PageClass, layout.PageWidth, layout.PageHeight, layout.Padding)
	fmt.Fprintf(&b, ".%s:last-child{page-break-after:auto;break-after:auto;}", PageClass)
	b.WriteString(".page-content{margin:0;padding:0;width:100%;}")
	fmt.Fprintf(&b, "@media screen{.pages{background:#e5e7eb;padding:16px 0;}.%s{margin:0 auto 16px;background:#fff;box-shadow:0 1px 4px rgba(0,0,0,.15);}}", PageClass)
	b.WriteString("@media print{.pages{padding:0;background:none;}}")
	return b.String()
}

// SectionPartClass marks the wrapper of a section split across pages.
const SectionPartClass = "section-part"

// sectionPart copies a section element without children or measurement key.
// Its margins are zeroed because only the heights of its blocks were budgeted.
func sectionPart(section *html.Node) *html.Node {
	part := shallowClone(section)
	removeAttr(part, "id")
	removeAttr(part, AttrNodeID)
	setAttr(part, "class", strings.TrimSpace(attr(section, "class")+" "+SectionPartClass))
	style := strings.TrimSpace(attr(section, "style"))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	setAttr(part, "style", style+"margin-top:0;margin-bottom:0;")
	return part
}

func shallowClone(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return out
}
