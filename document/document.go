// Package document maps rendered resume markup onto pagination sections.
//
// A document is a full HTML page produced by a template. Its pagination
// container is the element with id "resume-root"; every top level <section>
// inside the container is a pagination section and the element children of a
// section are its blocks. Sections and blocks are tagged with a stable
// data-pg-id attribute so that measurements taken in a browser can be mapped
// back onto the parsed tree.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-resume/pagination"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// RootID identifies the pagination container.
	RootID = "resume-root"
	// AttrNodeID carries the measurement key of a section or block.
	AttrNodeID = "data-pg-id"
)

// ErrNotMounted reports that the document has no pagination container yet.
var ErrNotMounted = errors.New("pagination container not mounted")

// Document is a parsed resume document.
type Document struct {
	root      *html.Node
	container *html.Node
	sections  []pagination.Section[*html.Node]
}

// Parse reads a full HTML document and tags its sections and blocks.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc := &Document{root: root}
	doc.container = findByID(root, RootID)
	if doc.container != nil {
		doc.sections = collectSections(doc.container)
	}
	return doc, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Mounted reports whether the pagination container exists.
func (d *Document) Mounted() bool {
	return d != nil && d.container != nil
}

// Sections returns the pagination sections in document order.
func (d *Document) Sections() []pagination.Section[*html.Node] {
	if d == nil {
		return nil
	}
	return d.sections
}

// IDs returns the measurement keys of every section and block.
func (d *Document) IDs() []string {
	var out []string
	for _, section := range d.Sections() {
		out = append(out, NodeID(section.Node))
		for _, block := range section.Blocks {
			out = append(out, NodeID(block))
		}
	}
	return out
}

// Paginate packs the document using heights measured for its tagged nodes.
func (d *Document) Paginate(heights pagination.Heights, layout pagination.Layout) ([]pagination.Page[*html.Node], error) {
	if !d.Mounted() {
		return nil, ErrNotMounted
	}
	return pagination.Pack(d.sections, Measurer(heights), layout), nil
}

// RenderForMeasure writes the tagged document with the container constrained
// to the page content width, ready to be laid out in a browser.
func (d *Document) RenderForMeasure(w io.Writer, layout pagination.Layout) error {
	if d == nil || d.root == nil {
		return ErrNotMounted
	}
	clone := cloneNode(d.root)
	appendStyle(clone, measureCSS(layout))
	return html.Render(w, clone)
}

// NodeID returns the measurement key of a tagged node.
func NodeID(n *html.Node) string {
	return attr(n, AttrNodeID)
}

// Measurer resolves nodes to browser measurements through their ids.
func Measurer(heights pagination.Heights) pagination.MeasureFunc[*html.Node] {
	return func(n *html.Node) float64 {
		return heights.Measure(NodeID(n))
	}
}

// collectSections finds top level sections below the container, skipping
// sections nested inside another section.
func collectSections(container *html.Node) []pagination.Section[*html.Node] {
	var sections []pagination.Section[*html.Node]
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom != atom.Section {
				walk(c)
				continue
			}
			idx := len(sections)
			setAttr(c, AttrNodeID, fmt.Sprintf("s%d", idx))
			section := pagination.Section[*html.Node]{Node: c}
			for b := c.FirstChild; b != nil; b = b.NextSibling {
				if b.Type != html.ElementNode {
					continue
				}
				setAttr(b, AttrNodeID, fmt.Sprintf("s%d-b%d", idx, len(section.Blocks)))
				section.Blocks = append(section.Blocks, b)
			}
			sections = append(sections, section)
		}
	}
	walk(container)
	return sections
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// cloneNode deep copies n and its subtree; the copy has no parent.
func cloneNode(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneNode(c))
	}
	return out
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// appendStyle adds a <style> element to the head of root, creating the head
// when the document has none.
func appendStyle(root *html.Node, css string) {
	head := findElement(root, atom.Head)
	if head == nil {
		htmlEl := findElement(root, atom.Html)
		if htmlEl == nil {
			return
		}
		head = element(atom.Head)
		htmlEl.InsertBefore(head, htmlEl.FirstChild)
	}
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	head.AppendChild(style)
}

func measureCSS(layout pagination.Layout) string {
	var b strings.Builder
	b.WriteString("html,body{margin:0;padding:0;}")
	fmt.Fprintf(&b, "#%s{box-sizing:border-box;width:%gpx;margin:0;padding:0;}", RootID, layout.ContentWidth())
	return b.String()
}
