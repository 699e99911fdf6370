// Package resumetemplate renders resumes into paginatable HTML documents.
//
// Templates are pongo2 documents embedded in the binary. Every template wraps
// its content in the pagination container (id "resume-root") and emits one
// <section> per non-empty resume collection; the element children of a
// section are the blocks the paginator may move between pages. Descriptions
// are Markdown and are rendered with goldmark before reaching the template.
package resumetemplate
