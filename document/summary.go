package document

import (
	"github.com/goliatone/go-resume/pagination"
	"golang.org/x/net/html"
)

// PageSummary describes one page of a partition by node ids.
type PageSummary struct {
	Number   int      `json:"number"`
	Items    []string `json:"items"`
	Height   float64  `json:"height"`
	Overflow bool     `json:"overflow,omitempty"`
}

// Summarize reports which tagged nodes landed on which page.
func Summarize(pages []pagination.Page[*html.Node], layout pagination.Layout) []PageSummary {
	out := make([]PageSummary, 0, len(pages))
	for i, page := range pages {
		items := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			items = append(items, NodeID(item))
		}
		out = append(out, PageSummary{
			Number:   i + 1,
			Items:    items,
			Height:   page.Height,
			Overflow: page.Overflows(layout),
		})
	}
	return out
}
