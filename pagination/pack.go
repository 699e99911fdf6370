package pagination

// Section is a top level unit of the document together with the blocks it
// can be split into when it does not fit on the current page.
type Section[N any] struct {
	Node   N
	Blocks []N
}

// Page is an ordered run of placed nodes. Items hold whole sections or
// individual blocks, in document order.
type Page[N any] struct {
	Items  []N
	Height float64
}

// Overflows reports whether the page exceeds the usable height. Only a page
// whose single item is taller than the budget can overflow.
func (p Page[N]) Overflows(layout Layout) bool {
	return p.Height > layout.UsableHeight()
}

// Pack partitions sections into pages of at most layout.UsableHeight().
func Pack[N any](sections []Section[N], m Measurer[N], layout Layout) []Page[N] {
	if len(sections) == 0 {
		return nil
	}
	p := packer[N]{capacity: layout.UsableHeight()}

	for _, section := range sections {
		height := measure(m, section.Node)
		if p.used+height <= p.capacity {
			p.place(section.Node, height)
			continue
		}

		// A section without blocks cannot be split; it moves as one block.
		if len(section.Blocks) == 0 {
			p.placeBlock(section.Node, height)
			continue
		}
		for _, block := range section.Blocks {
			p.placeBlock(block, measure(m, block))
		}
	}

	p.closePage()
	return p.pages
}

// Flatten concatenates page items in order.
func Flatten[N any](pages []Page[N]) []N {
	var out []N
	for _, page := range pages {
		out = append(out, page.Items...)
	}
	return out
}

type packer[N any] struct {
	capacity float64
	current  []N
	used     float64
	pages    []Page[N]
}

func (p *packer[N]) place(node N, height float64) {
	p.current = append(p.current, node)
	p.used += height
}

func (p *packer[N]) placeBlock(node N, height float64) {
	if p.used+height > p.capacity {
		p.closePage()
	}
	p.place(node, height)
}

// closePage never emits an empty page, so an oversized block at the top of a
// fresh page stays there alone.
func (p *packer[N]) closePage() {
	if len(p.current) == 0 {
		return
	}
	p.pages = append(p.pages, Page[N]{Items: p.current, Height: p.used})
	p.current = nil
	p.used = 0
}
