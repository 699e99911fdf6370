package pagination

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func ids(pages []Page[string]) [][]string {
	out := make([][]string, 0, len(pages))
	for _, page := range pages {
		out = append(out, page.Items)
	}
	return out
}

func TestLayout_A4(t *testing.T) {
	if got := A4.UsableHeight(); got != 1043 {
		t.Fatalf("expected usable height 1043, got %g", got)
	}
	if got := A4.ContentWidth(); got != 714 {
		t.Fatalf("expected content width 714, got %g", got)
	}
	if err := A4.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := (Layout{PageWidth: 100, PageHeight: 100, Padding: 50}).Validate(); err == nil {
		t.Fatalf("expected padding error")
	}
}

func TestPack_WholeSections(t *testing.T) {
	heights := Heights{"a": 400, "b": 400, "c": 400}
	sections := []Section[string]{
		{Node: "a", Blocks: []string{"a1"}},
		{Node: "b", Blocks: []string{"b1"}},
		{Node: "c", Blocks: []string{"c1"}},
	}

	pages := Pack(sections, heights, A4)

	want := [][]string{{"a", "b"}, {"c"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if pages[0].Height != 800 || pages[1].Height != 400 {
		t.Fatalf("unexpected heights %g, %g", pages[0].Height, pages[1].Height)
	}
}

func TestPack_SplitsSectionIntoBlocks(t *testing.T) {
	heights := Heights{"exp": 1200, "job1": 600, "job2": 600}
	sections := []Section[string]{
		{Node: "exp", Blocks: []string{"job1", "job2"}},
	}

	pages := Pack(sections, heights, A4)

	want := [][]string{{"job1"}, {"job2"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPack_SplitContinuesCurrentPage(t *testing.T) {
	heights := Heights{
		"header": 300,
		"exp":    900, "h2": 50, "job1": 400, "job2": 450,
	}
	sections := []Section[string]{
		{Node: "header", Blocks: []string{"name"}},
		{Node: "exp", Blocks: []string{"h2", "job1", "job2"}},
	}

	pages := Pack(sections, heights, A4)

	want := [][]string{{"header", "h2", "job1"}, {"job2"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPack_OversizedBlockIsSoleOccupant(t *testing.T) {
	heights := Heights{"a": 200, "big": 1500, "huge": 1500, "tail": 100}
	sections := []Section[string]{
		{Node: "a"},
		{Node: "big", Blocks: []string{"huge"}},
		{Node: "tail"},
	}

	pages := Pack(sections, heights, A4)

	want := [][]string{{"a"}, {"huge"}, {"tail"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !pages[1].Overflows(A4) {
		t.Fatalf("expected oversized page to report overflow")
	}
	if pages[0].Overflows(A4) || pages[2].Overflows(A4) {
		t.Fatalf("expected regular pages not to overflow")
	}
}

func TestPack_OversizedFirstBlockOnEmptyPage(t *testing.T) {
	heights := Heights{"s": 2000, "b1": 1100, "b2": 10}
	pages := Pack([]Section[string]{{Node: "s", Blocks: []string{"b1", "b2"}}}, heights, A4)

	want := [][]string{{"b1"}, {"b2"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPack_SectionWithoutBlocksMovesWhole(t *testing.T) {
	heights := Heights{"a": 900, "b": 300}
	pages := Pack([]Section[string]{{Node: "a"}, {Node: "b"}}, heights, A4)

	want := [][]string{{"a"}, {"b"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPack_ZeroAndInvalidHeightsAreCounted(t *testing.T) {
	heights := Heights{"hidden": 0, "nan": math.NaN(), "neg": -20, "a": 100}
	sections := []Section[string]{{Node: "hidden"}, {Node: "nan"}, {Node: "neg"}, {Node: "a"}}

	pages := Pack(sections, heights, A4)

	want := [][]string{{"hidden", "nan", "neg", "a"}}
	if got := ids(pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if pages[0].Height != 100 {
		t.Fatalf("expected height 100, got %g", pages[0].Height)
	}
}

func TestPack_EmptyInput(t *testing.T) {
	if pages := Pack[string](nil, Heights{}, A4); pages != nil {
		t.Fatalf("expected no pages, got %v", pages)
	}
}

func TestPack_DuplicateSectionsAreOrdinary(t *testing.T) {
	heights := Heights{"edu": 300}
	sections := []Section[string]{{Node: "edu"}, {Node: "edu"}}
	pages := Pack(sections, heights, A4)
	if got := Flatten(pages); !reflect.DeepEqual(got, []string{"edu", "edu"}) {
		t.Fatalf("expected both sections placed, got %v", got)
	}
}

func TestPack_MeasureFunc(t *testing.T) {
	calls := 0
	m := MeasureFunc[int](func(n int) float64 {
		calls++
		return float64(n)
	})
	pages := Pack([]Section[int]{{Node: 500}, {Node: 600, Blocks: []int{300, 300}}}, m, A4)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if calls != 4 {
		t.Fatalf("expected 4 measurements, got %d", calls)
	}
}

// randomDocument builds sections whose whole height is the sum of their blocks
// plus a heading margin, like rendered resume sections.
func randomDocument(rng *rand.Rand) ([]Section[string], Heights) {
	heights := Heights{}
	count := 1 + rng.Intn(8)
	sections := make([]Section[string], 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("s%d", i)
		section := Section[string]{Node: id}
		total := 24.0
		for j := 0; j < rng.Intn(6); j++ {
			blockID := fmt.Sprintf("%s-b%d", id, j)
			h := float64(rng.Intn(700))
			if rng.Intn(20) == 0 {
				h = 1100 + float64(rng.Intn(400))
			}
			heights[blockID] = h
			total += h
			section.Blocks = append(section.Blocks, blockID)
		}
		heights[id] = total
		sections = append(sections, section)
	}
	return sections, heights
}

func TestPack_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 500; run++ {
		sections, heights := randomDocument(rng)
		pages := Pack(sections, heights, A4)

		// order preservation: every section appears either whole or as its blocks
		var expected []string
		flat := Flatten(pages)
		cursor := 0
		for _, section := range sections {
			if cursor < len(flat) && flat[cursor] == section.Node {
				expected = append(expected, section.Node)
				cursor++
				continue
			}
			if len(section.Blocks) == 0 {
				expected = append(expected, section.Node)
				cursor++
				continue
			}
			expected = append(expected, section.Blocks...)
			cursor += len(section.Blocks)
		}
		if !reflect.DeepEqual(flat, expected) {
			t.Fatalf("run %d: order not preserved\nwant %v\ngot  %v", run, expected, flat)
		}

		// capacity: only single item pages may overflow
		for i, page := range pages {
			if len(page.Items) == 0 {
				t.Fatalf("run %d: empty page %d", run, i)
			}
			if page.Overflows(A4) && len(page.Items) != 1 {
				t.Fatalf("run %d: page %d overflows with %d items (%g)", run, i, len(page.Items), page.Height)
			}
		}

		// determinism
		again := Pack(sections, heights, A4)
		if !reflect.DeepEqual(ids(pages), ids(again)) {
			t.Fatalf("run %d: packing is not deterministic", run)
		}
	}
}
