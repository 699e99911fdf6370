package resume

import (
	"testing"
	"time"
)

func sample() Resume {
	return Resume{
		ID:       "7b1d3c57-4f0e-4c2a-9a55-3f7a6f1d2b10",
		Template: "classic",
		Profile:  Profile{FullName: "Ada Lovelace"},
		Experience: []Experience{
			{ID: "e2", Order: 2, Company: "Engine Co"},
			{ID: "e1", Order: 1, Company: "Analytical Ltd"},
			{ID: "e3", Order: 2, Company: "Later Tie"},
		},
		Skills:    []Skill{{ID: "k1", Order: 0, Name: "Math"}},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSorted_StableByOrder(t *testing.T) {
	r := sample()
	sorted := r.Sorted()

	got := []string{sorted.Experience[0].ID, sorted.Experience[1].ID, sorted.Experience[2].ID}
	want := []string{"e1", "e2", "e3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if r.Experience[0].ID != "e2" {
		t.Fatalf("expected original slice to be untouched")
	}
	if sorted.Projects != nil {
		t.Fatalf("expected empty collection to stay empty")
	}
}

func TestFingerprint(t *testing.T) {
	base := sample()
	fp := Fingerprint(base)
	if fp != Fingerprint(sample()) {
		t.Fatalf("expected fingerprint to be stable")
	}

	reordered := sample()
	reordered.Experience[0].Order = 9
	if Fingerprint(reordered) == fp {
		t.Fatalf("expected ordering change to alter fingerprint")
	}

	added := sample()
	added.Projects = append(added.Projects, Project{ID: "p1"})
	if Fingerprint(added) == fp {
		t.Fatalf("expected new entry to alter fingerprint")
	}

	touched := sample()
	touched.UpdatedAt = touched.UpdatedAt.Add(time.Second)
	if Fingerprint(touched) == fp {
		t.Fatalf("expected modification time to alter fingerprint")
	}

	exported := sample()
	exported.LastExportedAt = time.Now()
	exported.ExportKey = "resumes/x.pdf"
	if Fingerprint(exported) != fp {
		t.Fatalf("expected export bookkeeping not to alter fingerprint")
	}
}

func TestExported(t *testing.T) {
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		r    Resume
		want bool
	}{
		{name: "never exported", r: Resume{UpdatedAt: updated}, want: false},
		{name: "no artifact", r: Resume{UpdatedAt: updated, LastExportedAt: updated}, want: false},
		{name: "same instant", r: Resume{UpdatedAt: updated, LastExportedAt: updated, ExportKey: "k"}, want: true},
		{name: "export newer", r: Resume{UpdatedAt: updated, LastExportedAt: updated.Add(time.Minute), ExportKey: "k"}, want: true},
		{name: "edited after export", r: Resume{UpdatedAt: updated.Add(time.Minute), LastExportedAt: updated, ExportKey: "k"}, want: false},
	}
	for _, tc := range cases {
		if got := tc.r.Exported(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
