package resume

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Fingerprint summarizes the parts of a resume that change its pagination:
// the template, the entry counts and ordering keys of every collection, and
// the last modification time. Equal fingerprints mean a previous partition
// can be reused.
func Fingerprint(r Resume) string {
	h := sha256.New()
	fmt.Fprintf(h, "template=%s;updated=%d;", r.Template, r.UpdatedAt.UnixNano())

	writeKeys(h, "experience", len(r.Experience), func(i int) (string, int) {
		return r.Experience[i].ID, r.Experience[i].Order
	})
	writeKeys(h, "education", len(r.Education), func(i int) (string, int) {
		return r.Education[i].ID, r.Education[i].Order
	})
	writeKeys(h, "skills", len(r.Skills), func(i int) (string, int) {
		return r.Skills[i].ID, r.Skills[i].Order
	})
	writeKeys(h, "projects", len(r.Projects), func(i int) (string, int) {
		return r.Projects[i].ID, r.Projects[i].Order
	})
	writeKeys(h, "custom", len(r.CustomSections), func(i int) (string, int) {
		return r.CustomSections[i].ID, r.CustomSections[i].Order
	})
	for _, section := range r.CustomSections {
		writeKeys(h, "custom:"+section.ID, len(section.Items), func(i int) (string, int) {
			return section.Items[i].ID, section.Items[i].Order
		})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeKeys(w io.Writer, name string, count int, key func(int) (string, int)) {
	fmt.Fprintf(w, "%s[%d]", name, count)
	for i := 0; i < count; i++ {
		id, order := key(i)
		fmt.Fprintf(w, "%q:%d,", id, order)
	}
	io.WriteString(w, ";")
}
