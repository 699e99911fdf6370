package export

import (
	"strings"
	"unicode"

	"github.com/goliatone/go-resume/resume"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ArtifactKey is the storage key of a resume's exported PDF. Re-exports
// overwrite the previous artifact.
func ArtifactKey(resumeID string) string {
	return "resumes/" + resumeID + ".pdf"
}

// Filename builds the download filename from the resume owner's name,
// falling back to the resume title and then to "resume".
func Filename(r resume.Resume) string {
	base := slug(r.Profile.FullName)
	if base == "" {
		base = slug(r.Title)
	}
	if base == "" {
		return "resume.pdf"
	}
	return base + "-resume.pdf"
}

// slug folds accents away and keeps ASCII letters and digits joined by dashes.
func slug(value string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, value); err == nil {
		value = folded
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
