package export

import (
	"strings"

	"github.com/google/uuid"
)

// ValidateResumeID rejects identifiers that cannot name a resume, before any
// lookup or rendering work is done.
func ValidateResumeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", NewError(KindValidation, "resume id is required", nil)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", NewError(KindValidation, "resume id must be a uuid", err)
	}
	return parsed.String(), nil
}
