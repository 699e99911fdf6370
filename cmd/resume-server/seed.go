package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/goliatone/go-resume/resume"
)

type resumeSaver interface {
	Save(ctx context.Context, r resume.Resume) (resume.Resume, error)
}

// seedResume loads a resume from a YAML file and stores it. Seeding the same
// file twice updates the stored resume in place when it carries an id.
func seedResume(ctx context.Context, repo resumeSaver, path string) (resume.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return resume.Resume{}, err
	}
	r, err := decodeResume(data)
	if err != nil {
		return resume.Resume{}, err
	}
	return repo.Save(ctx, r)
}

func decodeResume(data []byte) (resume.Resume, error) {
	var r resume.Resume
	if err := yaml.UnmarshalWithOptions(data, &r, yaml.Strict()); err != nil {
		return resume.Resume{}, fmt.Errorf("decode resume: %w", err)
	}
	if r.Profile.FullName == "" && r.Title == "" {
		return resume.Resume{}, fmt.Errorf("decode resume: a title or profile.fullName is required")
	}
	return r, nil
}
