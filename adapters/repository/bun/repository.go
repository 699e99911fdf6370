// Package repositorybun persists resumes with Bun.
package repositorybun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/resume"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository stores resumes in a Bun-backed database. Structured content is
// kept as a JSON document; timestamps and export bookkeeping are columns so
// the export cache check never decodes content.
type Repository struct {
	DB  *bun.DB
	Now func() time.Time
}

var _ export.ResumeRepository = (*Repository)(nil)

// New creates a Bun-backed resume repository.
func New(db *bun.DB) *Repository {
	return &Repository{DB: db, Now: time.Now}
}

// CreateSchema creates the resumes table if missing.
func (r *Repository) CreateSchema(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return export.NewError(export.KindNotImpl, "resume database not configured", nil)
	}
	_, err := r.DB.NewCreateTable().Model((*resumeModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Save creates or updates a resume and returns it as stored. Every save
// counts as an edit and moves UpdatedAt forward; export bookkeeping is left
// untouched.
func (r *Repository) Save(ctx context.Context, res resume.Resume) (resume.Resume, error) {
	if r == nil || r.DB == nil {
		return resume.Resume{}, export.NewError(export.KindNotImpl, "resume database not configured", nil)
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	id, err := export.ValidateResumeID(res.ID)
	if err != nil {
		return resume.Resume{}, err
	}
	res.ID = id

	now := r.now()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now

	model, err := modelFromResume(res)
	if err != nil {
		return resume.Resume{}, err
	}
	_, err = r.DB.NewInsert().Model(&model).
		On("CONFLICT (id) DO UPDATE").
		Set("owner_id = EXCLUDED.owner_id").
		Set("title = EXCLUDED.title").
		Set("template = EXCLUDED.template").
		Set("content = EXCLUDED.content").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return resume.Resume{}, err
	}
	return r.Get(ctx, id)
}

// Get returns a resume by id.
func (r *Repository) Get(ctx context.Context, id string) (resume.Resume, error) {
	if r == nil || r.DB == nil {
		return resume.Resume{}, export.NewError(export.KindNotImpl, "resume database not configured", nil)
	}
	if id == "" {
		return resume.Resume{}, export.NewError(export.KindValidation, "resume id is required", nil)
	}

	model := new(resumeModel)
	err := r.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resume.Resume{}, export.NewError(export.KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
		}
		return resume.Resume{}, err
	}
	return model.toResume()
}

// MarkExported records a completed export without touching UpdatedAt. The
// row is only updated while its updated_at still matches version.
func (r *Repository) MarkExported(ctx context.Context, id string, key string, version, at time.Time) error {
	if r == nil || r.DB == nil {
		return export.NewError(export.KindNotImpl, "resume database not configured", nil)
	}
	if id == "" {
		return export.NewError(export.KindValidation, "resume id is required", nil)
	}

	return r.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current := new(resumeModel)
		err := tx.NewSelect().Model(current).Column("updated_at").Where("id = ?", id).Limit(1).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return export.NewError(export.KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
			}
			return err
		}
		if !current.UpdatedAt.Equal(version) {
			return export.ErrExportStale
		}

		_, err = tx.NewUpdate().Model((*resumeModel)(nil)).
			Set("export_key = ?", key).
			Set("last_exported_at = ?", at).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

// Delete removes a resume.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r == nil || r.DB == nil {
		return export.NewError(export.KindNotImpl, "resume database not configured", nil)
	}
	if id == "" {
		return export.NewError(export.KindValidation, "resume id is required", nil)
	}

	res, err := r.DB.NewDelete().Model((*resumeModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return export.NewError(export.KindNotFound, fmt.Sprintf("resume %q not found", id), nil)
	}
	return nil
}

func (r *Repository) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

type resumeModel struct {
	bun.BaseModel `bun:"table:resumes,alias:resumes"`

	ID             string    `bun:",pk"`
	OwnerID        string    `bun:"owner_id"`
	Title          string    `bun:"title,notnull"`
	Template       string    `bun:"template"`
	Content        []byte    `bun:"content"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
	LastExportedAt time.Time `bun:"last_exported_at,nullzero"`
	ExportKey      string    `bun:"export_key"`
}

type resumeContent struct {
	Profile        resume.Profile         `json:"profile"`
	Experience     []resume.Experience    `json:"experience,omitempty"`
	Education      []resume.Education     `json:"education,omitempty"`
	Skills         []resume.Skill         `json:"skills,omitempty"`
	Projects       []resume.Project       `json:"projects,omitempty"`
	CustomSections []resume.CustomSection `json:"custom_sections,omitempty"`
}

func modelFromResume(res resume.Resume) (resumeModel, error) {
	content, err := json.Marshal(resumeContent{
		Profile:        res.Profile,
		Experience:     res.Experience,
		Education:      res.Education,
		Skills:         res.Skills,
		Projects:       res.Projects,
		CustomSections: res.CustomSections,
	})
	if err != nil {
		return resumeModel{}, err
	}
	return resumeModel{
		ID:             res.ID,
		OwnerID:        res.OwnerID,
		Title:          res.Title,
		Template:       res.Template,
		Content:        content,
		CreatedAt:      res.CreatedAt,
		UpdatedAt:      res.UpdatedAt,
		LastExportedAt: res.LastExportedAt,
		ExportKey:      res.ExportKey,
	}, nil
}

func (m resumeModel) toResume() (resume.Resume, error) {
	var content resumeContent
	if len(m.Content) > 0 {
		if err := json.Unmarshal(m.Content, &content); err != nil {
			return resume.Resume{}, fmt.Errorf("decode resume %s content: %w", m.ID, err)
		}
	}
	return resume.Resume{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Title:          m.Title,
		Template:       m.Template,
		Profile:        content.Profile,
		Experience:     content.Experience,
		Education:      content.Education,
		Skills:         content.Skills,
		Projects:       content.Projects,
		CustomSections: content.CustomSections,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		LastExportedAt: m.LastExportedAt,
		ExportKey:      m.ExportKey,
	}, nil
}
