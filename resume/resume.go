// Package resume defines the structured resume content rendered by templates.
package resume

import (
	"sort"
	"strings"
	"time"
)

// Resume is the authored content of one resume.
type Resume struct {
	ID             string          `json:"id" yaml:"id"`
	OwnerID        string          `json:"owner_id,omitempty" yaml:"ownerId"`
	Title          string          `json:"title" yaml:"title"`
	Template       string          `json:"template,omitempty" yaml:"template"`
	Profile        Profile         `json:"profile" yaml:"profile"`
	Experience     []Experience    `json:"experience,omitempty" yaml:"experience"`
	Education      []Education     `json:"education,omitempty" yaml:"education"`
	Skills         []Skill         `json:"skills,omitempty" yaml:"skills"`
	Projects       []Project       `json:"projects,omitempty" yaml:"projects"`
	CustomSections []CustomSection `json:"custom_sections,omitempty" yaml:"customSections"`
	CreatedAt      time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time       `json:"updated_at" yaml:"-"`
	LastExportedAt time.Time       `json:"last_exported_at,omitempty" yaml:"-"`
	ExportKey      string          `json:"export_key,omitempty" yaml:"-"`
}

// Profile is the header of a resume.
type Profile struct {
	FullName string `json:"full_name" yaml:"fullName"`
	Headline string `json:"headline,omitempty" yaml:"headline"`
	Email    string `json:"email,omitempty" yaml:"email"`
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	Location string `json:"location,omitempty" yaml:"location"`
	Website  string `json:"website,omitempty" yaml:"website"`
	Summary  string `json:"summary,omitempty" yaml:"summary"`
}

// Experience is one position.
type Experience struct {
	ID          string `json:"id" yaml:"id"`
	Order       int    `json:"order" yaml:"order"`
	Company     string `json:"company" yaml:"company"`
	Role        string `json:"role" yaml:"role"`
	Location    string `json:"location,omitempty" yaml:"location"`
	StartDate   string `json:"start_date,omitempty" yaml:"startDate"`
	EndDate     string `json:"end_date,omitempty" yaml:"endDate"`
	Current     bool   `json:"current,omitempty" yaml:"current"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Education is one degree or course of study.
type Education struct {
	ID          string `json:"id" yaml:"id"`
	Order       int    `json:"order" yaml:"order"`
	School      string `json:"school" yaml:"school"`
	Degree      string `json:"degree,omitempty" yaml:"degree"`
	Field       string `json:"field,omitempty" yaml:"field"`
	StartDate   string `json:"start_date,omitempty" yaml:"startDate"`
	EndDate     string `json:"end_date,omitempty" yaml:"endDate"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Skill is a named skill, optionally grouped.
type Skill struct {
	ID    string `json:"id" yaml:"id"`
	Order int    `json:"order" yaml:"order"`
	Name  string `json:"name" yaml:"name"`
	Level string `json:"level,omitempty" yaml:"level"`
	Group string `json:"group,omitempty" yaml:"group"`
}

// Project is a personal or professional project.
type Project struct {
	ID          string `json:"id" yaml:"id"`
	Order       int    `json:"order" yaml:"order"`
	Name        string `json:"name" yaml:"name"`
	URL         string `json:"url,omitempty" yaml:"url"`
	Role        string `json:"role,omitempty" yaml:"role"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// CustomSection is a user titled section with free form items.
type CustomSection struct {
	ID    string       `json:"id" yaml:"id"`
	Order int          `json:"order" yaml:"order"`
	Title string       `json:"title" yaml:"title"`
	Items []CustomItem `json:"items,omitempty" yaml:"items"`
}

// CustomItem is one entry of a custom section.
type CustomItem struct {
	ID          string `json:"id" yaml:"id"`
	Order       int    `json:"order" yaml:"order"`
	Title       string `json:"title" yaml:"title"`
	Subtitle    string `json:"subtitle,omitempty" yaml:"subtitle"`
	Date        string `json:"date,omitempty" yaml:"date"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Exported reports whether the stored export is still current: an artifact
// exists and the resume has not changed since it was produced.
func (r Resume) Exported() bool {
	if strings.TrimSpace(r.ExportKey) == "" || r.LastExportedAt.IsZero() {
		return false
	}
	return !r.UpdatedAt.After(r.LastExportedAt)
}

// Sorted returns a copy with every collection in render order. Ties keep
// their authored order.
func (r Resume) Sorted() Resume {
	out := r
	out.Experience = sortByOrder(r.Experience, func(e Experience) int { return e.Order })
	out.Education = sortByOrder(r.Education, func(e Education) int { return e.Order })
	out.Skills = sortByOrder(r.Skills, func(s Skill) int { return s.Order })
	out.Projects = sortByOrder(r.Projects, func(p Project) int { return p.Order })
	out.CustomSections = sortByOrder(r.CustomSections, func(c CustomSection) int { return c.Order })
	for i := range out.CustomSections {
		out.CustomSections[i].Items = sortByOrder(out.CustomSections[i].Items, func(c CustomItem) int { return c.Order })
	}
	return out
}

func sortByOrder[T any](items []T, order func(T) int) []T {
	if len(items) == 0 {
		return nil
	}
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return order(out[i]) < order(out[j])
	})
	return out
}
