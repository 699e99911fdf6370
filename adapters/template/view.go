package resumetemplate

import (
	"strings"

	"github.com/goliatone/go-resume/resume"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type profileView struct {
	FullName string
	Headline string
	Contacts []string
	Summary  string
}

type sectionView struct {
	Key     string
	Title   string
	Entries []entryView
}

type entryView struct {
	Title    string
	Subtitle string
	Meta     string
	Body     string
}

type markdownFunc func(string) (string, error)

// buildView flattens a resume into template sections. Collections without
// entries produce no section.
func buildView(r resume.Resume, md markdownFunc) (profileView, []sectionView, error) {
	r = r.Sorted()

	summary, err := md(r.Profile.Summary)
	if err != nil {
		return profileView{}, nil, err
	}
	profile := profileView{
		FullName: strings.TrimSpace(r.Profile.FullName),
		Headline: strings.TrimSpace(r.Profile.Headline),
		Contacts: nonEmpty(r.Profile.Email, r.Profile.Phone, r.Profile.Location, r.Profile.Website),
		Summary:  summary,
	}

	var sections []sectionView
	add := func(key, title string, entries []entryView) {
		if len(entries) > 0 {
			sections = append(sections, sectionView{Key: key, Title: title, Entries: entries})
		}
	}

	var entries []entryView
	for _, e := range r.Experience {
		body, err := md(e.Description)
		if err != nil {
			return profileView{}, nil, err
		}
		end := e.EndDate
		if e.Current {
			end = "Present"
		}
		entries = append(entries, entryView{
			Title:    join(" · ", e.Role, e.Company),
			Subtitle: e.Location,
			Meta:     dateRange(e.StartDate, end),
			Body:     body,
		})
	}
	add("experience", "Experience", entries)

	entries = nil
	for _, e := range r.Education {
		body, err := md(e.Description)
		if err != nil {
			return profileView{}, nil, err
		}
		entries = append(entries, entryView{
			Title:    e.School,
			Subtitle: join(", ", e.Degree, e.Field),
			Meta:     dateRange(e.StartDate, e.EndDate),
			Body:     body,
		})
	}
	add("education", "Education", entries)

	entries = nil
	for _, p := range r.Projects {
		body, err := md(p.Description)
		if err != nil {
			return profileView{}, nil, err
		}
		entries = append(entries, entryView{
			Title:    p.Name,
			Subtitle: join(" · ", p.Role, p.URL),
			Body:     body,
		})
	}
	add("projects", "Projects", entries)

	add("skills", "Skills", skillEntries(r.Skills))

	for _, custom := range r.CustomSections {
		entries = nil
		for _, item := range custom.Items {
			body, err := md(item.Description)
			if err != nil {
				return profileView{}, nil, err
			}
			entries = append(entries, entryView{
				Title:    item.Title,
				Subtitle: item.Subtitle,
				Meta:     item.Date,
				Body:     body,
			})
		}
		add("custom", sectionTitle(custom.Title), entries)
	}

	return profile, sections, nil
}

// skillEntries groups skills into one entry per group, in first seen order.
func skillEntries(skills []resume.Skill) []entryView {
	if len(skills) == 0 {
		return nil
	}
	var order []string
	groups := map[string][]string{}
	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		if level := strings.TrimSpace(s.Level); level != "" {
			name += " (" + level + ")"
		}
		group := strings.TrimSpace(s.Group)
		if _, ok := groups[group]; !ok {
			order = append(order, group)
		}
		groups[group] = append(groups[group], name)
	}

	entries := make([]entryView, 0, len(order))
	for _, group := range order {
		title := group
		if title == "" {
			title = "General"
		}
		entries = append(entries, entryView{Title: title, Subtitle: strings.Join(groups[group], ", ")})
	}
	return entries
}

// sectionTitle title-cases titles typed entirely in lower case.
func sectionTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Additional"
	}
	if title == strings.ToLower(title) {
		return cases.Title(language.English).String(title)
	}
	return title
}

func dateRange(start, end string) string {
	return join(" - ", start, end)
}

func join(sep string, parts ...string) string {
	return strings.Join(nonEmpty(parts...), sep)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
