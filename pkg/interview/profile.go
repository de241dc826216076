package interview

import (
	"fmt"
	"strings"
)

// ResumeProfile is the structured output of the résumé extraction
// collaborator. It is immutable once produced; the orchestrator only reads it.
type ResumeProfile struct {
	Name            string   `json:"name"`
	Summary         string   `json:"summary"`
	Roles           []string `json:"roles"`
	Skills          []string `json:"skills"`
	Tools           []string `json:"tools"`
	Projects        []string `json:"projects"`
	Education       []string `json:"education"`
	Certifications  []string `json:"certifications"`
	Achievements    []string `json:"achievements"`
	Claims          []string `json:"claims"`
	ExperienceYears float64  `json:"experience_years"`
}

// RenderText flattens the profile into the plain-text block consumed by the
// reasoning gateway prompt.
func (p *ResumeProfile) RenderText() string {
	if p == nil {
		return "None provided"
	}
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = "Not provided"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Summary: %s\n", p.Summary)
	fmt.Fprintf(&b, "Roles: %s\n", strings.Join(p.Roles, ", "))
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	fmt.Fprintf(&b, "Tools: %s\n", strings.Join(p.Tools, ", "))
	fmt.Fprintf(&b, "Projects: %s\n", strings.Join(p.Projects, ", "))
	fmt.Fprintf(&b, "Education: %s\n", strings.Join(p.Education, ", "))
	fmt.Fprintf(&b, "Certifications: %s\n", strings.Join(p.Certifications, ", "))
	fmt.Fprintf(&b, "Achievements: %s\n", strings.Join(p.Achievements, ", "))
	fmt.Fprintf(&b, "Claims: %s\n", strings.Join(p.Claims, ", "))
	fmt.Fprintf(&b, "Experience years: %g", p.ExperienceYears)
	return b.String()
}

// TopicCategory labels a résumé topic with the list it came from.
type TopicCategory struct {
	Category string
	Topic    string
}

// Topics returns every non-empty skill, project, role and tool with its
// category label. These are the units of topic-coverage tracking.
func (p *ResumeProfile) Topics() []TopicCategory {
	if p == nil {
		return nil
	}
	var out []TopicCategory
	appendAll := func(category string, items []string) {
		for _, item := range items {
			if strings.TrimSpace(item) != "" {
				out = append(out, TopicCategory{Category: category, Topic: item})
			}
		}
	}
	appendAll("skills", p.Skills)
	appendAll("projects", p.Projects)
	appendAll("roles", p.Roles)
	appendAll("tools", p.Tools)
	return out
}
