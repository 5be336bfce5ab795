package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adidev/chatbot/internal/domain"
)

// Profile holds structured resume data for deterministic answers to common
// questions, consulted before the retrieval pipeline.
type Profile struct {
	Personal struct {
		Name     string `json:"name"`
		Role     string `json:"role"`
		Location string `json:"location"`
		Summary  string `json:"summary"`
	} `json:"personal"`
	Contact struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"contact"`
	Education struct {
		Degree     string `json:"degree"`
		University string `json:"university"`
		Years      string `json:"years"`
	} `json:"education"`
	Skills struct {
		Technical []string `json:"technical"`
		Tools     []string `json:"tools"`
	} `json:"skills"`
	Projects []struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		Technologies []string `json:"technologies"`
	} `json:"projects"`
	Experience []struct {
		Role        string `json:"role"`
		Company     string `json:"company"`
		Period      string `json:"period"`
		Description string `json:"description"`
	} `json:"experience"`
	Certifications []string `json:"certifications"`
	Achievements   []string `json:"achievements"`

	source string
}

// LoadProfile reads structured resume data from a JSON file.
// A missing file is not an error; it returns (nil, nil) and disables the
// structured responder.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	p.source = path
	return &p, nil
}

// intent keyword groups, checked in order. Contact first: "how do I reach
// him" should not match the generic about-intent.
var intents = []struct {
	name     string
	keywords []string
}{
	{"contact", []string{"contact", "email", "phone", "reach", "address"}},
	{"projects", []string{"project", "portfolio", "built", "developed", "created", "application"}},
	{"education", []string{"education", "degree", "university", "college", "study", "academic"}},
	{"skills", []string{"skill", "technology", "technologies", "programming", "tech stack", "tool"}},
	{"experience", []string{"experience", "work", "job", "employment", "career"}},
	{"certifications", []string{"certification", "certified", "certificate", "credential"}},
	{"achievements", []string{"achievement", "award", "hackathon", "winner", "accomplishment"}},
	{"about", []string{"who", "about", "profile", "summary", "yourself"}},
}

// Answer tries to answer the message from structured data. The second return
// value reports whether an intent matched.
func (p *Profile) Answer(message string) (domain.Answer, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, intent := range intents {
		if !matchesAny(lower, intent.keywords) {
			continue
		}
		text := p.format(intent.name)
		if text == "" {
			return domain.Answer{}, false
		}
		return domain.Answer{Text: text, Sources: []string{p.source}}, true
	}

	return domain.Answer{}, false
}

func matchesAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

func (p *Profile) format(intent string) string {
	switch intent {
	case "contact":
		return p.formatContact()
	case "projects":
		return p.formatProjects()
	case "education":
		return p.formatEducation()
	case "skills":
		return p.formatSkills()
	case "experience":
		return p.formatExperience()
	case "certifications":
		return formatBullets("Certifications:", p.Certifications)
	case "achievements":
		return formatBullets("Achievements:", p.Achievements)
	case "about":
		return p.formatAbout()
	}
	return ""
}

func (p *Profile) formatAbout() string {
	if p.Personal.Name == "" {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi! I'm %s", p.Personal.Name)
	if p.Personal.Role != "" {
		fmt.Fprintf(&sb, ", a %s", p.Personal.Role)
	}
	if p.Personal.Location != "" {
		fmt.Fprintf(&sb, " based in %s", p.Personal.Location)
	}
	sb.WriteString(".")
	if p.Personal.Summary != "" {
		sb.WriteString(" ")
		sb.WriteString(p.Personal.Summary)
	}
	return sb.String()
}

func (p *Profile) formatContact() string {
	if p.Contact.Email == "" && p.Contact.Phone == "" {
		return ""
	}
	var sb strings.Builder
	name := p.Personal.Name
	if name == "" {
		name = "me"
	}
	fmt.Fprintf(&sb, "You can reach %s here:\n", name)
	if p.Contact.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", p.Contact.Email)
	}
	if p.Contact.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", p.Contact.Phone)
	}
	if p.Personal.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", p.Personal.Location)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (p *Profile) formatEducation() string {
	if p.Education.Degree == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Education:\n")
	fmt.Fprintf(&sb, "Degree: %s\n", p.Education.Degree)
	if p.Education.University != "" {
		fmt.Fprintf(&sb, "University: %s\n", p.Education.University)
	}
	if p.Education.Years != "" {
		fmt.Fprintf(&sb, "Duration: %s\n", p.Education.Years)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (p *Profile) formatSkills() string {
	if len(p.Skills.Technical) == 0 && len(p.Skills.Tools) == 0 {
		return ""
	}
	var parts []string
	if len(p.Skills.Technical) > 0 {
		parts = append(parts, "Technical skills: "+strings.Join(p.Skills.Technical, ", "))
	}
	if len(p.Skills.Tools) > 0 {
		parts = append(parts, "Tools and platforms: "+strings.Join(p.Skills.Tools, ", "))
	}
	return strings.Join(parts, "\n")
}

func (p *Profile) formatProjects() string {
	if len(p.Projects) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Projects:\n")
	for _, proj := range p.Projects {
		fmt.Fprintf(&sb, "- %s: %s", proj.Name, proj.Description)
		if len(proj.Technologies) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(proj.Technologies, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (p *Profile) formatExperience() string {
	if len(p.Experience) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Experience:\n")
	for _, e := range p.Experience {
		fmt.Fprintf(&sb, "- %s at %s (%s): %s\n", e.Role, e.Company, e.Period, e.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatBullets(header string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(header)
	for _, item := range items {
		sb.WriteString("\n- ")
		sb.WriteString(item)
	}
	return sb.String()
}
