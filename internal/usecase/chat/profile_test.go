package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleProfile = `{
  "personal": {
    "name": "Aditya",
    "role": "Software Engineer",
    "location": "Bangalore",
    "summary": "I build backend systems."
  },
  "contact": {
    "email": "adi@example.com",
    "phone": "+91-0000000000"
  },
  "education": {
    "degree": "B.Tech in Computer Science",
    "university": "Example University",
    "years": "2019-2023"
  },
  "skills": {
    "technical": ["Go", "Python"],
    "tools": ["Docker", "Git"]
  },
  "projects": [
    {
      "name": "Portfolio Chatbot",
      "description": "RAG chatbot over resume documents",
      "technologies": ["FAISS", "OpenAI"]
    }
  ],
  "experience": [
    {
      "role": "Backend Intern",
      "company": "Acme",
      "period": "2023",
      "description": "Built APIs"
    }
  ],
  "certifications": ["AWS Cloud Practitioner"],
  "achievements": ["Hackathon winner"]
}`

func loadSampleProfile(t *testing.T) *Profile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(sampleProfile), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p == nil {
		t.Fatal("LoadProfile returned nil for existing file")
	}
	return p
}

func TestLoadProfile_MissingFileDisablesResponder(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p != nil {
		t.Errorf("got %+v, want nil profile", p)
	}
}

func TestLoadProfile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAnswer_IntentMatching(t *testing.T) {
	p := loadSampleProfile(t)

	tests := []struct {
		message string
		want    string
	}{
		{"What is your email?", "adi@example.com"},
		{"How do I reach him?", "adi@example.com"},
		{"Tell me about your projects", "Portfolio Chatbot"},
		{"What have you built?", "Portfolio Chatbot"},
		{"Where did you study?", "Example University"},
		{"What technologies do you know?", "Go, Python"},
		{"Tell me about your work experience", "Backend Intern"},
		{"Any certifications?", "AWS Cloud Practitioner"},
		{"Did you win any hackathon?", "Hackathon winner"},
		{"Who are you?", "Aditya"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			ans, ok := p.Answer(tt.message)
			if !ok {
				t.Fatalf("no intent matched %q", tt.message)
			}
			if !strings.Contains(ans.Text, tt.want) {
				t.Errorf("answer = %q, want it to contain %q", ans.Text, tt.want)
			}
			if len(ans.Sources) != 1 {
				t.Errorf("sources = %v, want the profile file", ans.Sources)
			}
		})
	}
}

func TestAnswer_NoMatchFallsThrough(t *testing.T) {
	p := loadSampleProfile(t)

	for _, message := range []string{
		"What is the weather today?",
		"Explain quantum computing",
	} {
		if ans, ok := p.Answer(message); ok {
			t.Errorf("Answer(%q) matched unexpectedly: %q", message, ans.Text)
		}
	}
}

func TestAnswer_EmptySectionFallsThrough(t *testing.T) {
	p := &Profile{source: "profile.json"}

	if ans, ok := p.Answer("What certifications do you have?"); ok {
		t.Errorf("empty profile answered: %q", ans.Text)
	}
}
