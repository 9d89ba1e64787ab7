package services

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ResumeProfile holds the coarse signals extracted from a resume: skill
// keyword hits, a years-of-experience guess and education keyword hits.
type ResumeProfile struct {
	Skills          []string
	ExperienceYears *int
	Education       string
}

type ResumeParserService interface {
	ExtractText(filePath string) (string, error)
	Parse(filePath string) (*ResumeProfile, error)
	ParseText(text string) *ResumeProfile
}

var skillKeywords = []string{
	"Python", "Django", "Flask", "JavaScript", "React", "Node.js", "MongoDB",
	"SQL", "Flutter", "Unity", "C++", "Java", "Git", "Docker", "AWS",
	"Golang", "Kubernetes", "PostgreSQL", "Redis", "TypeScript",
}

var educationKeywords = []string{
	"Bachelor", "Master", "B.Tech", "B.E", "M.Tech", "MBA", "PhD", "Diploma",
}

// Matches "<N> years" and friends; the largest N wins.
var experienceRegex = regexp.MustCompile(`(\d+)\s+(?:years|yrs|year)`)

type resumeParserService struct{}

func NewResumeParserService() ResumeParserService {
	return &resumeParserService{}
}

// ExtractText implements ResumeParserService.
func (p *resumeParserService) ExtractText(filePath string) (string, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", filePath)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep the rest.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}

// Parse implements ResumeParserService.
func (p *resumeParserService) Parse(filePath string) (*ResumeProfile, error) {
	text, err := p.ExtractText(filePath)
	if err != nil {
		return nil, err
	}
	return p.ParseText(text), nil
}

// ParseText implements ResumeParserService. Pure keyword/regex matching
// against the fixed vocabulary.
func (p *resumeParserService) ParseText(text string) *ResumeProfile {
	lower := strings.ToLower(text)

	var skills []string
	for _, skill := range skillKeywords {
		if strings.Contains(lower, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}

	var experienceYears *int
	for _, match := range experienceRegex.FindAllStringSubmatch(lower, -1) {
		years, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if experienceYears == nil || years > *experienceYears {
			experienceYears = &years
		}
	}

	var education []string
	for _, keyword := range educationKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			education = append(education, keyword)
		}
	}

	return &ResumeProfile{
		Skills:          skills,
		ExperienceYears: experienceYears,
		Education:       strings.Join(education, ", "),
	}
}

// CleanText normalizes extracted resume text: trims lines and drops blank
// ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
