package services

import (
	"fmt"
	"strings"

	"recruitmate/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSkillExtractionPrompt creates the prompt for job-description skill
// extraction.
func (pb *PromptBuilder) BuildSkillExtractionPrompt(text string) string {
	return fmt.Sprintf(`Extract key technical and soft skills from the following text.

Text:
%s

Return STRICT JSON ONLY (no markdown, no extra text):
{"skills": ["skill1", "skill2", "skill3"]}`, text)
}

// BuildQuestionGenerationPrompt creates the prompt for interview question
// generation.
func (pb *PromptBuilder) BuildQuestionGenerationPrompt(jobContext, candidateContext string, count int) string {
	return fmt.Sprintf(`You are an expert interviewer. Generate exactly %d interview questions based on the job description and candidate resume.

Return ONLY a JSON array of objects (no markdown):
[{"question": "...", "type": "technical|behavioral|situational", "difficulty": "easy|medium|hard", "expected_key_points": ["..."]}]

Job Description:
%s

Candidate Resume:
%s`, count, jobContext, candidateContext)
}

// BuildAnswerEvaluationPrompt creates the prompt for scoring a single answer.
func (pb *PromptBuilder) BuildAnswerEvaluationPrompt(question, answer string, expectedKeyPoints []string) string {
	keyPoints := "General evaluation"
	if len(expectedKeyPoints) > 0 {
		keyPoints = strings.Join(expectedKeyPoints, ", ")
	}

	return fmt.Sprintf(`Evaluate this interview answer and return ONLY a JSON object (no markdown):

{"score": 0-100, "feedback": "", "strengths": [], "improvements": []}

Question: %s
Expected Key Points: %s
Candidate Answer: %s`, question, keyPoints, answer)
}

// BuildReportPrompt creates the prompt for the final interview report.
func (pb *PromptBuilder) BuildReportPrompt(input ReportInput) string {
	var scores strings.Builder
	for _, a := range input.Answers {
		fmt.Fprintf(&scores, "Q: %s | Score: %d\n", a.Question, a.Score)
	}

	return fmt.Sprintf(`Generate a final interview report and return ONLY a JSON object (no markdown):

{"overall_score": 0-100, "summary": "", "strengths": [], "weaknesses": [], "recommendation": "hire|maybe|no", "detailed_feedback": ""}

Candidate: %s
Position: %s
Total Questions: %d
Average Score: %.1f
Question Scores:
%s`, input.CandidateName, input.Position, input.TotalQuestions, input.AverageScore, scores.String())
}

// BuildJobContext assembles the job side of the question generation prompt,
// including the difficulty instruction for the chosen policy.
func (pb *PromptBuilder) BuildJobContext(job *models.JobPosting, difficulty models.Difficulty) string {
	return fmt.Sprintf(`Job Title: %s

Job Description:
%s

Requirements:
%s

Difficulty Level: %s`, job.Title, job.Description, job.Requirements, DifficultyInstruction(difficulty))
}

// DifficultyInstruction maps a difficulty policy to its prompt instruction.
func DifficultyInstruction(difficulty models.Difficulty) string {
	switch difficulty {
	case models.DifficultyEasy:
		return "Generate EASY level questions suitable for entry-level candidates."
	case models.DifficultyMedium:
		return "Generate MEDIUM level questions suitable for intermediate candidates."
	case models.DifficultyHard:
		return "Generate HARD level questions suitable for advanced candidates."
	default:
		return "Generate a MIX of easy, medium, and hard questions."
	}
}

// BuildCandidateContext assembles the resume side of the question
// generation prompt from a linked candidate, or a generic placeholder when
// the link is anonymous.
func (pb *PromptBuilder) BuildCandidateContext(candidate *models.Candidate, resumeText string) string {
	if candidate == nil {
		return "General candidate profile - will be filled when candidate registers"
	}

	phone := candidate.Phone
	if phone == "" {
		phone = "Not provided"
	}
	experience := "Not specified"
	if candidate.ExperienceYears != nil {
		experience = fmt.Sprintf("%d", *candidate.ExperienceYears)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", candidate.Name)
	fmt.Fprintf(&b, "Email: %s\n", candidate.Email)
	fmt.Fprintf(&b, "Phone: %s\n", phone)
	fmt.Fprintf(&b, "Experience: %s years\n", experience)
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(candidate.Skills, ", "))
	if resumeText != "" {
		fmt.Fprintf(&b, "\nResume Content:\n%s\n", resumeText)
	}
	return b.String()
}
