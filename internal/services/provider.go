package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// TextGenerator is the low-level capability the two AI vendors implement.
// Implementations return raw model text and may fail; the Provider built on
// top of them never does.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder produces a vector for a piece of text. Both vendor clients
// implement it for the resume similarity index.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeneratedQuestion struct {
	Question          string   `json:"question"`
	Type              string   `json:"type"`
	Difficulty        string   `json:"difficulty"`
	ExpectedKeyPoints []string `json:"expected_key_points"`
}

type AnswerEvaluation struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type AnswerRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type ReportInput struct {
	CandidateName  string
	Position       string
	TotalQuestions int
	AverageScore   float64
	Answers        []AnswerRecord
}

type InterviewReport struct {
	OverallScore     int      `json:"overall_score"`
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Recommendation   string   `json:"recommendation"`
	DetailedFeedback string   `json:"detailed_feedback"`
}

// QuestionProvider is the AI capability behind the interview flow. Every
// method degrades to a deterministic fallback on any vendor failure; none
// of them ever propagates an error to the caller.
type QuestionProvider interface {
	ExtractSkills(ctx context.Context, text string) []string
	GenerateQuestions(ctx context.Context, jobContext, candidateContext string, count int) []GeneratedQuestion
	EvaluateAnswer(ctx context.Context, question, answer string, expectedKeyPoints []string) AnswerEvaluation
	GenerateReport(ctx context.Context, input ReportInput) InterviewReport
}

type questionProvider struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	timeout       time.Duration
	maxRetries    int
}

func NewQuestionProvider(generator TextGenerator, timeout time.Duration, maxRetries int) QuestionProvider {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &questionProvider{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		timeout:       timeout,
		maxRetries:    maxRetries,
	}
}

// generate runs one prompt with a per-call timeout, retrying up to maxRetries.
func (p *questionProvider) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		result, err := p.generator.GenerateText(callCtx, prompt, temperature)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < p.maxRetries {
			log.Printf("⚠️ AI attempt %d failed: %v. Retrying...\n", attempt, err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", p.maxRetries, lastErr)
}

// ExtractSkills implements QuestionProvider.
func (p *questionProvider) ExtractSkills(ctx context.Context, text string) []string {
	prompt := p.promptBuilder.BuildSkillExtractionPrompt(text)

	response, err := p.generate(ctx, prompt, 0.2)
	if err != nil {
		log.Printf("⚠️ Skill extraction failed: %v\n", err)
		return []string{}
	}

	var payload struct {
		Skills []string `json:"skills"`
	}
	if err := parseJSONResponse(response, &payload); err != nil {
		// Some models return a bare array instead of the wrapped object.
		var skills []string
		if err := parseJSONResponse(response, &skills); err == nil {
			return skills
		}
		log.Printf("⚠️ Failed to parse skill extraction response: %v\n", err)
		return []string{}
	}
	if payload.Skills == nil {
		return []string{}
	}
	return payload.Skills
}

// GenerateQuestions implements QuestionProvider.
func (p *questionProvider) GenerateQuestions(ctx context.Context, jobContext, candidateContext string, count int) []GeneratedQuestion {
	if count <= 0 {
		return nil
	}

	prompt := p.promptBuilder.BuildQuestionGenerationPrompt(jobContext, candidateContext, count)

	response, err := p.generate(ctx, prompt, 0.7)
	if err != nil {
		log.Printf("⚠️ Question generation failed: %v\n", err)
		return FallbackQuestions(count)
	}

	var questions []GeneratedQuestion
	if err := parseJSONResponse(response, &questions); err != nil || len(questions) == 0 {
		log.Printf("⚠️ Failed to parse question generation response: %v\n", err)
		return FallbackQuestions(count)
	}

	if len(questions) > count {
		questions = questions[:count]
	}
	for len(questions) < count {
		questions = append(questions, fallbackQuestions[len(questions)%len(fallbackQuestions)])
	}
	return questions
}

// EvaluateAnswer implements QuestionProvider.
func (p *questionProvider) EvaluateAnswer(ctx context.Context, question, answer string, expectedKeyPoints []string) AnswerEvaluation {
	prompt := p.promptBuilder.BuildAnswerEvaluationPrompt(question, answer, expectedKeyPoints)

	response, err := p.generate(ctx, prompt, 0.3)
	if err != nil {
		log.Printf("⚠️ Answer evaluation failed: %v\n", err)
		return fallbackEvaluation()
	}

	var evaluation AnswerEvaluation
	if err := parseJSONResponse(response, &evaluation); err != nil {
		log.Printf("⚠️ Failed to parse answer evaluation response: %v\n", err)
		return fallbackEvaluation()
	}

	evaluation.Score = ClampScore(evaluation.Score)
	return evaluation
}

// GenerateReport implements QuestionProvider.
func (p *questionProvider) GenerateReport(ctx context.Context, input ReportInput) InterviewReport {
	prompt := p.promptBuilder.BuildReportPrompt(input)

	response, err := p.generate(ctx, prompt, 0.5)
	if err != nil {
		log.Printf("⚠️ Report generation failed: %v\n", err)
		return fallbackReport(input.AverageScore)
	}

	var parsed struct {
		OverallScore     *int     `json:"overall_score"`
		Summary          string   `json:"summary"`
		Strengths        []string `json:"strengths"`
		Weaknesses       []string `json:"weaknesses"`
		Recommendation   string   `json:"recommendation"`
		DetailedFeedback string   `json:"detailed_feedback"`
	}
	if err := parseJSONResponse(response, &parsed); err != nil {
		log.Printf("⚠️ Failed to parse report response: %v\n", err)
		return fallbackReport(input.AverageScore)
	}

	report := InterviewReport{
		Summary:          parsed.Summary,
		Strengths:        parsed.Strengths,
		Weaknesses:       parsed.Weaknesses,
		Recommendation:   parsed.Recommendation,
		DetailedFeedback: parsed.DetailedFeedback,
	}
	if parsed.OverallScore != nil {
		report.OverallScore = *parsed.OverallScore
	} else {
		// Absent overall_score falls back to the provisional average.
		report.OverallScore = int(input.AverageScore + 0.5)
	}
	report.OverallScore = ClampScore(report.OverallScore)
	report.Recommendation = normalizeRecommendation(report.Recommendation)
	return report
}

// ClampScore forces a score into [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeRecommendation(rec string) string {
	switch strings.ToLower(strings.TrimSpace(rec)) {
	case "hire", "strong hire":
		return "hire"
	case "no", "reject", "no hire":
		return "no"
	default:
		return "maybe"
	}
}

var fallbackQuestions = []GeneratedQuestion{
	{
		Question:          "Tell me about yourself and your experience.",
		Type:              "behavioral",
		Difficulty:        "easy",
		ExpectedKeyPoints: []string{"Background", "Experience", "Skills"},
	},
	{
		Question:          "What are your key technical skills?",
		Type:              "technical",
		Difficulty:        "easy",
		ExpectedKeyPoints: []string{"Languages", "Frameworks", "Tools"},
	},
	{
		Question:          "Describe a challenging project you worked on.",
		Type:              "behavioral",
		Difficulty:        "medium",
		ExpectedKeyPoints: []string{"Challenge", "Action", "Result"},
	},
	{
		Question:          "How do you handle tight deadlines?",
		Type:              "situational",
		Difficulty:        "medium",
		ExpectedKeyPoints: []string{"Prioritization", "Communication", "Planning"},
	},
	{
		Question:          "Where do you see yourself growing in this role?",
		Type:              "behavioral",
		Difficulty:        "medium",
		ExpectedKeyPoints: []string{"Goals", "Motivation", "Fit"},
	},
}

// FallbackQuestions returns the canonical built-in question set, cycled to
// the requested size.
func FallbackQuestions(count int) []GeneratedQuestion {
	if count <= 0 {
		return nil
	}
	questions := make([]GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, fallbackQuestions[i%len(fallbackQuestions)])
	}
	return questions
}

func fallbackEvaluation() AnswerEvaluation {
	return AnswerEvaluation{
		Score:        50,
		Feedback:     "Evaluation was not available. The answer has been recorded.",
		Strengths:    []string{},
		Improvements: []string{},
	}
}

func fallbackReport(averageScore float64) InterviewReport {
	return InterviewReport{
		OverallScore:     ClampScore(int(averageScore + 0.5)),
		Summary:          "Report generation was not available. Manual review recommended.",
		Strengths:        []string{},
		Weaknesses:       []string{},
		Recommendation:   "maybe",
		DetailedFeedback: "Manual review recommended.",
	}
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// extractJSON tries to extract JSON from text that might contain markdown or
// other formatting.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	// An array that starts before any object wins; models return both shapes.
	if startArr != -1 && endArr != -1 && endArr > startArr && (startObj == -1 || startArr < startObj) {
		return text[startArr : endArr+1]
	}
	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return text
}
