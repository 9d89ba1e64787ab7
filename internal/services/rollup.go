package services

import (
	"sort"
	"strings"

	"recruitmate/internal/models"
)

// ComputeTypeScores partitions a session's answer scores by question type
// and averages each partition. Situational questions count as behavioral on
// the read side. A partition with no answers stays nil rather than zero.
func ComputeTypeScores(questions []models.InterviewQuestion, answers []models.InterviewAnswer) models.TypeScores {
	byQuestion := make(map[string]models.QuestionType, len(questions))
	for _, q := range questions {
		byQuestion[q.ID.String()] = q.QuestionType
	}

	var techSum, techCount, behavSum, behavCount int
	for _, a := range answers {
		switch byQuestion[a.QuestionID.String()] {
		case models.QuestionTechnical:
			techSum += a.Score
			techCount++
		case models.QuestionBehavioral, models.QuestionSituational:
			behavSum += a.Score
			behavCount++
		}
	}

	var scores models.TypeScores
	if techCount > 0 {
		avg := techSum / techCount
		scores.Technical = &avg
	}
	if behavCount > 0 {
		avg := behavSum / behavCount
		scores.Behavioral = &avg
	}
	return scores
}

// RollupCandidates groups candidate attempts by normalized email into one
// summary per person. Sessions must arrive newest-first; the first session
// seen for an email supplies the display name, phone and latest status.
func RollupCandidates(sessions []models.InterviewSession) []models.CandidateSummary {
	index := make(map[string]int)
	var summaries []models.CandidateSummary

	for i := range sessions {
		s := &sessions[i]
		email := strings.ToLower(strings.TrimSpace(s.CandidateEmail))
		if email == "" {
			continue
		}

		pos, seen := index[email]
		if !seen {
			pos = len(summaries)
			index[email] = pos
			summaries = append(summaries, models.CandidateSummary{
				Name:         s.CandidateName,
				Email:        email,
				Phone:        s.CandidatePhone,
				LatestStatus: s.Status,
			})
		}

		summary := &summaries[pos]
		summary.TotalInterviews++
		if s.Status == models.StatusCompleted {
			summary.CompletedInterviews++
			if s.Result != nil {
				if summary.BestScore == nil || s.Result.OverallScore > *summary.BestScore {
					score := s.Result.OverallScore
					summary.BestScore = &score
				}
			}
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return strings.ToLower(summaries[i].Name) < strings.ToLower(summaries[j].Name)
	})
	return summaries
}
