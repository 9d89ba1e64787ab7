package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
)

// ResumeMatcher indexes attempt resumes into the vector store and answers
// "which other candidates look like this one" for recruiters.
type ResumeMatcher interface {
	IndexAttempt(ctx context.Context, sessionID uuid.UUID) error
	SimilarCandidates(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.SimilarCandidate, error)
}

type resumeMatcher struct {
	interviewRepo repositories.InterviewRepository
	resumeParser  ResumeParserService
	chunker       TextChunker
	embedder      Embedder
	index         ResumeIndex
}

func NewResumeMatcher(
	interviewRepo repositories.InterviewRepository,
	resumeParser ResumeParserService,
	embedder Embedder,
	index ResumeIndex,
) ResumeMatcher {
	return &resumeMatcher{
		interviewRepo: interviewRepo,
		resumeParser:  resumeParser,
		chunker:       NewTextChunker(),
		embedder:      embedder,
		index:         index,
	}
}

// IndexAttempt implements ResumeMatcher. Parses the attempt's stored resume,
// chunks it and upserts one point per chunk.
func (m *resumeMatcher) IndexAttempt(ctx context.Context, sessionID uuid.UUID) error {
	session, err := m.interviewRepo.FindSessionByID(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	if session.CandidateResumeFile == "" {
		return fmt.Errorf("attempt %s has no resume file", sessionID)
	}

	text, err := m.resumeParser.ExtractText(session.CandidateResumeFile)
	if err != nil {
		return fmt.Errorf("failed to extract resume text: %w", err)
	}

	chunks := m.chunker.ChunkText(CleanText(text), 1000, 100)
	for i, chunk := range chunks {
		embedding, err := m.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed resume chunk %d: %w", i, err)
		}
		if err := m.index.UpsertChunk(ctx, sessionID.String(), i, chunk, embedding); err != nil {
			return err
		}
	}

	log.Printf("📇 Indexed resume for attempt %s (%d chunks)\n", sessionID, len(chunks))
	return nil
}

// SimilarCandidates implements ResumeMatcher. Embeds the attempt's resume
// and returns the closest other attempts, deduplicated by session.
func (m *resumeMatcher) SimilarCandidates(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.SimilarCandidate, error) {
	session, err := m.interviewRepo.FindSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.CandidateResumeFile == "" {
		return nil, fmt.Errorf("attempt %s has no resume file", sessionID)
	}

	text, err := m.resumeParser.ExtractText(session.CandidateResumeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to extract resume text: %w", err)
	}

	embedding, err := m.embedder.GenerateEmbedding(ctx, CleanText(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed resume: %w", err)
	}

	// Over-fetch: several chunks may belong to the same session.
	matches, err := m.index.SearchSimilar(ctx, embedding, limit*4)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{sessionID.String(): true}
	var similar []models.SimilarCandidate
	for _, match := range matches {
		if seen[match.SessionID] {
			continue
		}
		seen[match.SessionID] = true

		matchID, err := uuid.Parse(match.SessionID)
		if err != nil {
			continue
		}
		other, err := m.interviewRepo.FindSessionByID(matchID)
		if err != nil {
			continue
		}

		similar = append(similar, models.SimilarCandidate{
			SessionID: other.ID,
			Name:      other.CandidateName,
			Email:     other.CandidateEmail,
			Score:     match.Score,
		})
		if len(similar) >= limit {
			break
		}
	}

	return similar, nil
}
