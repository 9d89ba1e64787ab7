package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// ResumeIndex stores resume chunk embeddings for similarity lookups across
// candidate attempts.
type ResumeIndex interface {
	InitCollection() error
	UpsertChunk(ctx context.Context, sessionID string, chunkIndex int, text string, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]ResumeMatch, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type ResumeMatch struct {
	SessionID string
	Score     float32
	Text      string
}

type resumeIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewResumeIndex(urlStr, apiKey, collectionName string) (ResumeIndex, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port is 6334 by default
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &resumeIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // embedding size of text-embedding-004
	}, nil
}

// InitCollection implements ResumeIndex.
func (q *resumeIndex) InitCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Resume collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// chunkPointID derives a stable point ID from the session and chunk index
// so re-indexing after a partial failure overwrites instead of duplicating.
func chunkPointID(sessionID string, chunkIndex int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", sessionID, chunkIndex)))
}

// UpsertChunk implements ResumeIndex.
func (q *resumeIndex) UpsertChunk(ctx context.Context, sessionID string, chunkIndex int, text string, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(chunkPointID(sessionID, chunkIndex).String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"session_id": sessionID,
			"chunk":      chunkIndex,
			"text":       text,
			"doc_type":   "resume",
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert resume chunk: %w", err)
	}

	return nil
}

// SearchSimilar implements ResumeIndex.
func (q *resumeIndex) SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]ResumeMatch, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("doc_type", "resume"),
		},
	}

	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search resumes: %w", err)
	}

	var matches []ResumeMatch
	for _, point := range searchResult {
		payload := point.Payload

		match := ResumeMatch{Score: point.Score}

		if sid, ok := payload["session_id"]; ok {
			if val, ok := sid.GetKind().(*qdrant.Value_StringValue); ok {
				match.SessionID = val.StringValue
			}
		}
		if text, ok := payload["text"]; ok {
			if val, ok := text.GetKind().(*qdrant.Value_StringValue); ok {
				match.Text = val.StringValue
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// DeleteSession implements ResumeIndex.
func (q *resumeIndex) DeleteSession(ctx context.Context, sessionID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("session_id", sessionID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete resume points: %w", err)
	}

	return nil
}
