package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChunkPointIDIsStableAcrossRetries(t *testing.T) {
	sessionID := uuid.New().String()

	first := chunkPointID(sessionID, 0)
	second := chunkPointID(sessionID, 0)
	assert.Equal(t, first, second)
}

func TestChunkPointIDDistinguishesChunksAndSessions(t *testing.T) {
	sessionID := uuid.New().String()

	assert.NotEqual(t, chunkPointID(sessionID, 0), chunkPointID(sessionID, 1))
	assert.NotEqual(t, chunkPointID(sessionID, 0), chunkPointID(uuid.New().String(), 0))
}
