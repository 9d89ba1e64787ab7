package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextFindsSkills(t *testing.T) {
	parser := NewResumeParserService()

	profile := parser.ParseText(`
		Senior backend developer working with Golang, PostgreSQL and Docker.
		Previously shipped React frontends.
	`)

	// "PostgreSQL" also satisfies the bare "SQL" keyword.
	assert.ElementsMatch(t, []string{"React", "Docker", "Golang", "PostgreSQL", "SQL"}, profile.Skills)
}

func TestParseTextPicksLargestExperience(t *testing.T) {
	parser := NewResumeParserService()

	profile := parser.ParseText("2 years at Acme, then 7 years leading infrastructure, 1 year consulting.")
	require.NotNil(t, profile.ExperienceYears)
	assert.Equal(t, 7, *profile.ExperienceYears)
}

func TestParseTextNoExperienceMention(t *testing.T) {
	parser := NewResumeParserService()

	profile := parser.ParseText("Fresh graduate, eager to learn.")
	assert.Nil(t, profile.ExperienceYears)
}

func TestParseTextEducation(t *testing.T) {
	parser := NewResumeParserService()

	profile := parser.ParseText("Holds a Bachelor of Science and an MBA.")
	assert.Equal(t, "Bachelor, MBA", profile.Education)
}

func TestCleanTextDropsBlankLines(t *testing.T) {
	cleaned := CleanText("  first line  \n\n\n   second line\n  \n")
	assert.Equal(t, "first line\nsecond line", cleaned)
}
