package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurahq/aura/internal/models"
)

func TestClassify_SecurityBucket(t *testing.T) {
	issues := Classify("This code has a security vulnerability.", "x = 1")

	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueKindSecurity, issues[0].Kind)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)
	assert.Equal(t, "AI detected security vulnerability", issues[0].Message)
	assert.Equal(t, 1, issues[0].Line)
}

func TestClassify_SecurityLineFromCode(t *testing.T) {
	code := "x = 1\ny = 2\napi_key = \"sk-abc\"\n"
	issues := Classify("Hardcoded credentials are a vulnerability.", code)

	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Line)
}

func TestClassify_OnePerBucket(t *testing.T) {
	// Multiple keywords from one bucket still yield a single issue.
	issues := Classify("bug, error, incorrect, wrong", "x = 1")

	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueKindBug, issues[0].Kind)
	assert.Equal(t, models.SeverityMedium, issues[0].Severity)
}

func TestClassify_AllBuckets(t *testing.T) {
	response := "There is a security bug. It is slow. Consider a refactor."
	issues := Classify(response, "x = 1")

	require.Len(t, issues, 4)
	assert.Equal(t, models.IssueKindSecurity, issues[0].Kind)
	assert.Equal(t, models.IssueKindBug, issues[1].Kind)
	assert.Equal(t, models.IssueKindPerformance, issues[2].Kind)
	assert.Equal(t, models.IssueKindBestPractice, issues[3].Kind)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	issues := Classify("SECURITY VULNERABILITY FOUND", "x = 1")
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueKindSecurity, issues[0].Kind)
}

func TestClassify_NoMatch(t *testing.T) {
	issues := Classify("The code is fine.", "x = 1")
	assert.Empty(t, issues)
}

func TestClassify_SuggestionTruncated(t *testing.T) {
	response := "bug " + strings.Repeat("a", 400)
	issues := Classify(response, "x = 1")

	require.Len(t, issues, 1)
	assert.Len(t, issues[0].Suggestion, maxSuggestionLen)
	assert.Equal(t, response[:maxSuggestionLen], issues[0].Suggestion)
}

func TestClassify_TruncationKeepsRuneBoundary(t *testing.T) {
	// "bug" is 3 bytes, so every following 2-byte rune starts at an odd
	// offset and byte 300 lands mid-rune.
	response := "bug" + strings.Repeat("é", 200)
	issues := Classify(response, "x = 1")

	require.Len(t, issues, 1)
	assert.True(t, utf8.ValidString(issues[0].Suggestion))
	assert.Len(t, issues[0].Suggestion, maxSuggestionLen-1)
}

func TestSecretLine(t *testing.T) {
	assert.Equal(t, 1, secretLine("no secrets here at all"))
	assert.Equal(t, 2, secretLine("x = 1\nPASSWORD = 'x'\ntoken = 'y'"))
	assert.Equal(t, 1, secretLine("token = 'y'\napi_key = 'z'"))
}

func TestHeuristicIssues_LongCode(t *testing.T) {
	code := strings.Repeat("x = 1\n", 100)
	issues := HeuristicIssues(code, "python")

	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueKindBestPractice, issues[0].Kind)
	assert.Equal(t, "Consider breaking this into smaller functions", issues[0].Message)
}

func TestHeuristicIssues_TodoComment(t *testing.T) {
	issues := HeuristicIssues("# TODO: fix later\nx = 1\n", "python")

	require.Len(t, issues, 1)
	assert.Equal(t, "TODO/FIXME comments found", issues[0].Message)
}

func TestHeuristicIssues_Clean(t *testing.T) {
	assert.Empty(t, HeuristicIssues("x = 1\n", "python"))
}
