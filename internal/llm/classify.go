package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/aurahq/aura/internal/models"
)

// maxSuggestionLen caps how much raw model text is carried into a
// suggestion.
const maxSuggestionLen = 300

// bucket maps a topical keyword list to the issue it produces when any
// keyword appears in the model output.
type bucket struct {
	keywords []string
	kind     models.IssueKind
	severity models.Severity
	message  string
}

// Buckets are checked in a fixed order; at most one issue per bucket per
// call. This is substring matching, not NLP: a response discussing how the
// code avoids security problems still trips the security bucket, and an
// issue phrased without any listed keyword is missed entirely.
var buckets = []bucket{
	{
		keywords: []string{"security", "vulnerability", "vulnerable", "insecure", "hardcoded", "secret", "password", "api key"},
		kind:     models.IssueKindSecurity,
		severity: models.SeverityHigh,
		message:  "AI detected security vulnerability",
	},
	{
		keywords: []string{"bug", "error", "incorrect", "wrong", "issue", "problem"},
		kind:     models.IssueKindBug,
		severity: models.SeverityMedium,
		message:  "AI detected potential bug",
	},
	{
		keywords: []string{"performance", "slow", "inefficient", "optimization", "bottleneck"},
		kind:     models.IssueKindPerformance,
		severity: models.SeverityMedium,
		message:  "AI detected performance concern",
	},
	{
		keywords: []string{"best practice", "improvement", "refactor", "better", "consider"},
		kind:     models.IssueKindBestPractice,
		severity: models.SeverityLow,
		message:  "AI suggests code improvement",
	},
}

// secretIdentifiers are identifier fragments used to locate the line a
// security finding most likely refers to.
var secretIdentifiers = []string{"password", "secret", "api_key", "apikey", "token"}

// Classify converts free-text model output into zero to four coarse issues,
// one per matched bucket. Line numbers default to 1; the security bucket
// scans the original code for secret-like identifiers and uses the first
// matching line.
func Classify(response, code string) []models.Issue {
	lower := strings.ToLower(response)
	suggestion := truncate(response, maxSuggestionLen)

	var issues []models.Issue
	for _, b := range buckets {
		if !containsAny(lower, b.keywords) {
			continue
		}
		line := 1
		if b.kind == models.IssueKindSecurity {
			line = secretLine(code)
		}
		issues = append(issues, models.Issue{
			Kind:       b.kind,
			Severity:   b.severity,
			Line:       line,
			Message:    b.message,
			Suggestion: suggestion,
		})
	}
	return issues
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune,
// backing up to the previous rune boundary if n lands inside one.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// secretLine returns the 1-based line of the first secret-like identifier in
// code, or 1 if none is found.
func secretLine(code string) int {
	for i, line := range strings.Split(code, "\n") {
		lower := strings.ToLower(line)
		if containsAny(lower, secretIdentifiers) {
			return i + 1
		}
	}
	return 1
}

// HeuristicIssues is the local fallback used when every provider fails or
// the classifier matches nothing. It may return an empty slice but never an
// error.
func HeuristicIssues(code, language string) []models.Issue {
	var issues []models.Issue

	if len(code) > 500 {
		issues = append(issues, models.Issue{
			Kind:       models.IssueKindBestPractice,
			Severity:   models.SeverityLow,
			Line:       1,
			Message:    "Consider breaking this into smaller functions",
			Suggestion: "Functions should ideally be under 50 lines for better maintainability",
		})
	}

	if strings.Contains(code, "TODO") || strings.Contains(code, "FIXME") {
		issues = append(issues, models.Issue{
			Kind:       models.IssueKindBestPractice,
			Severity:   models.SeverityLow,
			Line:       1,
			Message:    "TODO/FIXME comments found",
			Suggestion: "Address pending tasks or remove outdated comments",
		})
	}

	return issues
}
