package models

import "time"

// IssueKind classifies what sort of problem an issue describes.
type IssueKind string

const (
	IssueKindBug          IssueKind = "bug"
	IssueKindSecurity     IssueKind = "security"
	IssueKindPerformance  IssueKind = "performance"
	IssueKindStyle        IssueKind = "style"
	IssueKindBestPractice IssueKind = "best_practice"
)

// ParseIssueKind normalizes untrusted input to a known kind.
// Unknown values coerce to best_practice so they never feed a weighting
// lookup as arbitrary strings.
func ParseIssueKind(s string) IssueKind {
	switch IssueKind(s) {
	case IssueKindBug, IssueKindSecurity, IssueKindPerformance, IssueKindStyle, IssueKindBestPractice:
		return IssueKind(s)
	default:
		return IssueKindBestPractice
	}
}

// Severity is the impact level of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity normalizes untrusted input to a known severity,
// coercing unknown values to low.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	default:
		return SeverityLow
	}
}

// SeverityRank returns a numeric rank for ordering (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Issue is one detected code problem. Issues are created by the scanner or
// the LLM classifier during a single analysis call and are immutable after
// construction.
type Issue struct {
	ID         string    `json:"id,omitempty"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Kind       IssueKind `json:"issue_type"`
	Severity   Severity  `json:"severity"`
	Line       int       `json:"line_number"` // 0 = unknown
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion"`
	Snippet    string    `json:"code_snippet,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
