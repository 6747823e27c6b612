package models

import "time"

// Analysis is a persisted code-analysis run.
type Analysis struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id,omitempty"`
	FilePath     string    `json:"file_path"`
	Language     string    `json:"language"`
	CodeContent  string    `json:"-"`
	QualityScore float64   `json:"quality_score"`
	IssuesFound  int       `json:"issues_found"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AnalysisResult is the in-memory outcome of one analyzer call, before
// persistence.
type AnalysisResult struct {
	Issues           []Issue        `json:"issues"`
	QualityScore     float64        `json:"quality_score"`
	TotalIssues      int            `json:"total_issues"`
	IssuesByType     map[string]int `json:"issues_by_type"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
}
