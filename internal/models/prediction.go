package models

import "time"

// RiskLevel buckets a risk score into a discrete level.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskFactors holds the five normalized [0,1] signals that feed the
// regression risk score. Every field is always populated (defaults are
// substituted when source data is absent) so the weighted sum is
// well-defined.
type RiskFactors struct {
	RecentChanges float64 `json:"recent_changes"`
	SimilarIssues float64 `json:"similar_issues"`
	Complexity    float64 `json:"complexity"`
	TestCoverage  float64 `json:"test_coverage"`
	Dependencies  float64 `json:"dependencies"`
}

// PredictedIssue is a coarse issue record emitted by the predictor.
type PredictedIssue struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Prediction is the result of one regression-risk prediction.
type Prediction struct {
	ID              string           `json:"id,omitempty"`
	RepositoryID    string           `json:"repository_id,omitempty"`
	FilePath        string           `json:"file_path"`
	RiskScore       float64          `json:"risk_score"`
	Confidence      float64          `json:"confidence"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	PredictedIssues []PredictedIssue `json:"predicted_issues"`
	Factors         RiskFactors      `json:"risk_factors"`
	Recommendations []string         `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at,omitempty"`
}

// Change is one entry in a file's change history.
type Change struct {
	Date    string `json:"date"`
	Author  string `json:"author,omitempty"`
	Message string `json:"message,omitempty"`
}

// PriorIssue is a previously recorded issue used as a risk signal.
type PriorIssue struct {
	Severity string `json:"severity"`
	Kind     string `json:"issue_type,omitempty"`
}
