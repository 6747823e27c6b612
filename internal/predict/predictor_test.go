package predict

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurahq/aura/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestPredict_Defaults(t *testing.T) {
	p := New().Predict(Input{Code: "x = 1\n", FilePath: "app.py"})

	assert.Equal(t, "app.py", p.FilePath)
	assert.Equal(t, 0.3, p.Factors.RecentChanges)
	assert.Equal(t, 0.0, p.Factors.SimilarIssues)
	assert.Equal(t, 0.0, p.Factors.Complexity)
	assert.Equal(t, 0.5, p.Factors.TestCoverage)
	assert.Equal(t, 0.0, p.Factors.Dependencies)

	// 0.30*0.3 + 0.15*0.5
	assert.InDelta(t, 0.165, p.RiskScore, 1e-9)
	assert.Equal(t, models.RiskLevelLow, p.RiskLevel)
	assert.Equal(t, 0.4, p.Confidence)
	assert.Empty(t, p.PredictedIssues)
	require.Len(t, p.Recommendations, 1)
	assert.Contains(t, p.Recommendations[0], "Code looks good")
}

func TestRiskLevel_Thresholds(t *testing.T) {
	assert.Equal(t, models.RiskLevelCritical, RiskLevel(0.7))
	assert.Equal(t, models.RiskLevelHigh, RiskLevel(0.69))
	assert.Equal(t, models.RiskLevelHigh, RiskLevel(0.5))
	assert.Equal(t, models.RiskLevelMedium, RiskLevel(0.49))
	assert.Equal(t, models.RiskLevelMedium, RiskLevel(0.3))
	assert.Equal(t, models.RiskLevelLow, RiskLevel(0.29))
}

func TestPredict_CoverageFactor(t *testing.T) {
	p := New()

	low := p.Predict(Input{Code: "x = 1\n", TestCoverage: floatPtr(30)})
	assert.InDelta(t, 0.7, low.Factors.TestCoverage, 1e-9)

	full := p.Predict(Input{Code: "x = 1\n", TestCoverage: floatPtr(100)})
	assert.Equal(t, 0.0, full.Factors.TestCoverage)

	// Explicit zero coverage is real data, not the absent-coverage default.
	zero := p.Predict(Input{Code: "x = 1\n", TestCoverage: floatPtr(0)})
	assert.Equal(t, 1.0, zero.Factors.TestCoverage)
}

func TestPredict_RecentChanges(t *testing.T) {
	p := New()
	now := time.Now().Format(time.RFC3339)
	old := time.Now().Add(-30 * 24 * time.Hour).Format(time.RFC3339)

	two := p.Predict(Input{Code: "x\n", ChangeHistory: []models.Change{
		{Date: now}, {Date: now}, {Date: old},
	}})
	assert.InDelta(t, 0.4, two.Factors.RecentChanges, 1e-9)

	capped := p.Predict(Input{Code: "x\n", ChangeHistory: []models.Change{
		{Date: now}, {Date: now}, {Date: now}, {Date: now}, {Date: now}, {Date: now},
	}})
	assert.Equal(t, 1.0, capped.Factors.RecentChanges)
}

func TestPredict_MalformedDatesCountAsNotRecent(t *testing.T) {
	p := New().Predict(Input{Code: "x\n", ChangeHistory: []models.Change{
		{Date: "yesterday"}, {Date: "13/01/2026"},
	}})

	// History was provided, so the absent-history default does not apply.
	assert.Equal(t, 0.0, p.Factors.RecentChanges)
}

func TestPredict_AcceptsDateOnlyLayout(t *testing.T) {
	yesterday := time.Now().Add(-24 * time.Hour).Format("2006-01-02")
	p := New().Predict(Input{Code: "x\n", ChangeHistory: []models.Change{{Date: yesterday}}})

	assert.InDelta(t, 0.2, p.Factors.RecentChanges, 1e-9)
}

func TestPredict_SimilarIssues(t *testing.T) {
	p := New()

	one := p.Predict(Input{Code: "x\n", PriorIssues: []models.PriorIssue{
		{Severity: "high"}, {Severity: "low"}, {Severity: "medium"},
	}})
	assert.InDelta(t, 1.0/3.0, one.Factors.SimilarIssues, 1e-9)

	capped := p.Predict(Input{Code: "x\n", PriorIssues: []models.PriorIssue{
		{Severity: "critical"}, {Severity: "critical"}, {Severity: "high"}, {Severity: "high"},
	}})
	assert.Equal(t, 1.0, capped.Factors.SimilarIssues)
}

func TestComplexity(t *testing.T) {
	assert.Equal(t, 0.0, complexity("x = 1\n"))

	// 1 def + 1 if*2 + 1 for*2 + max indent 12/4
	code := "def f(x):\n    for i in x:\n        if i:\n            pass\n"
	assert.InDelta(t, 1+2+2+3, complexity(code), 1e-9)
}

func TestPredict_ComplexityCapped(t *testing.T) {
	p := New().Predict(Input{Code: strings.Repeat("if x:\n", 30)})
	assert.Equal(t, 1.0, p.Factors.Complexity)
}

func TestCountDependencies(t *testing.T) {
	assert.Equal(t, 0, countDependencies("x = 1\n"))
	assert.Equal(t, 3, countDependencies("import os\nimport sys\nrequire('fs')\n"))
	// "from x import y" counts both keywords.
	assert.Equal(t, 2, countDependencies("from os import path\n"))
}

func TestPredict_HighRiskEverything(t *testing.T) {
	now := time.Now().Format(time.RFC3339)
	history := make([]models.Change, 6)
	for i := range history {
		history[i] = models.Change{Date: now}
	}

	in := Input{
		Code:          strings.Repeat("if x:\n", 30) + strings.Repeat("import m\n", 12),
		ChangeHistory: history,
		PriorIssues: []models.PriorIssue{
			{Severity: "critical"}, {Severity: "critical"}, {Severity: "critical"},
		},
		TestCoverage: floatPtr(0),
	}
	p := New().Predict(in)

	assert.Equal(t, 1.0, p.RiskScore)
	assert.Equal(t, models.RiskLevelCritical, p.RiskLevel)
	assert.Equal(t, 1.0, p.Confidence)

	require.Len(t, p.PredictedIssues, 4)
	assert.Equal(t, "complexity_bug", p.PredictedIssues[0].Type)
	assert.Equal(t, "regression_risk", p.PredictedIssues[1].Type)
	assert.Equal(t, "regression", p.PredictedIssues[2].Type)
	assert.Equal(t, "integration_risk", p.PredictedIssues[3].Type)

	require.Len(t, p.Recommendations, 5)
	assert.Contains(t, p.Recommendations[0], "High regression risk")
}

func TestPredict_ConfidenceCountsNonzeroFactors(t *testing.T) {
	// Full coverage zeroes that factor, leaving only the recent-changes
	// default as signal.
	p := New().Predict(Input{Code: "x = 1\n", TestCoverage: floatPtr(100)})
	assert.Equal(t, 0.2, p.Confidence)
}

func TestPredict_WeightedSum(t *testing.T) {
	p := New().Predict(Input{Code: "x = 1\n", TestCoverage: floatPtr(40)})

	// 0.30*0.3 + 0.15*0.6
	assert.InDelta(t, 0.18, p.RiskScore, 1e-9)
	assert.Equal(t, models.RiskLevelLow, p.RiskLevel)
}
