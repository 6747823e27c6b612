// Package predict implements regression-risk prediction from shallow code
// metrics. The computation is a weighted sum of five normalized factors; it
// is stateless and deterministic per call.
package predict

import (
	"math"
	"strings"
	"time"

	"github.com/aurahq/aura/internal/models"
)

// Fixed factor weights. They must sum to 1.0; the constructor of any future
// configurable variant should enforce that.
const (
	weightRecentChanges = 0.30
	weightSimilarIssues = 0.25
	weightComplexity    = 0.20
	weightTestCoverage  = 0.15
	weightDependencies  = 0.10
)

// Defaults substituted when source data is absent.
const (
	defaultRecentChanges = 0.3
	defaultTestCoverage  = 0.5
)

const recentWindow = 7 * 24 * time.Hour

// changeDateLayouts are the accepted change-history date formats. Entries
// that parse with none of them count as not-recent rather than erroring.
var changeDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Predictor computes regression-risk predictions.
type Predictor struct{}

// New returns a Predictor.
func New() *Predictor {
	return &Predictor{}
}

// Input carries the optional signals for one prediction. Nil slices and a
// nil coverage pointer select the documented defaults.
type Input struct {
	Code          string
	FilePath      string
	ChangeHistory []models.Change
	PriorIssues   []models.PriorIssue
	TestCoverage  *float64
}

// Predict computes the risk score, confidence, level, predicted issues, and
// recommendations for the given input.
func (p *Predictor) Predict(in Input) *models.Prediction {
	factors := p.analyzeFactors(in)

	score := weightRecentChanges*factors.RecentChanges +
		weightSimilarIssues*factors.SimilarIssues +
		weightComplexity*factors.Complexity +
		weightTestCoverage*factors.TestCoverage +
		weightDependencies*factors.Dependencies
	score = clamp01(score)

	return &models.Prediction{
		FilePath:        in.FilePath,
		RiskScore:       score,
		Confidence:      confidence(factors),
		RiskLevel:       RiskLevel(score),
		PredictedIssues: predictedIssues(factors),
		Factors:         factors,
		Recommendations: recommendations(factors, score),
	}
}

// RiskLevel discretizes a risk score with fixed thresholds. It is a
// monotonic step function: >=0.7 critical, >=0.5 high, >=0.3 medium.
func RiskLevel(score float64) models.RiskLevel {
	switch {
	case score >= 0.7:
		return models.RiskLevelCritical
	case score >= 0.5:
		return models.RiskLevelHigh
	case score >= 0.3:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

func (p *Predictor) analyzeFactors(in Input) models.RiskFactors {
	var f models.RiskFactors

	if len(in.ChangeHistory) > 0 {
		recent := 0
		cutoff := time.Now().Add(-recentWindow)
		for _, c := range in.ChangeHistory {
			if t, ok := parseChangeDate(c.Date); ok && t.After(cutoff) {
				recent++
			}
		}
		f.RecentChanges = math.Min(1.0, float64(recent)/5.0)
	} else {
		f.RecentChanges = defaultRecentChanges
	}

	if len(in.PriorIssues) > 0 {
		similar := 0
		for _, issue := range in.PriorIssues {
			if issue.Severity == "critical" || issue.Severity == "high" {
				similar++
			}
		}
		f.SimilarIssues = math.Min(1.0, float64(similar)/3.0)
	}

	f.Complexity = math.Min(1.0, complexity(in.Code)/50.0)

	if in.TestCoverage != nil {
		f.TestCoverage = math.Max(0.0, (100-*in.TestCoverage)/100.0)
	} else {
		f.TestCoverage = defaultTestCoverage
	}

	f.Dependencies = math.Min(1.0, float64(countDependencies(in.Code))/10.0)

	return f
}

// parseChangeDate tries each accepted layout. Malformed dates are treated as
// not-recent, never as an error.
func parseChangeDate(s string) (time.Time, bool) {
	for _, layout := range changeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// complexity is a linear structural metric: weighted control-flow keyword
// counts plus maximum indentation depth over 4.
func complexity(code string) float64 {
	c := 0.0
	c += float64(strings.Count(code, "if ")) * 2
	c += float64(strings.Count(code, "for ")) * 2
	c += float64(strings.Count(code, "while ")) * 2
	c += float64(strings.Count(code, "try:")) * 1.5
	c += float64(strings.Count(code, "except")) * 1.5
	c += float64(strings.Count(code, "def "))
	c += float64(strings.Count(code, "class ")) * 2

	maxIndent := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent > maxIndent {
			maxIndent = indent
		}
	}
	c += float64(maxIndent) / 4

	return c
}

// countDependencies counts import-like statements via keyword scans.
func countDependencies(code string) int {
	n := 0
	n += strings.Count(code, "import ")
	n += strings.Count(code, "from ")
	n += strings.Count(code, "require(")
	n += strings.Count(code, "import(")
	return n
}

// confidence is the fraction of factors carrying real signal (value > 0),
// a proxy for how much of the score came from data vs. defaults.
func confidence(f models.RiskFactors) float64 {
	nonzero := 0
	for _, v := range []float64{f.RecentChanges, f.SimilarIssues, f.Complexity, f.TestCoverage, f.Dependencies} {
		if v > 0 {
			nonzero++
		}
	}
	return math.Round(float64(nonzero)/5*100) / 100
}

// predictedIssues evaluates four independent trigger conditions; zero to
// four records may result.
func predictedIssues(f models.RiskFactors) []models.PredictedIssue {
	var predicted []models.PredictedIssue

	if f.Complexity > 0.6 {
		predicted = append(predicted, models.PredictedIssue{
			Type:     "complexity_bug",
			Message:  "High complexity increases risk of logic errors",
			Severity: models.SeverityMedium,
		})
	}
	if f.TestCoverage > 0.5 {
		predicted = append(predicted, models.PredictedIssue{
			Type:     "regression_risk",
			Message:  "Low test coverage increases regression risk",
			Severity: models.SeverityHigh,
		})
	}
	if f.RecentChanges > 0.5 && f.SimilarIssues > 0.3 {
		predicted = append(predicted, models.PredictedIssue{
			Type:     "regression",
			Message:  "Recent changes in area with previous issues",
			Severity: models.SeverityHigh,
		})
	}
	if f.Dependencies > 0.7 {
		predicted = append(predicted, models.PredictedIssue{
			Type:     "integration_risk",
			Message:  "High dependency count increases integration risk",
			Severity: models.SeverityMedium,
		})
	}

	return predicted
}

// recommendations follow the fixed check order, not severity order.
func recommendations(f models.RiskFactors, score float64) []string {
	var recs []string

	if score > 0.7 {
		recs = append(recs, "High regression risk detected. Consider additional review before merging.")
	}
	if f.TestCoverage > 0.5 {
		recs = append(recs, "Increase test coverage to reduce regression risk")
	}
	if f.Complexity > 0.6 {
		recs = append(recs, "Refactor to reduce complexity and improve maintainability")
	}
	if f.SimilarIssues > 0.3 {
		recs = append(recs, "Review similar previous issues to prevent recurrence")
	}
	if f.Dependencies > 0.7 {
		recs = append(recs, "Review dependencies for potential integration issues")
	}

	if len(recs) == 0 {
		recs = append(recs, "Code looks good! Continue monitoring for changes.")
	}
	return recs
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}
