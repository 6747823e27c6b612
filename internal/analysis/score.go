package analysis

import (
	"math"

	"github.com/aurahq/aura/internal/models"
)

// severityPenalties are the fixed per-issue deductions from a perfect score.
var severityPenalties = map[models.Severity]float64{
	models.SeverityCritical: 20,
	models.SeverityHigh:     10,
	models.SeverityMedium:   5,
	models.SeverityLow:      1,
}

// Score maps an issue set to a quality score in [0,100]. No issues scores
// exactly 100.0; each issue subtracts its severity penalty, floored at 0 and
// rounded to two decimals.
func Score(issues []models.Issue) float64 {
	if len(issues) == 0 {
		return 100.0
	}

	score := 100.0
	for _, issue := range issues {
		score -= severityPenalties[issue.Severity]
	}
	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}
