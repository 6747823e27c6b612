package action

import (
	"encoding/json"

	"github.com/aurahq/aura/internal/models"
)

// Executor performs one action type and returns its result payload. The
// engine merges the payload with the final status before persisting it.
type Executor func(a *models.Action) (map[string]any, error)

// DefaultExecutors returns the built-in simulated executor set. Real
// integrations (CI, issue trackers, chat) replace entries here; anything
// not registered fails at execution time, including create_issue, which has
// no default integration.
func DefaultExecutors() map[models.ActionType]Executor {
	return map[models.ActionType]Executor{
		models.ActionAutoFix: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message":      "Auto-fix applied successfully",
				"fixed_issues": contextCount(a.Context),
			}, nil
		},
		models.ActionGenerateTests: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message":       "Test generation completed",
				"tests_created": 3,
			}, nil
		},
		models.ActionBlockDeployment: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message": "Deployment blocked due to critical issues",
				"blocked": true,
			}, nil
		},
		models.ActionNotifyTeam: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message":  "Team notification sent",
				"notified": true,
			}, nil
		},
		models.ActionRunTests: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message":      "Test suite executed",
				"tests_passed": 10,
				"tests_failed": 0,
			}, nil
		},
		models.ActionSuggestReview: func(a *models.Action) (map[string]any, error) {
			return map[string]any{
				"message":   "Review suggestion created",
				"suggested": true,
			}, nil
		},
	}
}

// contextCount extracts the "count" field from an action's context payload,
// defaulting to 0 when absent or malformed.
func contextCount(ctx json.RawMessage) int {
	if len(ctx) == 0 {
		return 0
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(ctx, &payload); err != nil {
		return 0
	}
	return payload.Count
}
