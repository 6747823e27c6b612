// Package action decides and executes automated responses to analysis and
// prediction results. Decisions come from a static rule table evaluated in a
// fixed order, so the same inputs always produce the same action list.
package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aurahq/aura/internal/models"
)

// Trigger thresholds.
const (
	regressionRiskThreshold = 0.6
	lowCoverageThreshold    = 70.0
	lowQualityThreshold     = 70.0
)

// Engine matches results against the trigger rules and dispatches decided
// actions to executors. Executors are pluggable; the defaults simulate their
// side effects.
type Engine struct {
	executors map[models.ActionType]Executor
}

// New builds an Engine with the given executor registry. Passing nil selects
// DefaultExecutors. The rule table is validated here so a malformed table
// fails at startup rather than mid-request.
func New(executors map[models.ActionType]Executor) (*Engine, error) {
	if err := validateRuleTable(); err != nil {
		return nil, err
	}
	if executors == nil {
		executors = DefaultExecutors()
	}
	return &Engine{executors: executors}, nil
}

// Decide evaluates every trigger rule against the inputs and returns the
// matched actions sorted by ascending priority. Ties keep rule-table order.
// The prediction and coverage inputs are optional; a nil coverage means the
// caller supplied no coverage figure at all, which is distinct from a
// coverage of zero.
func (e *Engine) Decide(result *models.AnalysisResult, prediction *models.Prediction, coverage *float64, targetFile string) []models.Action {
	var actions []models.Action

	for _, rule := range ruleOrder {
		ctx, matched := e.match(rule, result, prediction, coverage)
		if !matched {
			continue
		}
		for _, entry := range ruleTable[rule] {
			actions = append(actions, models.Action{
				Type:          entry.Type,
				Priority:      entry.Priority,
				TriggerReason: rule,
				TargetFile:    targetFile,
				Context:       ctx,
				Status:        models.ActionStatusPending,
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority < actions[j].Priority
	})
	return actions
}

// match reports whether a rule fires and builds its context payload.
func (e *Engine) match(rule string, result *models.AnalysisResult, prediction *models.Prediction, coverage *float64) (json.RawMessage, bool) {
	switch rule {
	case RuleCriticalSecurity:
		issues := filterIssues(result, func(i models.Issue) bool {
			return i.Kind == models.IssueKindSecurity && i.Severity == models.SeverityCritical
		})
		if len(issues) == 0 {
			return nil, false
		}
		return issueContext(issues), true

	case RuleHighSeverityBug:
		issues := filterIssues(result, func(i models.Issue) bool {
			return i.Kind == models.IssueKindBug &&
				(i.Severity == models.SeverityCritical || i.Severity == models.SeverityHigh)
		})
		if len(issues) == 0 {
			return nil, false
		}
		return issueContext(issues), true

	case RuleRegressionRisk:
		if prediction == nil || prediction.RiskScore <= regressionRiskThreshold {
			return nil, false
		}
		return mustJSON(map[string]any{
			"risk_score":       prediction.RiskScore,
			"risk_level":       prediction.RiskLevel,
			"predicted_issues": len(prediction.PredictedIssues),
		}), true

	case RuleLowTestCoverage:
		if coverage == nil || *coverage >= lowCoverageThreshold {
			return nil, false
		}
		return mustJSON(map[string]any{"coverage": *coverage}), true

	case RuleCodeQualityIssues:
		if result == nil || result.QualityScore >= lowQualityThreshold {
			return nil, false
		}
		return mustJSON(map[string]any{
			"quality_score": result.QualityScore,
			"count":         result.TotalIssues,
		}), true
	}
	return nil, false
}

func filterIssues(result *models.AnalysisResult, keep func(models.Issue) bool) []models.Issue {
	if result == nil {
		return nil
	}
	var out []models.Issue
	for _, issue := range result.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

func issueContext(issues []models.Issue) json.RawMessage {
	return mustJSON(map[string]any{
		"items": issues,
		"count": len(issues),
	})
}

// mustJSON marshals context payloads built from plain maps and local types;
// marshaling those cannot fail.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Execute runs one action through its registered executor and mutates the
// action's status, result, and execution timestamp in place. An unregistered
// action type fails the action; it never returns a Go error because failure
// is a recorded outcome, not an exceptional condition.
func (e *Engine) Execute(a *models.Action) {
	now := time.Now().UTC()
	a.ExecutedAt = &now

	exec, ok := e.executors[a.Type]
	if !ok {
		a.Status = models.ActionStatusFailed
		a.Result = mustJSON(map[string]any{
			"status": string(models.ActionStatusFailed),
			"error":  fmt.Sprintf("unknown action type: %s", a.Type),
		})
		return
	}

	payload, err := exec(a)
	if err != nil {
		a.Status = models.ActionStatusFailed
		a.Result = mustJSON(map[string]any{
			"status": string(models.ActionStatusFailed),
			"error":  err.Error(),
		})
		return
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["status"] = string(models.ActionStatusCompleted)
	a.Status = models.ActionStatusCompleted
	a.Result = mustJSON(payload)
}
