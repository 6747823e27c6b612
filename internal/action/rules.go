package action

import (
	"fmt"

	"github.com/aurahq/aura/internal/models"
)

// Trigger rule names. Rules are evaluated in the order listed in ruleOrder;
// that order also breaks priority ties in the decided action list.
const (
	RuleCriticalSecurity  = "critical_security"
	RuleHighSeverityBug   = "high_severity_bug"
	RuleRegressionRisk    = "regression_risk"
	RuleLowTestCoverage   = "low_test_coverage"
	RuleCodeQualityIssues = "code_quality_issues"
)

var ruleOrder = []string{
	RuleCriticalSecurity,
	RuleHighSeverityBug,
	RuleRegressionRisk,
	RuleLowTestCoverage,
	RuleCodeQualityIssues,
}

// ruleAction is one (action type, priority) entry in the rule table.
type ruleAction struct {
	Type     models.ActionType
	Priority int
}

// ruleTable maps each trigger rule to its ordered action list. The same
// (rule, type) pair always carries the same priority; the table is
// initialized once and never mutated.
var ruleTable = map[string][]ruleAction{
	RuleCriticalSecurity: {
		{models.ActionAutoFix, 1},
		{models.ActionBlockDeployment, 2},
		{models.ActionNotifyTeam, 3},
	},
	RuleHighSeverityBug: {
		{models.ActionSuggestReview, 1},
		{models.ActionGenerateTests, 2},
	},
	RuleRegressionRisk: {
		{models.ActionGenerateTests, 1},
		{models.ActionRunTests, 2},
	},
	RuleLowTestCoverage: {
		{models.ActionGenerateTests, 1},
	},
	RuleCodeQualityIssues: {
		{models.ActionAutoFix, 1},
		{models.ActionSuggestReview, 2},
	},
}

// validActionTypes is the closed set accepted by the rule table validator.
var validActionTypes = map[models.ActionType]bool{
	models.ActionAutoFix:         true,
	models.ActionGenerateTests:   true,
	models.ActionBlockDeployment: true,
	models.ActionNotifyTeam:      true,
	models.ActionCreateIssue:     true,
	models.ActionRunTests:        true,
	models.ActionSuggestReview:   true,
}

// validateRuleTable catches rule-table defects at construction time instead
// of at decision time. A failure here is a programming error, not a runtime
// condition.
func validateRuleTable() error {
	if len(ruleOrder) != len(ruleTable) {
		return fmt.Errorf("rule table has %d rules but evaluation order lists %d", len(ruleTable), len(ruleOrder))
	}
	for _, rule := range ruleOrder {
		entries, ok := ruleTable[rule]
		if !ok {
			return fmt.Errorf("rule %q in evaluation order has no table entry", rule)
		}
		seen := map[int]models.ActionType{}
		for _, entry := range entries {
			if !validActionTypes[entry.Type] {
				return fmt.Errorf("rule %q references unknown action type %q", rule, entry.Type)
			}
			if entry.Priority <= 0 {
				return fmt.Errorf("rule %q action %q has non-positive priority %d", rule, entry.Type, entry.Priority)
			}
			if prev, dup := seen[entry.Priority]; dup {
				return fmt.Errorf("rule %q has priority collision between %q and %q", rule, prev, entry.Type)
			}
			seen[entry.Priority] = entry.Type
		}
	}
	return nil
}
