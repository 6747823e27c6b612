package models

import (
	"encoding/json"
	"time"
)

// ActionType identifies an automated response to analysis results.
type ActionType string

const (
	ActionAutoFix         ActionType = "auto_fix"
	ActionGenerateTests   ActionType = "generate_tests"
	ActionBlockDeployment ActionType = "block_deployment"
	ActionNotifyTeam      ActionType = "notify_team"
	ActionCreateIssue     ActionType = "create_issue"
	ActionRunTests        ActionType = "run_tests"
	ActionSuggestReview   ActionType = "suggest_review"
)

// ActionStatus tracks an action's lifecycle: pending -> completed|failed.
// Transitions never go backward.
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// Action is one proposed or executed automated response.
type Action struct {
	ID            string          `json:"id,omitempty"`
	Type          ActionType      `json:"action_type"`
	Priority      int             `json:"priority"`
	TriggerReason string          `json:"trigger_reason"`
	TargetFile    string          `json:"target_file,omitempty"`
	Context       json.RawMessage `json:"context,omitempty"`
	Status        ActionStatus    `json:"status"`
	Result        json.RawMessage `json:"result,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
}
