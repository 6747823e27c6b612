package store

import (
	"context"

	"github.com/aurahq/aura/internal/models"
)

// IssueListFilter specifies filters for listing stored issues.
type IssueListFilter struct {
	AnalysisID string
	Severity   models.Severity
	Kind       models.IssueKind
	Limit      int
}

// ActionListFilter specifies filters for listing actions.
type ActionListFilter struct {
	Status models.ActionStatus
	Type   models.ActionType
	Limit  int
}

// DashboardStats is an aggregate snapshot for the dashboard endpoint.
type DashboardStats struct {
	TotalRepositories   int            `json:"total_repositories"`
	TotalAnalyses       int            `json:"total_analyses"`
	TotalIssues         int            `json:"total_issues"`
	AverageQualityScore float64        `json:"average_quality_score"`
	IssuesByType        map[string]int `json:"issues_by_type"`
	IssuesBySeverity    map[string]int `json:"issues_by_severity"`
	TotalPredictions    int            `json:"total_predictions"`
	HighRiskPredictions int            `json:"high_risk_predictions"`
	TotalActions        int            `json:"total_actions"`
	PendingActions      int            `json:"pending_actions"`
	RecentAnalyses      int            `json:"recent_analyses"`
}

// Store defines the persistence interface for aura.
type Store interface {
	// Repositories
	CreateRepository(ctx context.Context, r *models.Repository) error
	GetRepository(ctx context.Context, id string) (*models.Repository, error)
	GetRepositoryByName(ctx context.Context, name string) (*models.Repository, error)
	ListRepositories(ctx context.Context) ([]*models.Repository, error)
	UpdateRepository(ctx context.Context, r *models.Repository) error
	DeleteRepository(ctx context.Context, id string) error

	// Analyses
	CreateAnalysis(ctx context.Context, a *models.Analysis, issues []models.Issue) error
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error)
	ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.Issue, error)

	// Predictions
	CreatePrediction(ctx context.Context, p *models.Prediction) error
	GetPrediction(ctx context.Context, id string) (*models.Prediction, error)
	ListPredictions(ctx context.Context, minRisk float64, limit int) ([]*models.Prediction, error)

	// Actions
	CreateAction(ctx context.Context, a *models.Action) error
	GetAction(ctx context.Context, id string) (*models.Action, error)
	ListActions(ctx context.Context, filter ActionListFilter) ([]*models.Action, error)
	UpdateAction(ctx context.Context, a *models.Action) error

	// Aggregates
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
