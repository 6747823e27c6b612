package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aurahq/aura/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Repositories ---

func (s *SQLiteStore) CreateRepository(ctx context.Context, r *models.Repository) error {
	if r.ID == "" {
		r.ID = newULID()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repositories (id, name, path, language, repo_url, last_analyzed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Path, r.Language, r.RepoURL, r.LastAnalyzed, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRepository(ctx context.Context, id string) (*models.Repository, error) {
	return s.getRepository(ctx, "id", id)
}

func (s *SQLiteStore) GetRepositoryByName(ctx context.Context, name string) (*models.Repository, error) {
	return s.getRepository(ctx, "name", name)
}

func (s *SQLiteStore) getRepository(ctx context.Context, column, value string) (*models.Repository, error) {
	r := &models.Repository{}
	var lastAnalyzed sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, path, language, repo_url, last_analyzed, created_at, updated_at
		FROM repositories WHERE `+column+` = ?`, value,
	).Scan(&r.ID, &r.Name, &r.Path, &r.Language, &r.RepoURL, &lastAnalyzed, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("repository not found: %s", value)
	}
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	if lastAnalyzed.Valid {
		r.LastAnalyzed = &lastAnalyzed.Time
	}
	return r, nil
}

func (s *SQLiteStore) ListRepositories(ctx context.Context) ([]*models.Repository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, language, repo_url, last_analyzed, created_at, updated_at
		FROM repositories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []*models.Repository
	for rows.Next() {
		r := &models.Repository{}
		var lastAnalyzed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Name, &r.Path, &r.Language, &r.RepoURL, &lastAnalyzed, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		if lastAnalyzed.Valid {
			r.LastAnalyzed = &lastAnalyzed.Time
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

func (s *SQLiteStore) UpdateRepository(ctx context.Context, r *models.Repository) error {
	r.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET name=?, path=?, language=?, repo_url=?, last_analyzed=?, updated_at=?
		WHERE id=?`,
		r.Name, r.Path, r.Language, r.RepoURL, r.LastAnalyzed, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update repository: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("repository not found: %s", r.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteRepository(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM repositories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("repository not found: %s", id)
	}
	return nil
}

// --- Analyses ---

// CreateAnalysis persists an analysis and its issues in one transaction so a
// partially written analysis never becomes visible.
func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a *models.Analysis, issues []models.Issue) error {
	if a.ID == "" {
		a.ID = newULID()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, repository_id, file_path, language, code_content, quality_score, issues_found, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RepositoryID, a.FilePath, a.Language, a.CodeContent, a.QualityScore, a.IssuesFound, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}

	for i := range issues {
		issue := &issues[i]
		if issue.ID == "" {
			issue.ID = newULID()
		}
		issue.AnalysisID = a.ID
		issue.CreatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO issues (id, analysis_id, issue_type, severity, line_number, message, suggestion, code_snippet, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			issue.ID, issue.AnalysisID, string(issue.Kind), string(issue.Severity),
			issue.Line, issue.Message, issue.Suggestion, issue.Snippet, issue.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	a := &models.Analysis{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, repository_id, file_path, language, code_content, quality_score, issues_found, created_at, updated_at
		FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.RepositoryID, &a.FilePath, &a.Language, &a.CodeContent, &a.QualityScore, &a.IssuesFound, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	query := `SELECT id, repository_id, file_path, language, code_content, quality_score, issues_found, created_at, updated_at
		FROM analyses ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []*models.Analysis
	for rows.Next() {
		a := &models.Analysis{}
		if err := rows.Scan(&a.ID, &a.RepositoryID, &a.FilePath, &a.Language, &a.CodeContent, &a.QualityScore, &a.IssuesFound, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *SQLiteStore) ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.Issue, error) {
	query := `SELECT id, analysis_id, issue_type, severity, line_number, message, suggestion, code_snippet, created_at FROM issues`
	var conditions []string
	var args []any

	if filter.AnalysisID != "" {
		conditions = append(conditions, "analysis_id = ?")
		args = append(args, filter.AnalysisID)
	}
	if filter.Severity != "" {
		conditions = append(conditions, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Kind != "" {
		conditions = append(conditions, "issue_type = ?")
		args = append(args, string(filter.Kind))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY
		CASE severity WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END,
		created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*models.Issue
	for rows.Next() {
		issue := &models.Issue{}
		var kind, severity string
		if err := rows.Scan(&issue.ID, &issue.AnalysisID, &kind, &severity,
			&issue.Line, &issue.Message, &issue.Suggestion, &issue.Snippet, &issue.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.Kind = models.IssueKind(kind)
		issue.Severity = models.Severity(severity)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// --- Predictions ---

func (s *SQLiteStore) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	p.CreatedAt = time.Now().UTC()

	predictedJSON, err := json.Marshal(p.PredictedIssues)
	if err != nil {
		predictedJSON = []byte("[]")
	}
	factorsJSON, err := json.Marshal(p.Factors)
	if err != nil {
		factorsJSON = []byte("{}")
	}
	recsJSON, err := json.Marshal(p.Recommendations)
	if err != nil {
		recsJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, repository_id, file_path, risk_score, confidence, risk_level, predicted_issues, risk_factors, recommendations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.RepositoryID, p.FilePath, p.RiskScore, p.Confidence, string(p.RiskLevel),
		string(predictedJSON), string(factorsJSON), string(recsJSON), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPrediction(ctx context.Context, id string) (*models.Prediction, error) {
	p := &models.Prediction{}
	var riskLevel, predictedJSON, factorsJSON, recsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, repository_id, file_path, risk_score, confidence, risk_level, predicted_issues, risk_factors, recommendations, created_at
		FROM predictions WHERE id = ?`, id,
	).Scan(&p.ID, &p.RepositoryID, &p.FilePath, &p.RiskScore, &p.Confidence, &riskLevel,
		&predictedJSON, &factorsJSON, &recsJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("prediction not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}

	p.RiskLevel = models.RiskLevel(riskLevel)
	_ = json.Unmarshal([]byte(predictedJSON), &p.PredictedIssues)
	_ = json.Unmarshal([]byte(factorsJSON), &p.Factors)
	_ = json.Unmarshal([]byte(recsJSON), &p.Recommendations)
	return p, nil
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, minRisk float64, limit int) ([]*models.Prediction, error) {
	query := `SELECT id, repository_id, file_path, risk_score, confidence, risk_level, predicted_issues, risk_factors, recommendations, created_at
		FROM predictions WHERE risk_score >= ? ORDER BY created_at DESC`
	args := []any{minRisk}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var predictions []*models.Prediction
	for rows.Next() {
		p := &models.Prediction{}
		var riskLevel, predictedJSON, factorsJSON, recsJSON string
		if err := rows.Scan(&p.ID, &p.RepositoryID, &p.FilePath, &p.RiskScore, &p.Confidence, &riskLevel,
			&predictedJSON, &factorsJSON, &recsJSON, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.RiskLevel = models.RiskLevel(riskLevel)
		_ = json.Unmarshal([]byte(predictedJSON), &p.PredictedIssues)
		_ = json.Unmarshal([]byte(factorsJSON), &p.Factors)
		_ = json.Unmarshal([]byte(recsJSON), &p.Recommendations)
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// --- Actions ---

func (s *SQLiteStore) CreateAction(ctx context.Context, a *models.Action) error {
	if a.ID == "" {
		a.ID = newULID()
	}
	a.CreatedAt = time.Now().UTC()
	if a.Status == "" {
		a.Status = models.ActionStatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (id, action_type, priority, trigger_reason, target_file, context, status, result, created_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), a.Priority, a.TriggerReason, a.TargetFile,
		rawOr(a.Context, "{}"), string(a.Status), rawOr(a.Result, ""), a.CreatedAt, a.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAction(ctx context.Context, id string) (*models.Action, error) {
	a := &models.Action{}
	var actionType, status, contextJSON, resultJSON string
	var executedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, action_type, priority, trigger_reason, target_file, context, status, result, created_at, executed_at
		FROM actions WHERE id = ?`, id,
	).Scan(&a.ID, &actionType, &a.Priority, &a.TriggerReason, &a.TargetFile,
		&contextJSON, &status, &resultJSON, &a.CreatedAt, &executedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("action not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}

	a.Type = models.ActionType(actionType)
	a.Status = models.ActionStatus(status)
	if contextJSON != "" {
		a.Context = json.RawMessage(contextJSON)
	}
	if resultJSON != "" {
		a.Result = json.RawMessage(resultJSON)
	}
	if executedAt.Valid {
		a.ExecutedAt = &executedAt.Time
	}
	return a, nil
}

func (s *SQLiteStore) ListActions(ctx context.Context, filter ActionListFilter) ([]*models.Action, error) {
	query := `SELECT id, action_type, priority, trigger_reason, target_file, context, status, result, created_at, executed_at FROM actions`
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		conditions = append(conditions, "action_type = ?")
		args = append(args, string(filter.Type))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, priority ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var actions []*models.Action
	for rows.Next() {
		a := &models.Action{}
		var actionType, status, contextJSON, resultJSON string
		var executedAt sql.NullTime
		if err := rows.Scan(&a.ID, &actionType, &a.Priority, &a.TriggerReason, &a.TargetFile,
			&contextJSON, &status, &resultJSON, &a.CreatedAt, &executedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Type = models.ActionType(actionType)
		a.Status = models.ActionStatus(status)
		if contextJSON != "" {
			a.Context = json.RawMessage(contextJSON)
		}
		if resultJSON != "" {
			a.Result = json.RawMessage(resultJSON)
		}
		if executedAt.Valid {
			a.ExecutedAt = &executedAt.Time
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *SQLiteStore) UpdateAction(ctx context.Context, a *models.Action) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE actions SET status=?, result=?, executed_at=? WHERE id=?`,
		string(a.Status), rawOr(a.Result, ""), a.ExecutedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update action: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("action not found: %s", a.ID)
	}
	return nil
}

// rawOr returns the raw JSON as a string, or fallback when empty.
func rawOr(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}

// --- Aggregates ---

func (s *SQLiteStore) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		IssuesByType:     make(map[string]int),
		IssuesBySeverity: make(map[string]int),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM repositories", &stats.TotalRepositories},
		{"SELECT COUNT(*) FROM analyses", &stats.TotalAnalyses},
		{"SELECT COUNT(*) FROM issues", &stats.TotalIssues},
		{"SELECT COUNT(*) FROM predictions", &stats.TotalPredictions},
		{"SELECT COUNT(*) FROM predictions WHERE risk_score >= 0.5", &stats.HighRiskPredictions},
		{"SELECT COUNT(*) FROM actions", &stats.TotalActions},
		{"SELECT COUNT(*) FROM actions WHERE status = 'pending'", &stats.PendingActions},
		{"SELECT COUNT(*) FROM analyses WHERE created_at >= datetime('now', '-7 days')", &stats.RecentAnalyses},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT AVG(quality_score) FROM analyses").Scan(&avg); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if avg.Valid {
		stats.AverageQualityScore = avg.Float64
	}

	if err := s.countGroup(ctx, "SELECT issue_type, COUNT(*) FROM issues GROUP BY issue_type", stats.IssuesByType); err != nil {
		return nil, err
	}
	if err := s.countGroup(ctx, "SELECT severity, COUNT(*) FROM issues GROUP BY severity", stats.IssuesBySeverity); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStore) countGroup(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("dashboard stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan stats row: %w", err)
		}
		dest[key] = count
	}
	return rows.Err()
}
