// Package api provides the REST surface over analysis, prediction, and
// action execution.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aurahq/aura/internal/action"
	"github.com/aurahq/aura/internal/analysis"
	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/predict"
	"github.com/aurahq/aura/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store     store.Store
	analyzer  *analysis.Analyzer
	predictor *predict.Predictor
	engine    *action.Engine
}

// NewServer creates a new API server.
func NewServer(s store.Store, analyzer *analysis.Analyzer, predictor *predict.Predictor, engine *action.Engine) *Server {
	return &Server{
		store:     s,
		analyzer:  analyzer,
		predictor: predictor,
		engine:    engine,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyze", s.analyze)
	mux.HandleFunc("GET /api/v1/analyze", s.listAnalyses)
	mux.HandleFunc("GET /api/v1/analyze/{id}", s.getAnalysis)

	mux.HandleFunc("POST /api/v1/predict/regression", s.predictRegression)
	mux.HandleFunc("GET /api/v1/predictions", s.listPredictions)
	mux.HandleFunc("GET /api/v1/predictions/{id}", s.getPrediction)

	mux.HandleFunc("POST /api/v1/actions/trigger", s.triggerActions)
	mux.HandleFunc("GET /api/v1/actions", s.listActions)
	mux.HandleFunc("GET /api/v1/actions/{id}", s.getAction)

	mux.HandleFunc("GET /api/v1/repositories", s.listRepositories)
	mux.HandleFunc("POST /api/v1/repositories", s.createRepository)
	mux.HandleFunc("GET /api/v1/repositories/{id}", s.getRepository)
	mux.HandleFunc("DELETE /api/v1/repositories/{id}", s.deleteRepository)

	mux.HandleFunc("GET /api/v1/issues", s.listIssues)

	mux.HandleFunc("GET /api/v1/dashboard/stats", s.dashboardStats)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Analysis ---

// AnalyzeRequest is the JSON body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Code         string `json:"code"`
	Language     string `json:"language"`
	FilePath     string `json:"file_path"`
	RepositoryID string `json:"repository_id"`
}

// AnalyzeResponse is the JSON response for a completed analysis.
type AnalyzeResponse struct {
	AnalysisID       string         `json:"analysis_id"`
	FilePath         string         `json:"file_path,omitempty"`
	Language         string         `json:"language"`
	QualityScore     float64        `json:"quality_score"`
	TotalIssues      int            `json:"total_issues"`
	Issues           []models.Issue `json:"issues"`
	IssuesByType     map[string]int `json:"issues_by_type"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		req.Language = "python"
	}

	result := s.analyzer.Analyze(r.Context(), req.Code, req.Language)

	a := &models.Analysis{
		RepositoryID: req.RepositoryID,
		FilePath:     req.FilePath,
		Language:     req.Language,
		CodeContent:  req.Code,
		QualityScore: result.QualityScore,
		IssuesFound:  result.TotalIssues,
	}
	if err := s.store.CreateAnalysis(r.Context(), a, result.Issues); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.RepositoryID != "" {
		if repo, err := s.store.GetRepository(r.Context(), req.RepositoryID); err == nil {
			now := time.Now().UTC()
			repo.LastAnalyzed = &now
			if err := s.store.UpdateRepository(r.Context(), repo); err != nil {
				slog.Warn("failed to update repository last_analyzed", "repository_id", req.RepositoryID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		AnalysisID:       a.ID,
		FilePath:         a.FilePath,
		Language:         a.Language,
		QualityScore:     result.QualityScore,
		TotalIssues:      result.TotalIssues,
		Issues:           result.Issues,
		IssuesByType:     result.IssuesByType,
		IssuesBySeverity: result.IssuesBySeverity,
	})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	issues, err := s.store.ListIssues(r.Context(), store.IssueListFilter{AnalysisID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issues == nil {
		issues = []*models.Issue{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"analysis": a,
		"issues":   issues,
	})
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.store.ListAnalyses(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

// --- Predictions ---

// PredictRequest is the JSON body for POST /api/v1/predict/regression.
type PredictRequest struct {
	Code           string              `json:"code"`
	FilePath       string              `json:"file_path"`
	RepositoryID   string              `json:"repository_id"`
	ChangeHistory  []models.Change     `json:"change_history"`
	PreviousIssues []models.PriorIssue `json:"previous_issues"`
	TestCoverage   *float64            `json:"test_coverage"`
}

func (s *Server) predictRegression(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	p := s.predictor.Predict(predict.Input{
		Code:          req.Code,
		FilePath:      req.FilePath,
		ChangeHistory: req.ChangeHistory,
		PriorIssues:   req.PreviousIssues,
		TestCoverage:  req.TestCoverage,
	})
	p.RepositoryID = req.RepositoryID

	if err := s.store.CreatePrediction(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// riskLevelFloor maps a risk level filter to its minimum score.
func riskLevelFloor(level string) float64 {
	switch models.RiskLevel(level) {
	case models.RiskLevelCritical:
		return 0.7
	case models.RiskLevelHigh:
		return 0.5
	case models.RiskLevelMedium:
		return 0.3
	default:
		return 0
	}
}

func (s *Server) listPredictions(w http.ResponseWriter, r *http.Request) {
	minRisk := riskLevelFloor(r.URL.Query().Get("risk_level"))
	predictions, err := s.store.ListPredictions(r.Context(), minRisk, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if predictions == nil {
		predictions = []*models.Prediction{}
	}
	writeJSON(w, http.StatusOK, predictions)
}

func (s *Server) getPrediction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.store.GetPrediction(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Actions ---

// TriggerActionsRequest is the JSON body for POST /api/v1/actions/trigger.
type TriggerActionsRequest struct {
	AnalysisID   string   `json:"analysis_id"`
	PredictionID string   `json:"prediction_id"`
	TestCoverage *float64 `json:"test_coverage"`
}

func (s *Server) triggerActions(w http.ResponseWriter, r *http.Request) {
	var req TriggerActionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AnalysisID == "" {
		writeError(w, http.StatusBadRequest, "analysis_id is required")
		return
	}

	a, err := s.store.GetAnalysis(r.Context(), req.AnalysisID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := s.store.ListIssues(r.Context(), store.IssueListFilter{AnalysisID: a.ID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	issues := make([]models.Issue, 0, len(stored))
	for _, issue := range stored {
		issues = append(issues, *issue)
	}
	result := &models.AnalysisResult{
		Issues:       issues,
		QualityScore: a.QualityScore,
		TotalIssues:  len(issues),
	}

	var prediction *models.Prediction
	if req.PredictionID != "" {
		prediction, err = s.store.GetPrediction(r.Context(), req.PredictionID)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	decided := s.engine.Decide(result, prediction, req.TestCoverage, a.FilePath)

	// Persist first, then execute each freshly created row exactly once, in
	// the decided priority order.
	executed := make([]*models.Action, 0, len(decided))
	for i := range decided {
		act := &decided[i]
		if err := s.store.CreateAction(r.Context(), act); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.engine.Execute(act)
		if err := s.store.UpdateAction(r.Context(), act); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		executed = append(executed, act)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"analysis_id":      a.ID,
		"actions_taken":    len(executed),
		"executed_actions": executed,
	})
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	filter := store.ActionListFilter{
		Status: models.ActionStatus(r.URL.Query().Get("status")),
		Type:   models.ActionType(r.URL.Query().Get("action_type")),
		Limit:  50,
	}
	actions, err := s.store.ListActions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if actions == nil {
		actions = []*models.Action{}
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) getAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := s.store.GetAction(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- Repositories ---

func (s *Server) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.store.ListRepositories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if repos == nil {
		repos = []*models.Repository{}
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) createRepository(w http.ResponseWriter, r *http.Request) {
	var repo models.Repository
	if err := json.NewDecoder(r.Body).Decode(&repo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if repo.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateRepository(r.Context(), &repo); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, repo)
}

func (s *Server) getRepository(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	repo, err := s.store.GetRepository(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) deleteRepository(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteRepository(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Issues ---

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	filter := store.IssueListFilter{
		AnalysisID: r.URL.Query().Get("analysis_id"),
		Severity:   models.Severity(r.URL.Query().Get("severity")),
		Kind:       models.IssueKind(r.URL.Query().Get("issue_type")),
		Limit:      100,
	}
	issues, err := s.store.ListIssues(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issues == nil {
		issues = []*models.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// --- Dashboard ---

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDashboardStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
