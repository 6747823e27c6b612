package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurahq/aura/internal/action"
	"github.com/aurahq/aura/internal/analysis"
	"github.com/aurahq/aura/internal/llm"
	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/predict"
	"github.com/aurahq/aura/internal/scan"
	"github.com/aurahq/aura/internal/store"
)

func setupTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	// Empty chain: analyzer degrades to the local heuristic pass, so tests
	// never touch a real provider.
	analyzer := analysis.New(scan.New(), llm.NewChain())
	engine, err := action.New(nil)
	require.NoError(t, err)
	srv := NewServer(s, analyzer, predict.New(), engine)

	return srv, s
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyze_HardcodedSecret(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	body := `{"code":"password = \"hunter2\"\n","language":"python","file_path":"auth.py"}`
	w := doJSON(t, router, "POST", "/api/v1/analyze", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AnalysisID)
	assert.Equal(t, "auth.py", resp.FilePath)
	assert.NotEmpty(t, resp.Issues)
	assert.Less(t, resp.QualityScore, 100.0)
	assert.Greater(t, resp.IssuesBySeverity["critical"], 0)

	// Stored analysis is retrievable.
	w = doJSON(t, router, "GET", "/api/v1/analyze/"+resp.AnalysisID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyze_Validation(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, "POST", "/api/v1/analyze", `{"language":"python"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/analyze", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Contains(t, errResp, "error")
}

func TestGetAnalysis_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := doJSON(t, srv.Router(), "GET", "/api/v1/analyze/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyze_UpdatesRepositoryLastAnalyzed(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	repo := &models.Repository{Name: "svc", Language: "python"}
	require.NoError(t, s.CreateRepository(ctx, repo))

	body := `{"code":"x = 1\n","language":"python","repository_id":"` + repo.ID + `"}`
	w := doJSON(t, router, "POST", "/api/v1/analyze", body)
	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := s.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastAnalyzed)
}

func TestPredictRegression(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	body := `{"code":"def f():\n    return 1\n","file_path":"core.py","test_coverage":30}`
	w := doJSON(t, router, "POST", "/api/v1/predict/regression", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var p models.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "core.py", p.FilePath)
	assert.GreaterOrEqual(t, p.RiskScore, 0.0)
	assert.LessOrEqual(t, p.RiskScore, 1.0)
	assert.InDelta(t, 0.7, p.Factors.TestCoverage, 0.0001)
	assert.NotEmpty(t, p.Recommendations)

	w = doJSON(t, router, "GET", "/api/v1/predictions/"+p.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListPredictions_RiskLevelFilter(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	require.NoError(t, s.CreatePrediction(ctx, &models.Prediction{FilePath: "low.py", RiskScore: 0.1, RiskLevel: models.RiskLevelLow}))
	require.NoError(t, s.CreatePrediction(ctx, &models.Prediction{FilePath: "high.py", RiskScore: 0.8, RiskLevel: models.RiskLevelCritical}))

	w := doJSON(t, router, "GET", "/api/v1/predictions?risk_level=high", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var predictions []*models.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &predictions))
	require.Len(t, predictions, 1)
	assert.Equal(t, "high.py", predictions[0].FilePath)
}

func TestTriggerActions_CriticalSecurity(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	// Hardcoded secret produces a critical security issue, which drops the
	// quality score below 70 as well: critical_security and
	// code_quality_issues both fire.
	body := `{"code":"password = \"hunter2\"\neval(user_input)\n","language":"python"}`
	w := doJSON(t, router, "POST", "/api/v1/analyze", body)
	require.Equal(t, http.StatusOK, w.Code)

	var analyzed AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analyzed))

	w = doJSON(t, router, "POST", "/api/v1/actions/trigger", `{"analysis_id":"`+analyzed.AnalysisID+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AnalysisID      string           `json:"analysis_id"`
		ActionsTaken    int              `json:"actions_taken"`
		ExecutedActions []*models.Action `json:"executed_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, analyzed.AnalysisID, resp.AnalysisID)
	require.NotEmpty(t, resp.ExecutedActions)

	// First action is the priority-1 auto_fix from critical_security.
	first := resp.ExecutedActions[0]
	assert.Equal(t, models.ActionAutoFix, first.Type)
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, "critical_security", first.TriggerReason)

	// Every decided action was executed and persisted.
	for _, a := range resp.ExecutedActions {
		assert.Equal(t, models.ActionStatusCompleted, a.Status)
		assert.NotNil(t, a.ExecutedAt)
		assert.NotEmpty(t, a.ID)
	}

	// Actions are listable with a status filter.
	w = doJSON(t, router, "GET", "/api/v1/actions?status=completed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var listed []*models.Action
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, resp.ActionsTaken)
}

func TestTriggerActions_WithPredictionAndCoverage(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	a := &models.Analysis{FilePath: "clean.py", Language: "python", QualityScore: 95}
	require.NoError(t, s.CreateAnalysis(ctx, a, nil))

	p := &models.Prediction{FilePath: "clean.py", RiskScore: 0.75, RiskLevel: models.RiskLevelCritical}
	require.NoError(t, s.CreatePrediction(ctx, p))

	body := `{"analysis_id":"` + a.ID + `","prediction_id":"` + p.ID + `","test_coverage":40}`
	w := doJSON(t, router, "POST", "/api/v1/actions/trigger", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExecutedActions []*models.Action `json:"executed_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// regression_risk (generate_tests, run_tests) + low_test_coverage
	// (generate_tests): no dedup across rules.
	require.Len(t, resp.ExecutedActions, 3)
	reasons := map[string]int{}
	for _, act := range resp.ExecutedActions {
		reasons[act.TriggerReason]++
	}
	assert.Equal(t, 2, reasons["regression_risk"])
	assert.Equal(t, 1, reasons["low_test_coverage"])
}

func TestTriggerActions_Validation(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, "POST", "/api/v1/actions/trigger", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/actions/trigger", `{"analysis_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRepositoriesCRUD_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, "POST", "/api/v1/repositories", `{"name":"svc","path":"/srv/svc","language":"python"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "svc", created.Name)
	assert.NotEmpty(t, created.ID)

	w = doJSON(t, router, "GET", "/api/v1/repositories/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/repositories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var repos []*models.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repos))
	assert.Len(t, repos, 1)

	w = doJSON(t, router, "DELETE", "/api/v1/repositories/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/repositories/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRepository_RequiresName(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := doJSON(t, srv.Router(), "POST", "/api/v1/repositories", `{"path":"/x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIssues_Filtered(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	a := &models.Analysis{FilePath: "m.py"}
	require.NoError(t, s.CreateAnalysis(ctx, a, []models.Issue{
		{Kind: models.IssueKindSecurity, Severity: models.SeverityCritical},
		{Kind: models.IssueKindStyle, Severity: models.SeverityLow},
	}))

	w := doJSON(t, router, "GET", "/api/v1/issues?severity=critical", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var issues []*models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueKindSecurity, issues[0].Kind)
}

func TestDashboardStats_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	require.NoError(t, s.CreateAnalysis(ctx, &models.Analysis{FilePath: "a.py", QualityScore: 90}, []models.Issue{
		{Kind: models.IssueKindBug, Severity: models.SeverityHigh},
	}))

	w := doJSON(t, router, "GET", "/api/v1/dashboard/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats store.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalAnalyses)
	assert.Equal(t, 1, stats.TotalIssues)
	assert.Equal(t, 1, stats.IssuesBySeverity["high"])
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("OPTIONS", "/api/v1/analyze", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
