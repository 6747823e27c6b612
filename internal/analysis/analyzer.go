// Package analysis composes the static scanner, the LLM provider chain, and
// the quality scorer into a single analyze operation.
package analysis

import (
	"context"

	"github.com/aurahq/aura/internal/llm"
	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/scan"
)

// Analyzer runs static heuristics plus AI-assisted review over source text.
// Dependencies are injected at construction; there is no ambient client
// state.
type Analyzer struct {
	scanner *scan.Scanner
	chain   *llm.Chain
}

// New creates an Analyzer. The chain may be empty, in which case the
// AI-assisted pass falls back to local heuristics.
func New(scanner *scan.Scanner, chain *llm.Chain) *Analyzer {
	return &Analyzer{scanner: scanner, chain: chain}
}

// Analyze scans code, runs the AI review pass, and scores the combined
// issue set. It always returns a structured result; provider failures
// degrade to the heuristic fallback rather than surfacing as errors.
func (a *Analyzer) Analyze(ctx context.Context, code, language string) *models.AnalysisResult {
	issues := a.scanner.Scan(code, language)
	issues = append(issues, a.aiAnalyze(ctx, code, language)...)

	return &models.AnalysisResult{
		Issues:           issues,
		QualityScore:     Score(issues),
		TotalIssues:      len(issues),
		IssuesByType:     groupByType(issues),
		IssuesBySeverity: groupBySeverity(issues),
	}
}

// aiAnalyze runs the provider fallback chain and classifies its output.
// Exhausting the chain, or a response that matches no classifier bucket,
// falls through to the local heuristic pass.
func (a *Analyzer) aiAnalyze(ctx context.Context, code, language string) []models.Issue {
	if a.chain == nil || a.chain.Len() == 0 {
		return llm.HeuristicIssues(code, language)
	}

	system, user := llm.BuildReviewPrompt(code, language)
	resp, err := a.chain.Complete(ctx, llm.Request{System: system, Prompt: user, MaxTokens: 2000})
	if err != nil {
		return llm.HeuristicIssues(code, language)
	}

	issues := llm.Classify(resp.Content, code)
	if len(issues) == 0 {
		return llm.HeuristicIssues(code, language)
	}
	return issues
}

func groupByType(issues []models.Issue) map[string]int {
	grouped := make(map[string]int)
	for _, issue := range issues {
		grouped[string(issue.Kind)]++
	}
	return grouped
}

func groupBySeverity(issues []models.Issue) map[string]int {
	grouped := make(map[string]int)
	for _, issue := range issues {
		grouped[string(issue.Severity)]++
	}
	return grouped
}
