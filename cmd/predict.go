package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/output"
	"github.com/aurahq/aura/internal/predict"
)

var predictCoverage float64

var predictCmd = &cobra.Command{
	Use:   "predict <file>",
	Short: "Predict regression risk for a source file",
	Long: `Estimate the regression risk of a source file from its complexity,
dependency count, and (optionally) test coverage. The prediction is
recorded in the local database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return predictRun(cmd, args[0])
	},
}

func init() {
	predictCmd.Flags().Float64Var(&predictCoverage, "coverage", -1, "Test coverage percentage (omit if unknown)")
	rootCmd.AddCommand(predictCmd)
}

func predictRun(cmd *cobra.Command, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	in := predict.Input{
		Code:     string(code),
		FilePath: path,
	}
	// The flag default of -1 means "not provided"; any non-negative value,
	// including 0, is a real coverage figure.
	if predictCoverage >= 0 {
		cov := predictCoverage
		in.TestCoverage = &cov
	}

	p := predict.New().Predict(in)

	s, err := getStore()
	if err != nil {
		return err
	}
	if err := s.CreatePrediction(cmd.Context(), p); err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}

	ui.Info("Risk score: %.2f (%s, confidence %.2f)", p.RiskScore, output.RiskColor(string(p.RiskLevel)), p.Confidence)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"FACTOR", "VALUE"})
	table.Append([]string{"recent_changes", fmt.Sprintf("%.2f", p.Factors.RecentChanges)})
	table.Append([]string{"similar_issues", fmt.Sprintf("%.2f", p.Factors.SimilarIssues)})
	table.Append([]string{"complexity", fmt.Sprintf("%.2f", p.Factors.Complexity)})
	table.Append([]string{"test_coverage", fmt.Sprintf("%.2f", p.Factors.TestCoverage)})
	table.Append([]string{"dependencies", fmt.Sprintf("%.2f", p.Factors.Dependencies)})
	table.Render()
	fmt.Fprintln(ui.Out)

	printPredictedIssues(p.PredictedIssues)
	for _, rec := range p.Recommendations {
		ui.Info("%s", rec)
	}
	return nil
}

func printPredictedIssues(issues []models.PredictedIssue) {
	for _, issue := range issues {
		ui.Warning("%s [%s]: %s", issue.Type, output.SeverityColor(string(issue.Severity)), issue.Message)
	}
}
