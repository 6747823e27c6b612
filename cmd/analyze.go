package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurahq/aura/internal/analysis"
	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/output"
	"github.com/aurahq/aura/internal/scan"
)

var analyzeLanguage string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a source file for issues",
	Long: `Analyze a source file with static heuristics plus an AI review pass
and print the detected issues with a quality score. The result is
recorded in the local database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeRun(cmd, args[0])
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeLanguage, "language", "l", "", "Source language (default: from file extension)")
	rootCmd.AddCommand(analyzeCmd)
}

// detectLanguage maps a file extension to a language name.
func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".go":
		return "go"
	case ".rb":
		return "ruby"
	default:
		return "python"
	}
}

func analyzeRun(cmd *cobra.Command, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	language := analyzeLanguage
	if language == "" {
		language = detectLanguage(path)
	}

	chain := buildChain()
	if chain.Len() == 0 {
		ui.VerboseLog("no AI provider configured, using local heuristics")
	}
	analyzer := analysis.New(scan.New(), chain)
	result := analyzer.Analyze(cmd.Context(), string(code), language)

	s, err := getStore()
	if err != nil {
		return err
	}
	a := &models.Analysis{
		FilePath:     path,
		Language:     language,
		CodeContent:  string(code),
		QualityScore: result.QualityScore,
		IssuesFound:  result.TotalIssues,
	}
	if err := s.CreateAnalysis(cmd.Context(), a, result.Issues); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	if result.TotalIssues == 0 {
		ui.Success("No issues found in %s", path)
	} else {
		table := ui.Table([]string{"LINE", "TYPE", "SEVERITY", "MESSAGE"})
		for _, issue := range result.Issues {
			line := ""
			if issue.Line > 0 {
				line = fmt.Sprintf("%d", issue.Line)
			}
			table.Append([]string{
				line,
				string(issue.Kind),
				output.SeverityColor(string(issue.Severity)),
				issue.Message,
			})
		}
		table.Render()
		fmt.Fprintln(ui.Out)
	}

	ui.Info("Quality score: %s (%d issues, analysis %s)", output.ScoreColor(result.QualityScore), result.TotalIssues, a.ID)
	return nil
}
