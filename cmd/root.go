package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aurahq/aura/internal/llm"
	"github.com/aurahq/aura/internal/output"
	"github.com/aurahq/aura/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aura",
	Short: "Aura - AI-assisted code review and regression risk analysis",
	Long: `aura analyzes source code for bugs, security problems, and style
issues using static heuristics plus an LLM review pass, predicts
regression risk from change history and code metrics, and triggers
automated follow-up actions. Run it as a CLI or as a REST service.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/aura/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "aura")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AURA")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "aura")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "aura.db"))
	viper.SetDefault("port", 8080)
	viper.SetDefault("ai.provider", "anthropic")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// Store is initialized lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// buildChain assembles the provider fallback chain from config/env. The
// preferred provider goes first; nil providers (no API key) are skipped, so
// the chain may be empty, in which case analysis falls back to local
// heuristics.
func buildChain() *llm.Chain {
	anthropicKey := viper.GetString("anthropic.api_key")
	if anthropicKey == "" {
		anthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	openaiKey := viper.GetString("openai.api_key")
	if openaiKey == "" {
		openaiKey = os.Getenv("OPENAI_API_KEY")
	}

	// Check concrete pointers for nil before converting to the interface,
	// so an unconfigured provider never enters the chain as a typed nil.
	var anthropicProv, openaiProv llm.Provider
	if a := llm.NewAnthropic(anthropicKey, viper.GetString("anthropic.model")); a != nil {
		anthropicProv = a
	}
	if o := llm.NewOpenAI(openaiKey, viper.GetString("openai.model"), viper.GetString("openai.base_url")); o != nil {
		openaiProv = o
	}

	if viper.GetString("ai.provider") == "openai" {
		return llm.NewChain(openaiProv, anthropicProv)
	}
	return llm.NewChain(anthropicProv, openaiProv)
}
