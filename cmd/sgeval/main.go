package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/internal/config"
	"github.com/cgast/sgeval/internal/logging"
)

var (
	cfg        config.Config
	configPath string
	envPath    string
	logLevel   string
	logFormat  string

	rootCmd = &cobra.Command{
		Use:   "sgeval",
		Short: "Evaluate LLM-generated subgoal plans against household scenes",
		Long: `sgeval checks subgoal plans in three stages: syntax against the
vocabulary, grounding against the scene, and execution on a symbolic planner.
Each task gets exactly one verdict: Correct, NotParseable, Hallucination,
Runtime or GoalUnreachable.

Evaluate a batch of responses:
  sgeval evaluate --responses responses.json --scene-id 1

Check a single plan:
  sgeval check --scene scene.json --goal "OPEN(fridge.2)" --plan plan.txt`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(fetchCmd)
}

// setup loads .env and the config file, applies flag overrides and installs
// the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return err
	}
	var err error
	if cfg, err = config.LoadConfig(configPath); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// requireFlags marks flags of cmd as required. An unknown flag name is a
// programming error.
func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("%s: %v", cmd.Name(), err))
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
