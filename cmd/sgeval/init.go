package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cgast/sgeval/internal/config"
)

var initOutput string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	// Runs before any config exists.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeDefaultConfig(cmd, initOutput)
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", config.DefaultPath, "where to write the config")
}

func writeDefaultConfig(cmd *cobra.Command, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("file %q already exists (use --output to specify a different path)", outputPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", outputPath, err)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", outputPath)
	fmt.Fprintln(out, "Point paths.vocab, paths.scenes and paths.goals at your resources, then run:")
	fmt.Fprintln(out, "  sgeval evaluate --responses responses.json")
	return nil
}
