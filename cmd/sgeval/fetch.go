package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/pkg/resources"
)

var fetchFlags struct {
	repo string
	ref  string
	path string
	dest string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download vocabulary, goal and scene files from GitHub",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.StringVar(&fetchFlags.repo, "repo", "", "repository as owner/name (default from config)")
	f.StringVar(&fetchFlags.ref, "ref", "", "branch, tag or commit (default from config)")
	f.StringVar(&fetchFlags.path, "path", "", "directory in the repository (default from config)")
	f.StringVar(&fetchFlags.dest, "dest", "resources", "local directory")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	repo := orDefault(fetchFlags.repo, cfg.GitHub.Repo)
	if repo == "" {
		return fmt.Errorf("no repository: pass --repo or set github.repo in the config")
	}
	f, err := resources.NewFetcher(cfg.GitHub.Token, resources.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	written, err := f.Fetch(cmd.Context(), repo,
		orDefault(fetchFlags.ref, cfg.GitHub.Ref),
		orDefault(fetchFlags.path, cfg.GitHub.Path),
		fetchFlags.dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d files into %s\n", len(written), fetchFlags.dest)
	return nil
}
