// Command bdlawcorpus drives the legal-text corpus extraction pipeline:
// queue a set of acts, run the extraction loop (with its retry sub-loop),
// resume an interrupted session, export the captured corpus, and validate
// configuration, all from one CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codermillat/BDLawCorpus-sub002/pkg/config"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/corplog"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "bdlawcorpus",
	Short: "Extraction and export pipeline for the Bangladesh law text corpus",
	Long: `bdlawcorpus drives a single-threaded cooperative extraction loop over a
queue of acts: navigate, wait for readiness, extract, run the fidelity
engine, and persist, with a retry sub-loop for recoverable failures.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := corplog.InfoLevel
		if verbose {
			level = corplog.DebugLevel
		}
		corplog.InitGlobal(&corplog.Config{Level: level, Format: corplog.TextFormat})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
