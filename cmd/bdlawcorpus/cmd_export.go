package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codermillat/BDLawCorpus-sub002/internal/export"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/corplog"
)

var exportOutDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every captured act, failed act, and the corpus manifest to disk",
	Long: `export writes the tagged-variant JSON export for every captured act and
every permanently failed extraction, plus the corpus manifest and the
accompanying research documentation, under --out (§6).`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutDir, "out", "", "output directory (defaults to the configured export_dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage backend: %w", err)
	}
	defer backend.Close(ctx)

	outDir := exportOutDir
	if outDir == "" {
		outDir = cfg.ExportDir
	}
	if outDir == "" {
		return fmt.Errorf("no export directory configured; pass --out or set export_dir")
	}

	acts, err := backend.ListActs(ctx)
	if err != nil {
		return err
	}
	failed, err := backend.ListFailedExtractions(ctx)
	if err != nil {
		return err
	}

	writer := export.NewWriter(outDir)
	at := time.Now()

	log := corplog.Global().WithComponent("cmd-export")
	if err := writer.WriteBatch(ctx, acts, failed, at); err != nil {
		return fmt.Errorf("batch export failed: %w", err)
	}
	if err := writer.WriteCorpusManifest(acts, failed, at); err != nil {
		return fmt.Errorf("manifest export failed: %w", err)
	}

	cm := export.BuildCorpusManifest(acts, failed, at)
	if err := writer.WriteResearchDocs(cm); err != nil {
		return fmt.Errorf("research docs export failed: %w", err)
	}

	backend.ResetCheckpointCounter(ctx)

	log.Info("export complete", map[string]interface{}{
		"acts":   len(acts),
		"failed": len(failed),
		"out":    outDir,
	})
	return nil
}
